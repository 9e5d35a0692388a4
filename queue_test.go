package landledger

import (
	"context"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landledger/landledger/config"
	"github.com/landledger/landledger/database/memory"
	"github.com/landledger/landledger/model"
)

func TestQueueOptions(t *testing.T) {
	opts, err := QueueOptions(&config.Configuration{Redis: config.RedisConfig{Dns: "redis://:secret@cache.internal:6380/2"}})
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)

	_, err = QueueOptions(&config.Configuration{})
	assert.Error(t, err)
}

func TestEnqueueNotification(t *testing.T) {
	_, mr := newRedis(t)
	cfg := testConfig()
	cfg.Redis.Dns = mr.Addr()
	config.MockConfig(cfg)

	q, err := NewQueue(cfg)
	require.NoError(t, err)
	defer q.Close()

	event := model.NewEvent(model.EventLoanApproved, admin, map[string]string{"loan_id": "loan_1"})
	require.NoError(t, q.Enqueue(context.Background(), event))
	assert.Contains(t, mr.Keys(), "asynq:{notifications}:t:"+event.EventID)

	// The event id is the task id, so the same event cannot be queued twice.
	err = q.Enqueue(context.Background(), event)
	assert.ErrorIs(t, err, asynq.ErrTaskIDConflict)
}

func TestWebhookNotifierEnqueues(t *testing.T) {
	_, mr := newRedis(t)
	cfg := testConfig()
	cfg.Redis.Dns = mr.Addr()
	cfg.Notification.Webhook.Url = "https://hooks.example.com/landledger"
	config.MockConfig(cfg)

	q, err := NewQueue(cfg)
	require.NoError(t, err)
	defer q.Close()

	l, err := NewLandLedger(memory.New(), WithNotifier(webhookNotifier{queue: q}))
	require.NoError(t, err)
	openAccount(t, l, "10")
	require.NoError(t, l.Shutdown(context.Background()))

	var queued []string
	for _, key := range mr.Keys() {
		if strings.HasPrefix(key, "asynq:{notifications}:t:evt_") {
			queued = append(queued, key)
		}
	}
	assert.Len(t, queued, 1)
}

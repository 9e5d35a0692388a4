package landledger

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landledger/landledger/config"
	"github.com/landledger/landledger/model"
)

const hookURL = "https://hooks.example.com/landledger"

func webhookConfig() *config.Configuration {
	cfg := testConfig()
	cfg.Notification.Webhook.Url = hookURL
	cfg.Notification.Webhook.Headers = map[string]string{"X-Landledger-Key": "s3cret"}
	return cfg
}

func webhookTask(t *testing.T, event model.Event) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return asynq.NewTask(WebhookTask, payload)
}

func TestProcessWebhook(t *testing.T) {
	config.MockConfig(webhookConfig())
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	event := model.NewEvent(model.EventAccountDeposit, admin, map[string]string{"account_id": "acc_1"})

	httpmock.RegisterResponder(http.MethodPost, hookURL, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "s3cret", req.Header.Get("X-Landledger-Key"))
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		var received model.Event
		require.NoError(t, json.Unmarshal(body, &received))
		assert.Equal(t, event.EventID, received.EventID)
		assert.Equal(t, model.EventAccountDeposit, received.Event)

		return httpmock.NewStringResponse(http.StatusOK, `{"received":true}`), nil
	})

	require.NoError(t, ProcessWebhook(context.Background(), webhookTask(t, event)))
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestProcessWebhook_ServerErrorIsRetried(t *testing.T) {
	config.MockConfig(webhookConfig())
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, hookURL, httpmock.NewStringResponder(http.StatusBadGateway, "upstream down"))

	err := ProcessWebhook(context.Background(), webhookTask(t, model.NewEvent(model.EventLoanClosed, admin, nil)))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestProcessWebhook_MalformedPayloadIsDropped(t *testing.T) {
	config.MockConfig(webhookConfig())
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	err := ProcessWebhook(context.Background(), asynq.NewTask(WebhookTask, []byte("{not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestProcessWebhook_NoURLConfigured(t *testing.T) {
	config.MockConfig(testConfig())
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	require.NoError(t, ProcessWebhook(context.Background(), webhookTask(t, model.NewEvent(model.EventLoanApproved, admin, nil))))
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package landledger

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/landledger/landledger/config"
	redis_db "github.com/landledger/landledger/internal/redis-db"
	"github.com/landledger/landledger/model"
)

// WebhookTask is the asynq task type of outgoing event notifications.
const WebhookTask = "notification:webhook"

// Queue enqueues notification tasks for the worker process.
type Queue struct {
	Client    *asynq.Client
	Inspector *asynq.Inspector
}

// QueueOptions builds the asynq connection from the configured redis address.
func QueueOptions(conf *config.Configuration) (asynq.RedisClientOpt, error) {
	redisOption, err := redis_db.ParseRedisURL(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}
	return asynq.RedisClientOpt{
		Addr:      redisOption.Addr,
		Username:  redisOption.Username,
		Password:  redisOption.Password,
		DB:        redisOption.DB,
		TLSConfig: redisOption.TLSConfig,
	}, nil
}

func NewQueue(conf *config.Configuration) (*Queue, error) {
	opts, err := QueueOptions(conf)
	if err != nil {
		return nil, err
	}
	return &Queue{
		Client:    asynq.NewClient(opts),
		Inspector: asynq.NewInspector(opts),
	}, nil
}

// Enqueue hands event to the notification queue. The event id doubles as the
// task id so an event is never queued twice.
func (q *Queue) Enqueue(ctx context.Context, event model.Event) error {
	ctx, span := tracer.Start(ctx, "queue.enqueue")
	defer span.End()

	cfg, err := config.Fetch()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	task := asynq.NewTask(WebhookTask, payload)
	info, err := q.Client.EnqueueContext(ctx, task,
		asynq.TaskID(event.EventID),
		asynq.Queue(cfg.Queue.NotificationQueue),
		asynq.MaxRetry(cfg.Queue.MaxRetryAttempts),
	)
	if err != nil {
		span.RecordError(err)
		return err
	}
	logrus.WithFields(logrus.Fields{"event": event.Event, "event_id": event.EventID, "queue": info.Queue}).Debug("enqueued notification")
	return nil
}

func (q *Queue) Close() error {
	if err := q.Inspector.Close(); err != nil {
		return err
	}
	return q.Client.Close()
}

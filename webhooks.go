package landledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/landledger/landledger/config"
	"github.com/landledger/landledger/internal/request"
	"github.com/landledger/landledger/model"
)

// postWebhook delivers one event to the configured endpoint with the configured headers.
func postWebhook(ctx context.Context, url string, headers map[string]string, event model.Event) error {
	payload, err := request.ToJsonReq(event)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, payload)
	if err != nil {
		return err
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	_, err = request.Call(req, nil)
	return err
}

// ProcessWebhook is the asynq handler of WebhookTask. A returned error makes
// asynq retry the task; malformed payloads are dropped since retrying them
// cannot succeed.
func ProcessWebhook(ctx context.Context, task *asynq.Task) error {
	conf, err := config.Fetch()
	if err != nil {
		return err
	}

	if conf.Notification.Webhook.Url == "" {
		return nil
	}

	var event model.Event
	if err := json.Unmarshal(task.Payload(), &event); err != nil {
		logrus.WithError(err).Error("dropping malformed webhook task")
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	logrus.WithFields(logrus.Fields{"event": event.Event, "event_id": event.EventID}).Info("processing webhook")
	if err := postWebhook(ctx, conf.Notification.Webhook.Url, conf.Notification.Webhook.Headers, event); err != nil {
		logrus.WithError(err).WithField("event_id", event.EventID).Warn("webhook delivery failed")
		return err
	}
	return nil
}

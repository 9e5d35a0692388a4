package landledger

import (
	"context"
	"fmt"

	"github.com/landledger/landledger/config"
	"github.com/landledger/landledger/internal/events"
	"github.com/landledger/landledger/model"
)

// Notifier receives domain events after their unit of work committed. A failing
// Notifier never fails the operation that produced the event.
type Notifier interface {
	Notify(ctx context.Context, event model.Event) error
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, model.Event) error { return nil }

// webhookNotifier queues events for the worker process, which posts them to the
// configured webhook.
type webhookNotifier struct {
	queue *Queue
}

func (n webhookNotifier) Notify(ctx context.Context, event model.Event) error {
	cfg, err := config.Fetch()
	if err != nil {
		return err
	}
	if cfg.Notification.Webhook.Url == "" {
		return nil
	}
	return n.queue.Enqueue(ctx, event)
}

type kafkaNotifier struct {
	publisher *events.Publisher
}

func (n kafkaNotifier) Notify(ctx context.Context, event model.Event) error {
	return n.publisher.Publish(ctx, event)
}

// NewNotifierFromConfig builds the notifier selected by notification.sink. The
// returned close function releases its connections.
func NewNotifierFromConfig(cfg *config.Configuration) (Notifier, func() error, error) {
	switch cfg.Notification.Sink {
	case config.SinkNone:
		return noopNotifier{}, func() error { return nil }, nil
	case config.SinkKafka:
		if len(cfg.Notification.Kafka.Brokers) == 0 {
			return nil, nil, fmt.Errorf("notification sink %q requires kafka brokers", cfg.Notification.Sink)
		}
		publisher := events.NewPublisher(cfg.Notification.Kafka.Brokers, cfg.Notification.Kafka.Topic)
		return kafkaNotifier{publisher: publisher}, publisher.Close, nil
	case config.SinkWebhook:
		queue, err := NewQueue(cfg)
		if err != nil {
			return nil, nil, err
		}
		return webhookNotifier{queue: queue}, queue.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown notification sink %q", cfg.Notification.Sink)
	}
}

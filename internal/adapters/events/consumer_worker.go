package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/forlarge/marketplace/internal/application"
	"github.com/forlarge/marketplace/internal/domain"
)

type Message struct {
	Topic   string
	Payload []byte
}

type Consumer interface {
	Poll(ctx context.Context, max int) ([]Message, error)
}

// ConsumerWorker drains settlement confirmations off the bus and feeds them
// into the reconciler. Handler failures are logged and the message is
// dropped; redelivery is the broker's job and the reconciler is idempotent.
type ConsumerWorker struct {
	logger   *slog.Logger
	consumer Consumer
	service  *application.Service
	interval time.Duration
}

func NewConsumerWorker(logger *slog.Logger, consumer Consumer, service *application.Service, interval time.Duration) *ConsumerWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &ConsumerWorker{
		logger: logger, consumer: consumer, service: service, interval: interval,
	}
}

func (w *ConsumerWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.processOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "consumer iteration failed",
				"module", "events.consumer_worker",
				"layer", "adapter",
				"operation", "process_once",
				"outcome", "failure",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *ConsumerWorker) processOnce(ctx context.Context) error {
	msgs, err := w.consumer.Poll(ctx, 50)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		switch msg.Topic {
		case domain.EventSettlementConfirmed:
			if err := w.service.HandleSettlementEvent(ctx, msg.Payload); err != nil {
				w.logger.WarnContext(ctx, "failed to handle settlement confirmation",
					"module", "events.consumer_worker",
					"layer", "adapter",
					"operation", "handle_settlement",
					"outcome", "failure",
					"error", err,
				)
			}
		default:
			w.logger.WarnContext(ctx, "message on unexpected topic dropped",
				"module", "events.consumer_worker",
				"layer", "adapter",
				"operation", "route",
				"outcome", "skipped",
				"topic", msg.Topic,
			)
		}
	}
	return nil
}

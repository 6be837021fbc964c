package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/example/storefront/internal/infrastructure/kafka"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/logging"
	"github.com/example/storefront/internal/metrics"
	"github.com/sirupsen/logrus"
)

type Publisher interface {
	Publish(ctx context.Context, msgs ...kafka.Message) error
}

// Relay moves committed outbox rows to Kafka. Delivery is at least once:
// a crash between publish and mark re-sends the batch.
type Relay struct {
	store     store.Store
	publisher Publisher
	interval  time.Duration
	batchSize int
	metrics   *metrics.Metrics
	logger    logrus.FieldLogger
	now       func() time.Time
}

func NewRelay(s store.Store, p Publisher, interval time.Duration, batchSize int, m *metrics.Metrics, logger logrus.FieldLogger) *Relay {
	return &Relay{
		store:     s,
		publisher: p,
		interval:  interval,
		batchSize: batchSize,
		metrics:   m,
		logger:    logging.Component(logger, "outbox"),
		now:       time.Now,
	}
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.WithField("interval", r.interval).Info("Outbox relay started")
	for {
		r.drain(ctx)
		select {
		case <-ctx.Done():
			r.logger.Info("Outbox relay stopped")
			return
		case <-ticker.C:
		}
	}
}

// drain relays full batches back to back so a backlog clears without
// waiting a tick per batch.
func (r *Relay) drain(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := r.RelayOnce(ctx)
		if err != nil {
			if ctx.Err() == nil {
				r.logger.WithError(err).Warn("Outbox relay failed")
			}
			return
		}
		if n < r.batchSize {
			return
		}
	}
}

// RelayOnce publishes one batch of pending messages and marks them sent.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	var published []store.OutboxMessage

	err := r.store.WithTx(ctx, func(tx store.Repository) error {
		pending, err := tx.FetchPendingOutbox(ctx, r.batchSize)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return nil
		}

		msgs := make([]kafka.Message, 0, len(pending))
		ids := make([]int64, 0, len(pending))
		for _, p := range pending {
			msgs = append(msgs, kafka.Message{
				Key:       p.Key,
				EventType: p.Topic,
				Value:     p.Payload,
				Time:      p.CreatedAt,
			})
			ids = append(ids, p.ID)
		}

		if err := r.publisher.Publish(ctx, msgs...); err != nil {
			return fmt.Errorf("publish %d messages: %w", len(msgs), err)
		}
		if err := tx.MarkOutboxSent(ctx, ids, r.now()); err != nil {
			return err
		}
		published = pending
		return nil
	})
	if err != nil {
		if r.metrics != nil {
			r.metrics.OutboxFailures.Inc()
		}
		return 0, err
	}

	for _, p := range published {
		if r.metrics != nil {
			r.metrics.OutboxPublished.WithLabelValues(p.Topic).Inc()
		}
		r.logger.WithFields(logrus.Fields{"topic": p.Topic, "key": p.Key, "eventId": p.EventID}).Debug("Published event")
	}
	return len(published), nil
}

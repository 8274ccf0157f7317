package outbox

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/storefront/internal/service/models/outbox"
	"github.com/spf13/viper"
)

type publisher interface {
	PublishBatch(ctx context.Context, msgs []outbox.OutboxMessage) []error
}

// Worker relays messages from the outbox table to RabbitMQ.
type Worker struct {
	outboxRepo    ioutboxrepo.IOutboxRepository
	publisher     publisher
	pollInterval  time.Duration
	batchSize     int
	retryInterval time.Duration
	stopCh        chan struct{}
	now           func() time.Time
}

// NewWorker creates a new outbox worker.
func NewWorker(
	outboxRepo ioutboxrepo.IOutboxRepository,
	publisher publisher,
) *Worker {
	pollIntervalSeconds := viper.GetInt("rabbitmq.outbox.poll_interval_seconds")
	if pollIntervalSeconds == 0 {
		pollIntervalSeconds = 10
	}

	batchSize := viper.GetInt("rabbitmq.outbox.batch_size")
	if batchSize == 0 {
		batchSize = 100
	}

	retryIntervalSeconds := viper.GetInt("rabbitmq.outbox.retry_interval_seconds")
	if retryIntervalSeconds == 0 {
		retryIntervalSeconds = 30
	}

	return &Worker{
		outboxRepo:    outboxRepo,
		publisher:     publisher,
		pollInterval:  time.Duration(pollIntervalSeconds) * time.Second,
		batchSize:     batchSize,
		retryInterval: time.Duration(retryIntervalSeconds) * time.Second,
		stopCh:        make(chan struct{}),
		now:           time.Now,
	}
}

// Start begins processing messages from the outbox.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	slog.Info("Outbox worker started", "poll_interval", w.pollInterval, "batch_size", w.batchSize)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Outbox worker shutting down")

			return
		case <-w.stopCh:
			slog.Info("Outbox worker stopped")

			return
		case <-ticker.C:
			w.ProcessMessages(ctx)
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	close(w.stopCh)
}

// ProcessMessages publishes one batch of due messages. Published messages
// are deleted; failed ones are rescheduled with exponential backoff.
func (w *Worker) ProcessMessages(ctx context.Context) {
	messages, err := w.outboxRepo.GetPendingMessages(ctx, w.batchSize)
	if err != nil {
		slog.Error("Failed to get pending messages from outbox", "error", err)

		return
	}

	if len(messages) == 0 {
		return
	}

	slog.Info("Processing outbox messages", "count", len(messages))

	errs := w.publisher.PublishBatch(ctx, messages)

	published := make([]int64, 0, len(messages))
	for i, msg := range messages {
		if errs[i] == nil {
			published = append(published, msg.ID)

			continue
		}

		newRetryCount := msg.RetryCount + 1
		nextRetryAt := w.now().Add(w.backoff(newRetryCount))

		slog.Warn("Failed to publish message from outbox, will retry",
			"outbox_id", msg.ID,
			"routing_key", msg.RoutingKey,
			"retry_count", newRetryCount,
			"next_retry", nextRetryAt,
			"error", errs[i],
		)
		if newRetryCount >= msg.MaxRetries {
			slog.Error("Outbox message exhausted its retries", "outbox_id", msg.ID, "routing_key", msg.RoutingKey)
		}

		if err := w.outboxRepo.UpdateRetry(ctx, msg.ID, newRetryCount, errs[i].Error(), nextRetryAt); err != nil {
			slog.Error("Failed to update retry information", "outbox_id", msg.ID, "error", err)
		}
	}

	if len(published) == 0 {
		return
	}

	if err := w.outboxRepo.Delete(ctx, published...); err != nil {
		slog.Error("Failed to delete published messages from outbox", "count", len(published), "error", err)

		return
	}

	slog.Info("Messages published and removed from outbox", "count", len(published))
}

// backoff returns retryInterval doubled per attempt: 60s, 120s, 240s and so on.
func (w *Worker) backoff(retryCount int) time.Duration {
	return time.Duration(math.Pow(2, float64(retryCount))) * w.retryInterval
}

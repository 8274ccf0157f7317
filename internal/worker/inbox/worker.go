package inbox

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iinboxrepo"
	"github.com/corray333/backend-labs/storefront/internal/service/services/notifysvc"
	"github.com/spf13/viper"
)

type handler interface {
	HandleEvent(ctx context.Context, messageID string, body []byte) error
}

// Worker retries deliveries the consumer parked in the inbox table.
type Worker struct {
	inboxRepo     iinboxrepo.IInboxRepository
	handler       handler
	pollInterval  time.Duration
	batchSize     int
	retryInterval time.Duration
	stopCh        chan struct{}
	now           func() time.Time
}

// NewWorker creates a new inbox worker.
func NewWorker(inboxRepo iinboxrepo.IInboxRepository, handler handler) *Worker {
	pollIntervalSeconds := viper.GetInt("rabbitmq.inbox.poll_interval_seconds")
	if pollIntervalSeconds == 0 {
		pollIntervalSeconds = 10
	}

	batchSize := viper.GetInt("rabbitmq.inbox.batch_size")
	if batchSize == 0 {
		batchSize = 50
	}

	return &Worker{
		inboxRepo:     inboxRepo,
		handler:       handler,
		pollInterval:  time.Duration(pollIntervalSeconds) * time.Second,
		batchSize:     batchSize,
		retryInterval: 30 * time.Second,
		stopCh:        make(chan struct{}),
		now:           time.Now,
	}
}

// Start begins processing messages from the inbox.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	slog.Info("Inbox worker started", "poll_interval", w.pollInterval, "batch_size", w.batchSize)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Inbox worker shutting down")

			return
		case <-w.stopCh:
			slog.Info("Inbox worker stopped")

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

// ProcessMessages runs one pass over the due inbox messages.
func (w *Worker) ProcessMessages(ctx context.Context) {
	messages, err := w.inboxRepo.GetPendingMessages(ctx, w.batchSize)
	if err != nil {
		slog.Error("Failed to get pending messages from inbox", "error", err)

		return
	}

	if len(messages) == 0 {
		return
	}

	slog.Info("Processing inbox messages", "count", len(messages))

	for _, msg := range messages {
		err := w.handler.HandleEvent(ctx, msg.MessageID, msg.Payload)
		if err == nil || errors.Is(err, notifysvc.ErrMalformed) {
			if err != nil {
				slog.Warn("Dropping malformed inbox message", "inbox_id", msg.ID, "message_id", msg.MessageID, "error", err)
			}
			if err := w.inboxRepo.Delete(ctx, msg.ID); err != nil {
				slog.Error("Failed to delete message from inbox", "inbox_id", msg.ID, "error", err)
			}

			continue
		}

		retryCount := msg.RetryCount + 1
		nextRetryAt := w.now().Add(time.Duration(math.Pow(2, float64(retryCount))) * w.retryInterval)
		if retryCount >= msg.MaxRetries {
			slog.Error("Inbox message exhausted its retries",
				"inbox_id", msg.ID,
				"message_id", msg.MessageID,
				"error", err,
			)
		} else {
			slog.Warn("Failed to process inbox message, will retry",
				"inbox_id", msg.ID,
				"retry_count", retryCount,
				"next_retry", nextRetryAt,
				"error", err,
			)
		}

		if err := w.inboxRepo.UpdateRetry(ctx, msg.ID, retryCount, err.Error(), nextRetryAt); err != nil {
			slog.Error("Failed to update retry information", "inbox_id", msg.ID, "error", err)
		}
	}
}

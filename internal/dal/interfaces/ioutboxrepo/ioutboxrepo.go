package ioutboxrepo

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/service/models/outbox"
)

// IOutboxRepository defines the interface for outbox operations.
type IOutboxRepository interface {
	// Insert stores messages, normally inside the transaction that produced them.
	Insert(ctx context.Context, msgs ...outbox.OutboxMessage) error

	// GetPendingMessages retrieves messages whose next attempt is due.
	GetPendingMessages(ctx context.Context, limit int) ([]outbox.OutboxMessage, error)

	// Delete removes delivered messages.
	Delete(ctx context.Context, ids ...int64) error

	UpdateRetry(
		ctx context.Context,
		id int64,
		retryCount int,
		lastError string,
		nextRetryAt time.Time,
	) error
}

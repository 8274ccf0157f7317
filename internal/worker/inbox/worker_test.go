package inbox

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/service/models/inbox"
	"github.com/corray333/backend-labs/storefront/internal/service/services/notifysvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type retry struct {
	id         int64
	retryCount int
	lastError  string
	next       time.Time
}

type fakeRepo struct {
	pending []inbox.InboxMessage
	deleted []int64
	retries []retry
}

func (r *fakeRepo) Insert(context.Context, inbox.InboxMessage) error { return nil }

func (r *fakeRepo) GetPendingMessages(context.Context, int) ([]inbox.InboxMessage, error) {
	return r.pending, nil
}

func (r *fakeRepo) Delete(_ context.Context, id int64) error {
	r.deleted = append(r.deleted, id)

	return nil
}

func (r *fakeRepo) UpdateRetry(_ context.Context, id int64, retryCount int, lastError string, next time.Time) error {
	r.retries = append(r.retries, retry{id: id, retryCount: retryCount, lastError: lastError, next: next})

	return nil
}

type handlerFunc func(ctx context.Context, messageID string, body []byte) error

func (f handlerFunc) HandleEvent(ctx context.Context, messageID string, body []byte) error {
	return f(ctx, messageID, body)
}

func TestProcessMessages(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeRepo{pending: []inbox.InboxMessage{
		{ID: 1, MessageID: "ok", MaxRetries: 5},
		{ID: 2, MessageID: "down", RetryCount: 1, MaxRetries: 5},
		{ID: 3, MessageID: "garbage", MaxRetries: 5},
	}}
	w := NewWorker(repo, handlerFunc(func(_ context.Context, id string, _ []byte) error {
		switch id {
		case "down":
			return errors.New("order service unavailable")
		case "garbage":
			return fmt.Errorf("%w: unexpected end of JSON input", notifysvc.ErrMalformed)
		default:
			return nil
		}
	}))
	w.now = func() time.Time { return now }

	w.ProcessMessages(context.Background())

	assert.Equal(t, []int64{1, 3}, repo.deleted)
	require.Len(t, repo.retries, 1)
	assert.Equal(t, int64(2), repo.retries[0].id)
	assert.Equal(t, 2, repo.retries[0].retryCount)
	assert.Equal(t, "order service unavailable", repo.retries[0].lastError)
	assert.Equal(t, now.Add(2*time.Minute), repo.retries[0].next)
}

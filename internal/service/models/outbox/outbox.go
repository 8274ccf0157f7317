package outbox

import (
	"strconv"
	"time"
)

// OutboxMessage is an event waiting to be published to RabbitMQ.
// It is written in the same transaction as the state change it describes.
type OutboxMessage struct {
	ID           int64
	QueueName    string
	ExchangeName string
	RoutingKey   string
	Payload      []byte
	ContentType  string
	RetryCount   int
	MaxRetries   int
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	NextRetryAt  time.Time
}

// MessageID is the AMQP message id used by consumers for deduplication.
func (m OutboxMessage) MessageID() string {
	return "outbox-" + strconv.FormatInt(m.ID, 10)
}

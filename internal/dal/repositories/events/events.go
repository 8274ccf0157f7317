package events

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/service/models/outbox"
	"github.com/streadway/amqp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

type publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, msg amqp.Publishing) error
}

// EventsRabbitMQRepository publishes outbox messages as persistent AMQP messages.
type EventsRabbitMQRepository struct {
	client publisher
	limit  int
}

func NewEventsRabbitMQRepository(client publisher) *EventsRabbitMQRepository {
	return &EventsRabbitMQRepository{
		client: client,
		limit:  3,
	}
}

// PublishBatch publishes msgs concurrently. errs[i] is the outcome of msgs[i].
func (r *EventsRabbitMQRepository) PublishBatch(ctx context.Context, msgs []outbox.OutboxMessage) []error {
	ctx, span := otel.Tracer("events").Start(ctx, "EventsRabbitMQRepository.PublishBatch")
	defer span.End()

	errs := make([]error, len(msgs))

	var g errgroup.Group
	g.SetLimit(r.limit)

	for i, msg := range msgs {
		g.Go(func() error {
			errs[i] = r.client.Publish(ctx, msg.ExchangeName, msg.RoutingKey, amqp.Publishing{
				ContentType:  msg.ContentType,
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.MessageID(),
				Type:         msg.RoutingKey,
				Timestamp:    time.Now().UTC(),
				Body:         msg.Payload,
			})

			return nil
		})
	}
	_ = g.Wait()

	return errs
}

package consumer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/dal/rabbitmq"
	"github.com/corray333/backend-labs/storefront/internal/service/models/inbox"
	"github.com/corray333/backend-labs/storefront/internal/service/services/notifysvc"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const bindingKey = "order.#"

type broker interface {
	DeclareExchange(name string) error
	DeclareQueue(cfg rabbitmq.DeclareQueueConfig) (amqp.Queue, error)
	BindQueue(queue, pattern, exchange string) error
	Qos(prefetch int) error
	Consume(cfg rabbitmq.ConsumeConfig) (<-chan amqp.Delivery, error)
}

// service represents the service layer interface.
type service interface {
	HandleEvent(ctx context.Context, messageID string, body []byte) error
}

type inboxRepo interface {
	Insert(ctx context.Context, msg inbox.InboxMessage) error
}

// Consumer reads order events from RabbitMQ and hands them to the service.
// A delivery that fails is parked in the inbox and acknowledged.
type Consumer struct {
	client     broker
	service    service
	inbox      inboxRepo
	queue      string
	tag        string
	maxRetries int
	now        func() time.Time

	wg   sync.WaitGroup
	stop chan struct{}
	done chan struct{}
}

// MustNewConsumer declares the exchange and queue and binds them.
func MustNewConsumer(client broker, service service, inbox inboxRepo) *Consumer {
	exchange := viper.GetString("rabbitmq.exchange")
	queueName := viper.GetString("rabbitmq.queue")
	if exchange == "" || queueName == "" {
		panic("rabbitmq.exchange and rabbitmq.queue must be set in config")
	}

	if err := client.DeclareExchange(exchange); err != nil {
		panic(err)
	}
	queue, err := client.DeclareQueue(rabbitmq.DeclareQueueConfig{
		Name:    queueName,
		Durable: true,
	})
	if err != nil {
		panic(err)
	}
	if err := client.BindQueue(queue.Name, bindingKey, exchange); err != nil {
		panic(err)
	}

	tag := viper.GetString("rabbitmq.consumer_tag")
	if tag == "" {
		tag = "notifier"
	}
	maxRetries := viper.GetInt("rabbitmq.inbox.max_retries")
	if maxRetries == 0 {
		maxRetries = 5
	}

	return &Consumer{
		client:     client,
		service:    service,
		inbox:      inbox,
		queue:      queue.Name,
		tag:        tag,
		maxRetries: maxRetries,
		now:        time.Now,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Run consumes until Shutdown is called or the channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	prefetch := viper.GetInt("rabbitmq.prefetch")
	if prefetch == 0 {
		prefetch = 20
	}
	if err := c.client.Qos(prefetch); err != nil {
		return err
	}

	msgs, err := c.client.Consume(rabbitmq.ConsumeConfig{
		Queue:    c.queue,
		Consumer: c.tag,
	})
	if err != nil {
		return err
	}

	slog.Info("Consumer started", "queue", c.queue, "consumer_tag", c.tag)

	defer close(c.done)
	for {
		select {
		case <-c.stop:
			slog.Info("Stopping consumer")
			c.wg.Wait()

			return nil
		case msg, ok := <-msgs:
			if !ok {
				slog.Info("Message channel closed")
				c.wg.Wait()

				return nil
			}

			c.wg.Add(1)
			go func() {
				defer c.wg.Done()
				c.processMessage(ctx, msg)
			}()
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg amqp.Delivery) {
	ctx, span := otel.Tracer("consumer").Start(ctx, "Consumer.processMessage")
	defer span.End()
	span.SetAttributes(
		attribute.String("messaging.message_id", msg.MessageId),
		attribute.String("messaging.routing_key", msg.RoutingKey),
	)

	err := c.service.HandleEvent(ctx, msg.MessageId, msg.Body)
	switch {
	case err == nil:
		slog.Info("Message processed", "message_id", msg.MessageId, "routing_key", msg.RoutingKey)
	case errors.Is(err, notifysvc.ErrMalformed):
		slog.Error("Rejecting malformed message", "message_id", msg.MessageId, "error", err)
		if err := msg.Nack(false, false); err != nil {
			slog.Error("Failed to nack message", "error", err)
		}

		return
	default:
		slog.Warn("Failed to process message, moving to inbox", "message_id", msg.MessageId, "error", err)
		if err := c.park(ctx, msg, err); err != nil {
			slog.Error("Failed to store message in inbox", "message_id", msg.MessageId, "error", err)
			if err := msg.Nack(false, true); err != nil {
				slog.Error("Failed to nack message", "error", err)
			}

			return
		}
	}

	if err := msg.Ack(false); err != nil {
		slog.Error("Failed to ack message", "error", err)
	}
}

func (c *Consumer) park(ctx context.Context, msg amqp.Delivery, cause error) error {
	now := c.now().UTC()

	return c.inbox.Insert(ctx, inbox.InboxMessage{
		MessageID:   msg.MessageId,
		QueueName:   c.queue,
		RoutingKey:  msg.RoutingKey,
		Payload:     msg.Body,
		ContentType: msg.ContentType,
		RetryCount:  0,
		MaxRetries:  c.maxRetries,
		LastError:   cause.Error(),
		CreatedAt:   now,
		UpdatedAt:   now,
		NextRetryAt: now,
		DeliveryTag: msg.DeliveryTag,
	})
}

// Shutdown stops consuming and waits for in-flight messages.
func (c *Consumer) Shutdown() error {
	slog.Info("Shutting down consumer")
	close(c.stop)

	select {
	case <-c.done:
		slog.Info("Consumer stopped successfully")
	case <-time.After(10 * time.Second):
		slog.Warn("Consumer shutdown timeout")
	}

	return nil
}

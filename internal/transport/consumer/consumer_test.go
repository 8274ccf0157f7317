package consumer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/dal/rabbitmq"
	"github.com/corray333/backend-labs/storefront/internal/service/models/inbox"
	"github.com/corray333/backend-labs/storefront/internal/service/services/notifysvc"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBroker struct {
	bound []string
	msgs  chan amqp.Delivery
}

func (b *fakeBroker) DeclareExchange(string) error { return nil }

func (b *fakeBroker) DeclareQueue(cfg rabbitmq.DeclareQueueConfig) (amqp.Queue, error) {
	return amqp.Queue{Name: cfg.Name}, nil
}

func (b *fakeBroker) BindQueue(queue, pattern, exchange string) error {
	b.bound = append(b.bound, exchange+"->"+queue+":"+pattern)

	return nil
}

func (b *fakeBroker) Qos(int) error { return nil }

func (b *fakeBroker) Consume(rabbitmq.ConsumeConfig) (<-chan amqp.Delivery, error) {
	return b.msgs, nil
}

type outcome struct {
	ack     bool
	requeue bool
}

type acker struct {
	mu       sync.Mutex
	outcomes map[uint64]outcome
}

func (a *acker) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.outcomes[tag] = outcome{ack: true}

	return nil
}

func (a *acker) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.outcomes[tag] = outcome{requeue: requeue}

	return nil
}

func (a *acker) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

type serviceFunc func(ctx context.Context, messageID string, body []byte) error

func (f serviceFunc) HandleEvent(ctx context.Context, messageID string, body []byte) error {
	return f(ctx, messageID, body)
}

type memInbox struct {
	mu    sync.Mutex
	items []inbox.InboxMessage
	err   error
}

func (m *memInbox) Insert(_ context.Context, msg inbox.InboxMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.items = append(m.items, msg)

	return nil
}

func TestConsumer(t *testing.T) {
	viper.Set("rabbitmq.exchange", "storefront.orders")
	viper.Set("rabbitmq.queue", "storefront.notifier")

	b := &fakeBroker{msgs: make(chan amqp.Delivery, 3)}
	box := &memInbox{}
	c := MustNewConsumer(b, serviceFunc(func(_ context.Context, id string, _ []byte) error {
		switch id {
		case "bad":
			return fmt.Errorf("%w: not json", notifysvc.ErrMalformed)
		case "later":
			return errors.New("order service unavailable")
		default:
			return nil
		}
	}), box)
	assert.Equal(t, []string{"storefront.orders->storefront.notifier:order.#"}, b.bound)

	ack := &acker{outcomes: map[uint64]outcome{}}
	for i, id := range []string{"ok", "bad", "later"} {
		b.msgs <- amqp.Delivery{
			Acknowledger: ack,
			DeliveryTag:  uint64(i + 1),
			MessageId:    id,
			RoutingKey:   "order.created",
			Body:         []byte(`{}`),
		}
	}
	close(b.msgs)

	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, outcome{ack: true}, ack.outcomes[1])
	nacked, ok := ack.outcomes[2]
	require.True(t, ok)
	assert.Equal(t, outcome{}, nacked)
	assert.Equal(t, outcome{ack: true}, ack.outcomes[3])

	require.Len(t, box.items, 1)
	assert.Equal(t, "later", box.items[0].MessageID)
	assert.Equal(t, "order.created", box.items[0].RoutingKey)
	assert.Equal(t, "order service unavailable", box.items[0].LastError)
	assert.Equal(t, 5, box.items[0].MaxRetries)
}

func TestConsumerRequeuesWhenInboxFails(t *testing.T) {
	viper.Set("rabbitmq.exchange", "storefront.orders")
	viper.Set("rabbitmq.queue", "storefront.notifier")

	b := &fakeBroker{msgs: make(chan amqp.Delivery, 1)}
	c := MustNewConsumer(b, serviceFunc(func(context.Context, string, []byte) error {
		return errors.New("timeout")
	}), &memInbox{err: errors.New("db down")})
	c.now = func() time.Time { return time.Unix(0, 0) }

	ack := &acker{outcomes: map[uint64]outcome{}}
	b.msgs <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 7, MessageId: "m"}
	close(b.msgs)

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, outcome{requeue: true}, ack.outcomes[7])
}

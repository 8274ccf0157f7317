// Package event defines the order events published through the outbox.
package event

import (
	"time"

	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"github.com/google/uuid"
)

// Type is also used as the AMQP routing key.
type Type string

const (
	TypeOrderCreated          Type = "order.created"
	TypeOrderPaymentConfirmed Type = "order.payment_confirmed"
	TypeOrderStatusChanged    Type = "order.status_changed"
	TypeOrderCancelled        Type = "order.cancelled"
	TypeOrderPaymentRefunded  Type = "order.payment_refunded"
)

// OrderEvent is the payload of every order event.
type OrderEvent struct {
	Type          Type           `json:"type"`
	OrderID       uuid.UUID      `json:"orderId"`
	OrderNumber   string         `json:"orderNumber"`
	Status        order.Status   `json:"status"`
	PaymentStatus payment.Status `json:"paymentStatus"`
	OccurredAt    time.Time      `json:"occurredAt"`
}

// FromOrder builds an event of type t describing o.
func FromOrder(t Type, o order.Order) OrderEvent {
	return OrderEvent{
		Type:          t,
		OrderID:       o.ID,
		OrderNumber:   o.Number,
		Status:        o.Status,
		PaymentStatus: o.Payment.Status,
		OccurredAt:    o.UpdatedAt,
	}
}

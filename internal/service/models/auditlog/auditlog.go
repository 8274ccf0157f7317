package auditlog

import (
	"time"

	"github.com/google/uuid"
)

// AuditLogOrder records one delivered order event.
type AuditLogOrder struct {
	ID            int64     `json:"id"`
	MessageID     string    `json:"messageId"`
	OrderID       uuid.UUID `json:"orderId"`
	OrderNumber   string    `json:"orderNumber"`
	EventType     string    `json:"eventType"`
	OrderStatus   string    `json:"orderStatus"`
	PaymentStatus string    `json:"paymentStatus"`
	CreatedAt     time.Time `json:"createdAt"`
}

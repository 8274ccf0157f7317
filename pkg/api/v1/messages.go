package v1

import "time"

type OrderItem struct {
	ProductId string `json:"productId,omitempty"`
	Name      string `json:"name"`
	Quantity  int32  `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
}

type Order struct {
	Id             string       `json:"id"`
	OrderNumber    string       `json:"orderNumber"`
	Status         string       `json:"status"`
	PaymentMethod  string       `json:"paymentMethod"`
	PaymentStatus  string       `json:"paymentStatus"`
	CustomerName   string       `json:"customerName"`
	CustomerEmail  string       `json:"customerEmail"`
	Total          string       `json:"total"`
	Currency       string       `json:"currency"`
	TrackingNumber string       `json:"trackingNumber,omitempty"`
	Items          []*OrderItem `json:"items"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

type GetOrderRequest struct {
	Identifier string `json:"identifier"`
}

type GetOrderResponse struct {
	Order *Order `json:"order"`
}

type UpdateStatusRequest struct {
	Identifier     string `json:"identifier"`
	Status         string `json:"status"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
}

type UpdateStatusResponse struct {
	Order *Order `json:"order"`
}

type AuditLog struct {
	MessageId     string    `json:"messageId"`
	OrderId       string    `json:"orderId"`
	OrderNumber   string    `json:"orderNumber"`
	EventType     string    `json:"eventType"`
	OrderStatus   string    `json:"orderStatus"`
	PaymentStatus string    `json:"paymentStatus"`
	CreatedAt     time.Time `json:"createdAt"`
}

type SaveAuditLogRequest struct {
	AuditLog *AuditLog `json:"auditLog"`
}

// SaveAuditLogResponse reports Saved=false for an already recorded message.
type SaveAuditLogResponse struct {
	Saved bool `json:"saved"`
}

package order

import (
	"github.com/corray333/backend-labs/storefront/internal/service/models/orderitem"
)

// Draft is the customer input an order is created from.
// PaymentMethod and Currency are raw strings so they can be reported as
// validation failures rather than decode errors.
type Draft struct {
	Customer      Customer              `json:"customer"`
	Shipping      ShippingAddress       `json:"shipping"`
	Items         []orderitem.OrderItem `json:"items"         validate:"required,min=1,dive"`
	PaymentMethod string                `json:"paymentMethod" validate:"required"`
	Currency      string                `json:"currency,omitempty"`
	Notes         string                `json:"notes,omitempty"`
}

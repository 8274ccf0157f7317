package order

import (
	"time"

	"github.com/corray333/backend-labs/storefront/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer identifies the buyer.
type Customer struct {
	FirstName string `json:"firstName" validate:"required,notblank"`
	LastName  string `json:"lastName"  validate:"required,notblank"`
	Email     string `json:"email"     validate:"required,email"`
	Phone     string `json:"phone"     validate:"required,notblank"`
}

// FullName returns the customer's first and last name.
func (c Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

// ShippingAddress is where the order is delivered.
type ShippingAddress struct {
	Address string `json:"address" validate:"required,notblank"`
	City    string `json:"city"    validate:"required,notblank"`
	State   string `json:"state"   validate:"required,notblank"`
	ZipCode string `json:"zipCode" validate:"required,notblank"`
	Country string `json:"country" validate:"required,notblank"`
	Notes   string `json:"notes,omitempty"`
}

// Totals is the price breakdown computed when the order is created.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// Order represents a customer order.
type Order struct {
	ID             uuid.UUID             `json:"id"`
	Number         string                `json:"orderNumber"`
	Customer       Customer              `json:"customer"`
	Shipping       ShippingAddress       `json:"shipping"`
	Items          []orderitem.OrderItem `json:"items"`
	Payment        payment.Payment       `json:"payment"`
	Totals         Totals                `json:"totals"`
	Status         Status                `json:"status"`
	TrackingNumber string                `json:"trackingNumber,omitempty"`
	Notes          string                `json:"notes,omitempty"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

// Patch holds the fields an operator may edit on an existing order.
// Totals, status and payment are not editable here.
type Patch struct {
	Customer       *Customer        `json:"customer,omitempty"`
	Shipping       *ShippingAddress `json:"shipping,omitempty"`
	Notes          *string          `json:"notes,omitempty"`
	TrackingNumber *string          `json:"trackingNumber,omitempty"`
}

// Stats summarises orders for the admin dashboard.
type Stats struct {
	TotalOrders     int             `json:"totalOrders"`
	ByStatus        map[Status]int  `json:"byStatus"`
	PendingPayments int             `json:"pendingPayments"`
	PaidOrders      int             `json:"paidOrders"`
	Revenue         decimal.Decimal `json:"revenue"`
}

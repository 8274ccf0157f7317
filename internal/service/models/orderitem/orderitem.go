package orderitem

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem represents a line item within an order.
type OrderItem struct {
	ID        int64           `json:"-"`
	OrderID   uuid.UUID       `json:"-"`
	Position  int             `json:"-"`
	ProductID string          `json:"productId,omitempty"`
	Name      string          `json:"name"              validate:"required,notblank"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"          validate:"gte=1"`
	Specs     string          `json:"specs,omitempty"`
}

// LineTotal returns unit price times quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

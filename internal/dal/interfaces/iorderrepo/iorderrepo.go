package iorderrepo

import (
	"context"
	"errors"

	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/google/uuid"
)

// ErrNumberTaken is returned by Insert when the order number already exists.
var ErrNumberTaken = errors.New("order number already taken")

// IOrderRepository is an interface for order postgres repository.
type IOrderRepository interface {
	Insert(ctx context.Context, o order.Order) error
	// GetByID locks the row for the rest of the transaction when forUpdate is set.
	GetByID(ctx context.Context, id uuid.UUID, forUpdate bool) (order.Order, error)
	GetByNumber(ctx context.Context, number string, forUpdate bool) (order.Order, error)
	Update(ctx context.Context, o order.Order) error
	Delete(ctx context.Context, id uuid.UUID) error
	Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)
	Count(ctx context.Context, filter *order.QueryOrdersModel) (int, error)
	Stats(ctx context.Context) (order.Stats, error)
}

package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/storefront/internal/dal/postgres"
	orderrepo "github.com/corray333/backend-labs/storefront/internal/dal/repositories/order/postgres"
	"github.com/corray333/backend-labs/storefront/internal/service/models/orderitem"
	"github.com/google/uuid"
)

var orderItemColumns = []string{
	"order_id",
	"position",
	"product_id",
	"name",
	"unit_price_cents",
	"quantity",
	"specs",
}

// OrderItemDal represents order item data access layer model.
type OrderItemDal struct {
	ID             int64     `db:"id"`
	OrderID        uuid.UUID `db:"order_id"`
	Position       int       `db:"position"`
	ProductID      string    `db:"product_id"`
	Name           string    `db:"name"`
	UnitPriceCents int64     `db:"unit_price_cents"`
	Quantity       int       `db:"quantity"`
	Specs          string    `db:"specs"`
}

// ToModel converts OrderItemDal to service layer OrderItem model.
func (oi *OrderItemDal) ToModel() orderitem.OrderItem {
	return orderitem.OrderItem{
		ID:        oi.ID,
		OrderID:   oi.OrderID,
		Position:  oi.Position,
		ProductID: oi.ProductID,
		Name:      oi.Name,
		UnitPrice: orderrepo.FromCents(oi.UnitPriceCents),
		Quantity:  oi.Quantity,
		Specs:     oi.Specs,
	}
}

// OrderItemDalFromModel converts service layer OrderItem model to OrderItemDal.
func OrderItemDalFromModel(oi orderitem.OrderItem) *OrderItemDal {
	return &OrderItemDal{
		ID:             oi.ID,
		OrderID:        oi.OrderID,
		Position:       oi.Position,
		ProductID:      oi.ProductID,
		Name:           oi.Name,
		UnitPriceCents: orderrepo.ToCents(oi.UnitPrice),
		Quantity:       oi.Quantity,
		Specs:          oi.Specs,
	}
}

// PostgresOrderItemRepository represents a Postgres order item repository.
type PostgresOrderItemRepository struct {
	conn postgres.GenericConn
}

// NewPostgresOrderItemRepository creates a new Postgres order item repository.
func NewPostgresOrderItemRepository(conn postgres.GenericConn) *PostgresOrderItemRepository {
	return &PostgresOrderItemRepository{
		conn: conn,
	}
}

// BulkInsert inserts all items of an order in a single statement.
func (r *PostgresOrderItemRepository) BulkInsert(
	ctx context.Context,
	orderItems []orderitem.OrderItem,
) error {
	if len(orderItems) == 0 {
		return nil
	}

	builder := sq.Insert("order_items").
		Columns(orderItemColumns...).
		PlaceholderFormat(sq.Dollar)

	for _, oi := range orderItems {
		dal := OrderItemDalFromModel(oi)
		builder = builder.Values(
			dal.OrderID,
			dal.Position,
			dal.ProductID,
			dal.Name,
			dal.UnitPriceCents,
			dal.Quantity,
			dal.Specs,
		)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to bulk insert order items: %w", err)
	}

	return nil
}

// Query retrieves order items based on filter criteria, in cart order.
func (r *PostgresOrderItemRepository) Query(
	ctx context.Context,
	filter *orderitem.QueryOrderItemsModel,
) ([]orderitem.OrderItem, error) {
	builder := sq.Select(append([]string{"id"}, orderItemColumns...)...).
		From("order_items").
		OrderBy("order_id", "position").
		PlaceholderFormat(sq.Dollar)

	if len(filter.OrderIds) > 0 {
		builder = builder.Where(sq.Eq{"order_id": filter.OrderIds})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	result := []orderitem.OrderItem{}
	for rows.Next() {
		var dal OrderItemDal
		err := rows.Scan(
			&dal.ID,
			&dal.OrderID,
			&dal.Position,
			&dal.ProductID,
			&dal.Name,
			&dal.UnitPriceCents,
			&dal.Quantity,
			&dal.Specs,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}

		result = append(result, dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

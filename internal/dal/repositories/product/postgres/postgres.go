package postgresrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/storefront/internal/apperr"
	"github.com/corray333/backend-labs/storefront/internal/dal/postgres"
	orderrepo "github.com/corray333/backend-labs/storefront/internal/dal/repositories/order/postgres"
	"github.com/corray333/backend-labs/storefront/internal/service/models/product"
)

var productColumns = []string{
	"id",
	"name",
	"description",
	"category",
	"price_cents",
	"dosage",
	"purity",
	"vial_size",
	"benefits",
	"stock",
	"is_available",
	"badge",
	"image",
	"created_at",
	"updated_at",
}

// ProductDal represents product data access layer model.
type ProductDal struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Category    string    `db:"category"`
	PriceCents  int64     `db:"price_cents"`
	Dosage      string    `db:"dosage"`
	Purity      string    `db:"purity"`
	VialSize    string    `db:"vial_size"`
	Benefits    []byte    `db:"benefits"`
	Stock       int       `db:"stock"`
	IsAvailable bool      `db:"is_available"`
	Badge       string    `db:"badge"`
	Image       string    `db:"image"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (p *ProductDal) scanTargets() []any {
	return []any{
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Category,
		&p.PriceCents,
		&p.Dosage,
		&p.Purity,
		&p.VialSize,
		&p.Benefits,
		&p.Stock,
		&p.IsAvailable,
		&p.Badge,
		&p.Image,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
}

// ToModel converts ProductDal to service layer Product model.
func (p *ProductDal) ToModel() (product.Product, error) {
	category, err := product.ParseCategory(p.Category)
	if err != nil {
		return product.Product{}, err
	}

	benefits := []string{}
	if len(p.Benefits) > 0 {
		if err := json.Unmarshal(p.Benefits, &benefits); err != nil {
			return product.Product{}, fmt.Errorf("failed to decode benefits: %w", err)
		}
	}

	return product.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    category,
		Price:       orderrepo.FromCents(p.PriceCents),
		Specs: product.Specs{
			Dosage:   p.Dosage,
			Purity:   p.Purity,
			VialSize: p.VialSize,
		},
		Benefits:    benefits,
		Stock:       p.Stock,
		IsAvailable: p.IsAvailable,
		Badge:       p.Badge,
		Image:       p.Image,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}, nil
}

// PostgresProductRepository represents a Postgres product repository.
type PostgresProductRepository struct {
	conn postgres.GenericConn
}

// NewPostgresProductRepository creates a new Postgres product repository.
func NewPostgresProductRepository(conn postgres.GenericConn) *PostgresProductRepository {
	return &PostgresProductRepository{
		conn: conn,
	}
}

// Query lists products by name, optionally narrowed by category and availability.
func (r *PostgresProductRepository) Query(
	ctx context.Context,
	filter *product.QueryProductsModel,
) ([]product.Product, error) {
	builder := sq.Select(productColumns...).
		From("products").
		OrderBy("name").
		PlaceholderFormat(sq.Dollar)

	if filter != nil {
		if filter.Category != "" {
			builder = builder.Where(sq.Eq{"category": string(filter.Category)})
		}
		if filter.Available != nil {
			builder = builder.Where(sq.Eq{"is_available": *filter.Available})
		}
	}

	return r.query(ctx, builder)
}

// GetByID returns the product with the given id.
func (r *PostgresProductRepository) GetByID(ctx context.Context, id string) (product.Product, error) {
	query, args, err := sq.Select(productColumns...).
		From("products").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return product.Product{}, fmt.Errorf("failed to build select query: %w", err)
	}

	var dal ProductDal
	if err := r.conn.QueryRowContext(ctx, query, args...).Scan(dal.scanTargets()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return product.Product{}, apperr.NotFound("product %s not found", id)
		}

		return product.Product{}, fmt.Errorf("failed to scan product: %w", err)
	}

	p, err := dal.ToModel()
	if err != nil {
		return product.Product{}, fmt.Errorf("failed to convert product dal to model: %w", err)
	}

	return p, nil
}

// GetByIDs loads every listed product with a single query.
func (r *PostgresProductRepository) GetByIDs(ctx context.Context, ids []string) (map[string]product.Product, error) {
	result := make(map[string]product.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	products, err := r.query(ctx, sq.Select(productColumns...).
		From("products").
		Where(sq.Eq{"id": ids}).
		PlaceholderFormat(sq.Dollar))
	if err != nil {
		return nil, err
	}

	for _, p := range products {
		result[p.ID] = p
	}

	return result, nil
}

// UpdateStock stores the stock level and availability of p.
func (r *PostgresProductRepository) UpdateStock(ctx context.Context, p product.Product) error {
	query, args, err := sq.Update("products").
		SetMap(map[string]any{
			"stock":        p.Stock,
			"is_available": p.IsAvailable,
			"updated_at":   p.UpdatedAt,
		}).
		Where(sq.Eq{"id": p.ID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	res, err := r.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update product stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound("product %s not found", p.ID)
	}

	return nil
}

func (r *PostgresProductRepository) query(ctx context.Context, builder sq.SelectBuilder) ([]product.Product, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	result := []product.Product{}
	for rows.Next() {
		var dal ProductDal
		if err := rows.Scan(dal.scanTargets()...); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}

		p, err := dal.ToModel()
		if err != nil {
			return nil, fmt.Errorf("failed to convert product dal to model: %w", err)
		}
		result = append(result, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	return result, nil
}

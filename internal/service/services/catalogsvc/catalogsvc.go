// Package catalogsvc serves the product catalog and its stock levels.
package catalogsvc

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/apperr"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iproductrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/postgres"
	productrepo "github.com/corray333/backend-labs/storefront/internal/dal/repositories/product/postgres"
	"github.com/corray333/backend-labs/storefront/internal/service/models/product"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("catalogsvc")

type CatalogService struct {
	products iproductrepo.IProductRepository
	now      func() time.Time
}

type option func(*CatalogService)

// MustNewCatalogService creates a new CatalogService.
func MustNewCatalogService(opts ...option) *CatalogService {
	s := &CatalogService{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if s.products == nil {
		panic("catalogsvc: product repository is required")
	}

	return s
}

// WithPostgresClient reads products from Postgres.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *CatalogService) {
		s.products = productrepo.NewPostgresProductRepository(pgClient.DB())
	}
}

// WithRepository sets the product repository.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithRepository(repo iproductrepo.IProductRepository) option {
	return func(s *CatalogService) {
		s.products = repo
	}
}

// ListProducts returns the catalog, optionally narrowed by filter.
func (s *CatalogService) ListProducts(ctx context.Context, filter product.QueryProductsModel) ([]product.Product, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.ListProducts")
	defer span.End()

	return s.products.Query(ctx, &filter)
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (product.Product, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.GetProduct")
	defer span.End()

	id = strings.TrimSpace(id)
	if id == "" {
		return product.Product{}, apperr.Validation("id")
	}

	return s.products.GetByID(ctx, id)
}

// UpdateStock sets the stock level of a product. Availability follows the
// stock: a product with none left cannot be ordered.
func (s *CatalogService) UpdateStock(ctx context.Context, id string, stock int) (product.Product, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.UpdateStock")
	defer span.End()

	if stock < 0 {
		return product.Product{}, apperr.Validation("stock")
	}

	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return product.Product{}, err
	}

	p.SetStock(stock)
	p.UpdatedAt = s.now().UTC()
	if err := s.products.UpdateStock(ctx, p); err != nil {
		return product.Product{}, err
	}

	slog.Info("Product stock updated", "product_id", p.ID, "stock", p.Stock, "available", p.IsAvailable)

	return p, nil
}

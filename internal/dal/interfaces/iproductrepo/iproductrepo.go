package iproductrepo

import (
	"context"

	"github.com/corray333/backend-labs/storefront/internal/service/models/product"
)

// IProductRepository is an interface for product postgres repository.
type IProductRepository interface {
	Query(ctx context.Context, filter *product.QueryProductsModel) ([]product.Product, error)
	GetByID(ctx context.Context, id string) (product.Product, error)
	// GetByIDs returns the products found, keyed by id. Unknown ids are absent.
	GetByIDs(ctx context.Context, ids []string) (map[string]product.Product, error)
	UpdateStock(ctx context.Context, p product.Product) error
}

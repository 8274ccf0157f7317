package product

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products in the storefront catalog.
type Category string

const (
	CategoryGrowth    Category = "growth"
	CategoryResearch  Category = "research"
	CategoryMetabolic Category = "metabolic"
)

// ErrInvalidCategory is returned by ParseCategory for unknown categories.
var ErrInvalidCategory = errors.New("invalid product category")

// ParseCategory converts a string to a Category.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryGrowth, CategoryResearch, CategoryMetabolic:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
}

// Specs describes one vial.
type Specs struct {
	Dosage   string `json:"dosage,omitempty"`
	Purity   string `json:"purity,omitempty"`
	VialSize string `json:"vialSize,omitempty"`
}

// Product is a catalog entry. Price is authoritative for new orders.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    Category        `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Specs       Specs           `json:"specs"`
	Benefits    []string        `json:"benefits"`
	Stock       int             `json:"stock"`
	IsAvailable bool            `json:"isAvailable"`
	Badge       string          `json:"badge,omitempty"`
	Image       string          `json:"image,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// SetStock replaces the stock level. A product with nothing left is no
// longer available.
func (p *Product) SetStock(stock int) {
	p.Stock = stock
	p.IsAvailable = stock > 0
}

// CanFulfil reports whether quantity units can be ordered.
func (p Product) CanFulfil(quantity int) bool {
	return p.IsAvailable && p.Stock >= quantity
}

// QueryProductsModel filters catalog listings.
type QueryProductsModel struct {
	Category  Category
	Available *bool
}

// Package pricing derives order totals from line items.
package pricing

import (
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/orderitem"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Default rates used when configuration leaves them unset.
var (
	DefaultTaxRate     = decimal.RequireFromString("0.13")
	DefaultShippingFee = decimal.RequireFromString("9.99")
)

// Calculator computes order totals. It holds no mutable state.
type Calculator struct {
	taxRate     decimal.Decimal
	shippingFee decimal.Decimal
}

// NewCalculator creates a Calculator with the given tax rate and flat shipping fee.
func NewCalculator(taxRate, shippingFee decimal.Decimal) *Calculator {
	return &Calculator{
		taxRate:     taxRate,
		shippingFee: shippingFee,
	}
}

// MustNewCalculatorFromConfig reads pricing.tax_rate and pricing.shipping_fee.
func MustNewCalculatorFromConfig() *Calculator {
	taxRate := DefaultTaxRate
	if s := viper.GetString("pricing.tax_rate"); s != "" {
		taxRate = decimal.RequireFromString(s)
	}

	shippingFee := DefaultShippingFee
	if s := viper.GetString("pricing.shipping_fee"); s != "" {
		shippingFee = decimal.RequireFromString(s)
	}

	if taxRate.IsNegative() || shippingFee.IsNegative() {
		panic("pricing: tax rate and shipping fee must not be negative")
	}

	return NewCalculator(taxRate, shippingFee)
}

// TaxRate returns the configured tax rate.
func (c *Calculator) TaxRate() decimal.Decimal {
	return c.taxRate
}

// Compute returns subtotal, tax, shipping and total for items.
// Tax is rounded half away from zero to cents.
func (c *Calculator) Compute(items []orderitem.OrderItem) order.Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}

	shipping := decimal.Zero
	if subtotal.IsPositive() {
		shipping = c.shippingFee
	}

	tax := subtotal.Mul(c.taxRate).Round(2)

	return order.Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}
}

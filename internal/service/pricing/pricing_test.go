package pricing

import (
	"math/rand"
	"testing"

	"github.com/corray333/backend-labs/storefront/internal/service/models/orderitem"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func item(price string, qty int) orderitem.OrderItem {
	return orderitem.OrderItem{Name: "peptide", UnitPrice: decimal.RequireFromString(price), Quantity: qty}
}

func TestComputeScenario(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(DefaultTaxRate, DefaultShippingFee)
	totals := calc.Compute([]orderitem.OrderItem{item("89.99", 2)})

	assert.Equal(t, "179.98", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "23.40", totals.Tax.StringFixed(2))
	assert.Equal(t, "9.99", totals.Shipping.StringFixed(2))
	assert.Equal(t, "213.37", totals.Total.StringFixed(2))
}

func TestComputeEmpty(t *testing.T) {
	t.Parallel()

	totals := NewCalculator(DefaultTaxRate, DefaultShippingFee).Compute(nil)

	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.Shipping.IsZero())
	assert.True(t, totals.Total.IsZero())
}

func TestComputeInvariants(t *testing.T) {
	t.Parallel()

	calc := NewCalculator(DefaultTaxRate, DefaultShippingFee)
	rnd := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		n := 1 + rnd.Intn(6)
		items := make([]orderitem.OrderItem, n)
		want := decimal.Zero
		for j := range items {
			cents := 1 + rnd.Int63n(50_000)
			qty := 1 + rnd.Intn(10)
			items[j] = orderitem.OrderItem{Name: "p", UnitPrice: decimal.New(cents, -2), Quantity: qty}
			want = want.Add(decimal.New(cents*int64(qty), -2))
		}

		totals := calc.Compute(items)

		assert.True(t, want.Equal(totals.Subtotal), "subtotal %s != %s", totals.Subtotal, want)
		assert.True(t, totals.Total.Equal(totals.Subtotal.Add(totals.Tax).Add(totals.Shipping)))
		assert.LessOrEqual(t, -totals.Tax.Exponent(), int32(2))
		assert.LessOrEqual(t, -totals.Total.Exponent(), int32(2))
	}
}

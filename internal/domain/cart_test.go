package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeTotals_SubtotalIsSumOfLines(t *testing.T) {
	lines := []CartLine{
		{LineID: "l1", UnitPrice: 250, Quantity: 1},
		{LineID: "l2", UnitPrice: 150, Quantity: 2},
	}

	totals := ComputeTotals(lines, PricingPolicy{FlatShipping: 50})

	assert.Equal(t, int64(550), totals.Subtotal)
	assert.Equal(t, int64(50), totals.Shipping)
	assert.Equal(t, int64(0), totals.Tax)
	assert.Equal(t, int64(600), totals.Total)
}

func TestComputeTotals_EmptyCart(t *testing.T) {
	totals := ComputeTotals(nil, PricingPolicy{FlatShipping: 50})

	assert.Equal(t, int64(0), totals.Subtotal)
	// No lines, no shipping charge.
	assert.Equal(t, int64(0), totals.Shipping)
	assert.Equal(t, int64(0), totals.Total)
}

func TestComputeTotals_FreeShippingThreshold(t *testing.T) {
	policy := PricingPolicy{FlatShipping: 50, FreeShippingThreshold: 500}

	below := ComputeTotals([]CartLine{{UnitPrice: 499, Quantity: 1}}, policy)
	assert.Equal(t, int64(50), below.Shipping)

	atThreshold := ComputeTotals([]CartLine{{UnitPrice: 500, Quantity: 1}}, policy)
	assert.Equal(t, int64(0), atThreshold.Shipping)
}

func TestComputeTotals_TaxBasisPoints(t *testing.T) {
	// 10% tax on a 1000 subtotal.
	policy := PricingPolicy{TaxRateBasisPoints: 1000}

	totals := ComputeTotals([]CartLine{{UnitPrice: 500, Quantity: 2}}, policy)

	assert.Equal(t, int64(1000), totals.Subtotal)
	assert.Equal(t, int64(100), totals.Tax)
	assert.Equal(t, int64(1100), totals.Total)
}

func TestFindLine_MatchesProductAndVariant(t *testing.T) {
	cart := &Cart{
		Lines: []CartLine{
			{LineID: "l1", ProductID: "p1", VariantID: ""},
			{LineID: "l2", ProductID: "p1", VariantID: "red"},
		},
	}

	assert.Equal(t, "l1", cart.FindLine("p1", "").LineID)
	assert.Equal(t, "l2", cart.FindLine("p1", "red").LineID)
	assert.Nil(t, cart.FindLine("p1", "blue"))
	assert.Nil(t, cart.FindLine("p2", ""))
}

func TestIsEmpty(t *testing.T) {
	var nilCart *Cart
	assert.True(t, nilCart.IsEmpty())
	assert.True(t, (&Cart{}).IsEmpty())
	assert.False(t, (&Cart{Lines: []CartLine{{LineID: "l1"}}}).IsEmpty())
}

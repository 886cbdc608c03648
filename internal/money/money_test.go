package money_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradecrew/tradecrew/internal/money"
)

func TestCalculateWorkedExample(t *testing.T) {
	// Subtotal $1,000, 10% discount, 8% tax, $200 deposit.
	items := []money.Line{
		{Quantity: 4, UnitAmount: 20000},
		{Quantity: 1, UnitAmount: 20000},
	}
	got := money.Calculate(items, money.Discount{Kind: money.DiscountPercent, Value: 10}, 8, 20000)

	assert.Equal(t, int64(100000), got.Subtotal)
	assert.Equal(t, int64(10000), got.DiscountAmount)
	assert.Equal(t, int64(90000), got.DiscountedSubtotal)
	assert.Equal(t, int64(7200), got.Tax)
	assert.Equal(t, int64(97200), got.Total)
	assert.Equal(t, int64(77200), got.TotalDue)
	assert.False(t, got.Deficit)
}

func TestCalculateOrderInvariance(t *testing.T) {
	items := []money.Line{
		{Quantity: 2.5, UnitAmount: 3333},
		{Quantity: 1, UnitAmount: 19999},
		{Quantity: 0.75, UnitAmount: 8401},
	}
	reversed := []money.Line{items[2], items[1], items[0]}

	discount := money.Discount{Kind: money.DiscountPercent, Value: 12.5}
	a := money.Calculate(items, discount, 7.25, 500)
	b := money.Calculate(reversed, discount, 7.25, 500)

	assert.Equal(t, a, b)
}

func TestCalculateIsPure(t *testing.T) {
	items := []money.Line{{Quantity: 3, UnitAmount: 1299}}
	discount := money.Discount{Kind: money.DiscountFixed, Value: 500}

	first := money.Calculate(items, discount, 5, 0)
	second := money.Calculate(items, discount, 5, 0)

	assert.Equal(t, first, second)
}

func TestCalculateNoPerLineRounding(t *testing.T) {
	// Ten lines of 0.333 x $1.00 each: per-line rounding would give 10x33=330,
	// unrounded summation gives round(333.0)=333.
	items := make([]money.Line, 10)
	for i := range items {
		items[i] = money.Line{Quantity: 0.333, UnitAmount: 100}
	}
	got := money.Calculate(items, money.Discount{}, 0, 0)
	assert.Equal(t, int64(333), got.Subtotal)
}

func TestCalculateDiscountClamped(t *testing.T) {
	items := []money.Line{{Quantity: 1, UnitAmount: 1000}}

	over := money.Calculate(items, money.Discount{Kind: money.DiscountFixed, Value: 5000}, 10, 0)
	assert.Equal(t, int64(1000), over.DiscountAmount)
	assert.Equal(t, int64(0), over.DiscountedSubtotal)
	assert.Equal(t, int64(0), over.Total)

	negative := money.Calculate(items, money.Discount{Kind: money.DiscountFixed, Value: -50}, 0, 0)
	assert.Equal(t, int64(0), negative.DiscountAmount)
}

func TestCalculateDeficit(t *testing.T) {
	items := []money.Line{{Quantity: 1, UnitAmount: 10000}}
	got := money.Calculate(items, money.Discount{}, 0, 15000)

	require.True(t, got.Deficit)
	assert.Equal(t, int64(0), got.TotalDue, "displayed amount due never goes negative")
}

func TestCalculateEmptyItems(t *testing.T) {
	got := money.Calculate(nil, money.Discount{Kind: money.DiscountPercent, Value: 10}, 8, 0)
	assert.Equal(t, money.Totals{}, got)
}

func TestLineTotal(t *testing.T) {
	assert.Equal(t, int64(333), money.LineTotal(3.33, 100))
	assert.Equal(t, int64(0), money.LineTotal(0, 500))
}

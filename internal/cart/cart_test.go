package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-service/internal/models"
)

func vodka() models.Product {
	// 614.04 at 18% tax
	return models.Product{
		ID:      1,
		Barcode: "731204012072",
		Name:    "ABSOLUT VODKA 50CL",
		Price:   61404,
		TaxRate: decimal.NewFromInt(18),
		Stock:   15,
	}
}

func raspberry() models.Product {
	return models.Product{
		ID:      2,
		Barcode: "731204235056",
		Name:    "ABSOLUT RASBERRY",
		Price:   28000,
		TaxRate: decimal.NewFromInt(18),
		Stock:   8,
	}
}

func TestAddItemComputesLineAndTotals(t *testing.T) {
	c := New()

	line, err := c.AddItem(vodka(), 1)
	require.NoError(t, err)

	assert.Equal(t, int64(61404), line.Total)
	assert.Equal(t, int64(11053), line.TaxAmount) // 614.04 * 18% = 110.5272 -> 110.53
	assert.Equal(t, int64(0), line.Discount)

	totals := c.Totals()
	assert.Equal(t, int64(61404), totals.Subtotal)
	assert.Equal(t, int64(11053), totals.Tax)
	assert.Equal(t, int64(72457), totals.Grand)
}

func TestAddItemMergesExistingLine(t *testing.T) {
	c := New()

	first, err := c.AddItem(vodka(), 1)
	require.NoError(t, err)

	second, err := c.AddItem(vodka(), 1)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 2, second.Quantity)
	assert.Equal(t, int64(122808), second.Total)
}

func TestAddItemRejectsInvalidInput(t *testing.T) {
	c := New()

	_, err := c.AddItem(vodka(), 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = c.AddItem(vodka(), -3)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	p := vodka()
	p.Price = -1
	_, err = c.AddItem(p, 1)
	assert.ErrorIs(t, err, ErrInvalidProduct)

	p = vodka()
	p.TaxRate = decimal.NewFromInt(101)
	_, err = c.AddItem(p, 1)
	assert.ErrorIs(t, err, ErrInvalidProduct)

	// rejected operations leave the cart untouched
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, Totals{}, c.Totals())
}

func TestUpdateQuantityToZeroRemovesLine(t *testing.T) {
	c := New()

	line, err := c.AddItem(vodka(), 1)
	require.NoError(t, err)
	_, err = c.AddItem(vodka(), 1)
	require.NoError(t, err)

	require.NoError(t, c.UpdateQuantity(line.ID, 0))

	assert.Equal(t, 0, c.Len())
	assert.Equal(t, StateEmpty, c.State())
	assert.Equal(t, Totals{}, c.Totals())
}

func TestUpdateQuantityRecomputesTax(t *testing.T) {
	c := New()

	line, err := c.AddItem(vodka(), 1)
	require.NoError(t, err)

	require.NoError(t, c.UpdateQuantity(line.ID, 3))

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, int64(3*61404), lines[0].Total)
	// 1842.12 * 18% = 331.5816 -> 331.58, not 3x the single-unit tax
	assert.Equal(t, int64(33158), lines[0].TaxAmount)
}

func TestUpdateQuantityUnknownLine(t *testing.T) {
	c := New()
	_, err := c.AddItem(vodka(), 1)
	require.NoError(t, err)

	before := c.Totals()
	assert.ErrorIs(t, c.UpdateQuantity(999, 5), ErrLineNotFound)
	assert.Equal(t, before, c.Totals())
	assert.Equal(t, 1, c.Len())
}

func TestRemoveItemUnknownLine(t *testing.T) {
	c := New()
	_, err := c.AddItem(vodka(), 1)
	require.NoError(t, err)

	assert.ErrorIs(t, c.RemoveItem(42), ErrLineNotFound)
	assert.Equal(t, 1, c.Len())
}

func TestClearResetsEverything(t *testing.T) {
	c := New()
	_, err := c.AddItem(vodka(), 2)
	require.NoError(t, err)
	_, err = c.AddItem(raspberry(), 1)
	require.NoError(t, err)
	require.NoError(t, c.SetCustomerPhone("5551234567"))

	c.Clear()

	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.CustomerPhone())
	assert.Equal(t, Totals{}, c.Totals())
	assert.Equal(t, StateEmpty, c.State())

	// idempotent
	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestTotalsIdempotentAndAggregated(t *testing.T) {
	c := New()
	_, err := c.AddItem(vodka(), 2)
	require.NoError(t, err)
	_, err = c.AddItem(raspberry(), 3)
	require.NoError(t, err)

	first := c.Totals()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, c.Totals())
	}

	var subtotal, tax int64
	for _, line := range c.Lines() {
		subtotal += line.Total
		tax += line.TaxAmount
	}
	assert.Equal(t, subtotal, first.Subtotal)
	assert.Equal(t, tax, first.Tax)
	assert.Equal(t, subtotal+tax, first.Grand)
}

func TestLineUniquenessPerProduct(t *testing.T) {
	c := New()
	for i := 0; i < 4; i++ {
		_, err := c.AddItem(vodka(), 1)
		require.NoError(t, err)
		_, err = c.AddItem(raspberry(), 1)
		require.NoError(t, err)
	}

	seen := map[int64]bool{}
	for _, line := range c.Lines() {
		assert.False(t, seen[line.ProductID], "duplicate line for product %d", line.ProductID)
		seen[line.ProductID] = true
	}
	assert.Equal(t, 2, c.Len())
}

func TestInsertionOrderPreserved(t *testing.T) {
	c := New()
	_, err := c.AddItem(vodka(), 1)
	require.NoError(t, err)
	_, err = c.AddItem(raspberry(), 1)
	require.NoError(t, err)
	// merging back into the first line must not reorder
	_, err = c.AddItem(vodka(), 1)
	require.NoError(t, err)

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, int64(1), lines[0].ProductID)
	assert.Equal(t, int64(2), lines[1].ProductID)
}

func TestFinalizingRejectsMutations(t *testing.T) {
	c := New()
	line, err := c.AddItem(vodka(), 1)
	require.NoError(t, err)

	require.NoError(t, c.BeginCheckout())
	assert.Equal(t, StateFinalizing, c.State())

	_, err = c.AddItem(raspberry(), 1)
	assert.ErrorIs(t, err, ErrCartFinalizing)
	assert.ErrorIs(t, c.UpdateQuantity(line.ID, 2), ErrCartFinalizing)
	assert.ErrorIs(t, c.RemoveItem(line.ID), ErrCartFinalizing)
	assert.ErrorIs(t, c.SetCustomerPhone("555"), ErrCartFinalizing)
	assert.ErrorIs(t, c.BeginCheckout(), ErrCartFinalizing)

	c.CancelCheckout()
	assert.Equal(t, StateActive, c.State())
	_, err = c.AddItem(raspberry(), 1)
	assert.NoError(t, err)
}

func TestBeginCheckoutOnEmptyCart(t *testing.T) {
	c := New()
	assert.ErrorIs(t, c.BeginCheckout(), ErrCartEmpty)
}

func TestCompleteCheckoutClearsCart(t *testing.T) {
	c := New()
	_, err := c.AddItem(vodka(), 1)
	require.NoError(t, err)
	require.NoError(t, c.BeginCheckout())

	c.CompleteCheckout()

	assert.Equal(t, StateEmpty, c.State())
	assert.Equal(t, 0, c.Len())

	// a fresh transaction can start immediately
	_, err = c.AddItem(raspberry(), 1)
	assert.NoError(t, err)
}

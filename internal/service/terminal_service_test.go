package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-service/internal/cart"
	"pos-service/internal/models"
)

type stubLookup struct {
	byBarcode map[string]models.Product
}

func (s *stubLookup) FindByBarcode(_ context.Context, barcode string) (*models.Product, error) {
	p, ok := s.byBarcode[barcode]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &p, nil
}

func (s *stubLookup) GetProductByID(_ context.Context, id int64) (*models.Product, error) {
	for _, p := range s.byBarcode {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, ErrProductNotFound
}

func testLookup() *stubLookup {
	return &stubLookup{byBarcode: map[string]models.Product{
		"731204012072": {
			ID: 1, Barcode: "731204012072", Name: "ABSOLUT VODKA 50CL",
			Price: 61404, TaxRate: decimal.NewFromInt(18), Stock: 15, IsActive: true,
		},
		"731204235056": {
			ID: 2, Barcode: "731204235056", Name: "ABSOLUT RASBERRY",
			Price: 28000, TaxRate: decimal.NewFromInt(18), Stock: 8, IsActive: true,
		},
		"000000000000": {
			ID: 3, Barcode: "000000000000", Name: "EMPTY SHELF",
			Price: 1000, TaxRate: decimal.NewFromInt(8), Stock: 0, IsActive: true,
		},
	}}
}

func TestScanBarcodeAddsToCart(t *testing.T) {
	ts := NewTerminalService(testLookup())
	ctx := context.Background()

	view, err := ts.ScanBarcode(ctx, "till-1", "731204012072", 1)
	require.NoError(t, err)

	require.Len(t, view.Lines, 1)
	assert.Equal(t, int64(61404), view.Totals.Subtotal)
	assert.Equal(t, int64(11053), view.Totals.Tax)
	assert.Equal(t, int64(72457), view.Totals.Grand)
	assert.Equal(t, cart.StateActive, view.State)
}

func TestScanBarcodeUnknownProduct(t *testing.T) {
	ts := NewTerminalService(testLookup())

	_, err := ts.ScanBarcode(context.Background(), "till-1", "999999", 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Equal(t, 0, len(ts.View("till-1").Lines))
}

func TestScanBarcodeOutOfStock(t *testing.T) {
	ts := NewTerminalService(testLookup())

	_, err := ts.ScanBarcode(context.Background(), "till-1", "000000000000", 1)
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.Equal(t, 0, len(ts.View("till-1").Lines))
}

func TestScanBarcodeMergesRepeatScans(t *testing.T) {
	ts := NewTerminalService(testLookup())
	ctx := context.Background()

	_, err := ts.ScanBarcode(ctx, "till-1", "731204012072", 1)
	require.NoError(t, err)
	view, err := ts.ScanBarcode(ctx, "till-1", "731204012072", 1)
	require.NoError(t, err)

	require.Len(t, view.Lines, 1)
	assert.Equal(t, 2, view.Lines[0].Quantity)
	assert.Equal(t, int64(122808), view.Lines[0].Total)
}

func TestTerminalsAreIsolated(t *testing.T) {
	ts := NewTerminalService(testLookup())
	ctx := context.Background()

	_, err := ts.ScanBarcode(ctx, "till-1", "731204012072", 1)
	require.NoError(t, err)
	_, err = ts.ScanBarcode(ctx, "till-2", "731204235056", 2)
	require.NoError(t, err)

	assert.Len(t, ts.View("till-1").Lines, 1)
	assert.Equal(t, int64(1), ts.View("till-1").Lines[0].ProductID)
	assert.Len(t, ts.View("till-2").Lines, 1)
	assert.Equal(t, int64(2), ts.View("till-2").Lines[0].ProductID)
}

func TestUpdateQuantityAndRemoveThroughService(t *testing.T) {
	ts := NewTerminalService(testLookup())
	ctx := context.Background()

	view, err := ts.ScanBarcode(ctx, "till-1", "731204012072", 1)
	require.NoError(t, err)
	lineID := view.Lines[0].ID

	view, err = ts.UpdateQuantity("till-1", lineID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, view.Lines[0].Quantity)

	_, err = ts.UpdateQuantity("till-1", 999, 4)
	assert.ErrorIs(t, err, cart.ErrLineNotFound)

	view, err = ts.RemoveLine("till-1", lineID)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Equal(t, cart.StateEmpty, view.State)
}

func TestClearCartResetsSession(t *testing.T) {
	ts := NewTerminalService(testLookup())
	ctx := context.Background()

	_, err := ts.ScanBarcode(ctx, "till-1", "731204012072", 1)
	require.NoError(t, err)
	require.NoError(t, ts.SetCustomerPhone("till-1", "5551234567"))

	ts.ClearCart("till-1")

	view := ts.View("till-1")
	assert.Empty(t, view.Lines)
	assert.Empty(t, view.CustomerPhone)
	assert.Equal(t, cart.Totals{}, view.Totals)
}

func TestConcurrentScansSerializePerTerminal(t *testing.T) {
	ts := NewTerminalService(testLookup())
	ctx := context.Background()

	const goroutines = 20
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			_, err := ts.ScanBarcode(ctx, "till-1", "731204012072", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	view := ts.View("till-1")
	require.Len(t, view.Lines, 1)
	assert.Equal(t, goroutines, view.Lines[0].Quantity)
	assert.Equal(t, int64(goroutines*61404), view.Totals.Subtotal)
}

func TestCheckoutStateBlocksScans(t *testing.T) {
	ts := NewTerminalService(testLookup())
	ctx := context.Background()

	_, err := ts.ScanBarcode(ctx, "till-1", "731204012072", 1)
	require.NoError(t, err)

	require.NoError(t, ts.WithCart("till-1", func(c *cart.Cart) error {
		return c.BeginCheckout()
	}))

	_, err = ts.ScanBarcode(ctx, "till-1", "731204235056", 1)
	assert.ErrorIs(t, err, cart.ErrCartFinalizing)

	require.NoError(t, ts.WithCart("till-1", func(c *cart.Cart) error {
		c.CancelCheckout()
		return nil
	}))

	_, err = ts.ScanBarcode(ctx, "till-1", "731204235056", 1)
	assert.NoError(t, err)
}

func TestManyTerminals(t *testing.T) {
	ts := NewTerminalService(testLookup())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := ts.ScanBarcode(ctx, fmt.Sprintf("till-%d", i), "731204235056", 1)
		require.NoError(t, err)
	}
	for i := 0; i < 10; i++ {
		assert.Len(t, ts.View(fmt.Sprintf("till-%d", i)).Lines, 1)
	}
}

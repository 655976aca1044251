package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pos-service/internal/cart"
	"pos-service/internal/models"
)

func TestFormatSaleNumber(t *testing.T) {
	ts := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, "S20240315-000042", formatSaleNumber(ts, 42))
}

func TestValidPaymentMethod(t *testing.T) {
	assert.True(t, validPaymentMethod(models.PaymentMethodCash))
	assert.True(t, validPaymentMethod(models.PaymentMethodCard))
	assert.True(t, validPaymentMethod(models.PaymentMethodBankTransfer))
	assert.True(t, validPaymentMethod(models.PaymentMethodMixed))
	assert.False(t, validPaymentMethod("bitcoin"))
	assert.False(t, validPaymentMethod(""))
}

func TestSumDiscounts(t *testing.T) {
	lines := []cart.Line{
		{Quantity: 2, Discount: 100},
		{Quantity: 3, Discount: 0},
		{Quantity: 1, Discount: 250},
	}
	assert.Equal(t, int64(2*100+250), sumDiscounts(lines))

	assert.Equal(t, int64(0), sumDiscounts(nil))
}

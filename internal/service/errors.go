package service

import "errors"

// Boundary errors. Stock gating happens here, at the catalog boundary, not
// inside the cart engine.
var (
	ErrProductNotFound      = errors.New("product not found")
	ErrOutOfStock           = errors.New("product is out of stock")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidInvoiceState  = errors.New("invalid invoice state for operation")
)

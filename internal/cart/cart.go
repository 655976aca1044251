// Package cart implements the in-memory model of one in-progress sale at a
// point-of-sale terminal. The engine is pure and synchronous: it performs no
// I/O, checks no stock, and assumes a single caller per cart (callers behind
// a shared boundary must serialize access themselves, see service.TerminalService).
package cart

import (
	"errors"

	"github.com/shopspring/decimal"

	"pos-service/internal/models"
)

var (
	// ErrInvalidQuantity is returned when a non-positive quantity is passed to AddItem.
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	// ErrInvalidProduct is returned for a negative price or a tax rate outside [0, 100].
	ErrInvalidProduct = errors.New("product has invalid price or tax rate")
	// ErrLineNotFound is returned when an operation targets a line id absent from the cart.
	ErrLineNotFound = errors.New("line item not found")
	// ErrCartEmpty is returned when checkout begins on an empty cart.
	ErrCartEmpty = errors.New("cart is empty")
	// ErrCartFinalizing is returned for mutations attempted while checkout is in progress.
	ErrCartFinalizing = errors.New("cart is finalizing")
)

// State describes the cart lifecycle: Empty -> Active -> Empty (cleared) or
// Finalizing (checkout in progress).
type State string

const (
	StateEmpty      State = "EMPTY"
	StateActive     State = "ACTIVE"
	StateFinalizing State = "FINALIZING"
)

// Line is one row of the cart, aggregating all quantity of a single product.
// Display data and the unit price are denormalized from the product at the
// time of first add. All amounts are in cents.
type Line struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Barcode   string          `json:"barcode"`
	Name      string          `json:"name"`
	UnitPrice int64           `json:"unit_price"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	Quantity  int             `json:"quantity"`
	Discount  int64           `json:"discount"`
	TaxAmount int64           `json:"tax_amount"`
	Total     int64           `json:"total"`
}

// Totals holds the derived cart totals in cents.
type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Tax      int64 `json:"tax"`
	Grand    int64 `json:"grand"`
}

// Cart owns the ordered line items of one transaction in progress.
type Cart struct {
	lines         []Line
	nextLineID    int64
	customerPhone string
	finalizing    bool
}

// New creates an empty cart.
func New() *Cart {
	return &Cart{nextLineID: 1}
}

// State reports the current lifecycle state.
func (c *Cart) State() State {
	switch {
	case c.finalizing:
		return StateFinalizing
	case len(c.lines) == 0:
		return StateEmpty
	default:
		return StateActive
	}
}

// Len returns the number of distinct line items.
func (c *Cart) Len() int {
	return len(c.lines)
}

// Lines returns a copy of the line items in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// CustomerPhone returns the optional customer reference.
func (c *Cart) CustomerPhone() string {
	return c.customerPhone
}

// SetCustomerPhone attaches a free-form customer reference to the cart.
func (c *Cart) SetCustomerPhone(phone string) error {
	if c.finalizing {
		return ErrCartFinalizing
	}
	c.customerPhone = phone
	return nil
}

// AddItem adds quantity of a product to the cart. If a line for the product
// already exists its quantity is incremented; exactly one line exists per
// product at any time. Stock is deliberately not checked here: gating against
// the catalog is the caller's responsibility.
func (c *Cart) AddItem(p models.Product, quantity int) (Line, error) {
	if c.finalizing {
		return Line{}, ErrCartFinalizing
	}
	if quantity <= 0 {
		return Line{}, ErrInvalidQuantity
	}
	if p.Price < 0 || p.TaxRate.IsNegative() || p.TaxRate.GreaterThan(decimal.NewFromInt(100)) {
		return Line{}, ErrInvalidProduct
	}

	for i := range c.lines {
		if c.lines[i].ProductID == p.ID {
			line := &c.lines[i]
			line.Quantity += quantity
			line.Total = int64(line.Quantity) * line.UnitPrice
			line.TaxAmount = taxAmount(line.UnitPrice, line.Quantity, line.TaxRate)
			return *line, nil
		}
	}

	line := Line{
		ID:        c.nextLineID,
		ProductID: p.ID,
		Barcode:   p.Barcode,
		Name:      p.Name,
		UnitPrice: p.Price,
		TaxRate:   p.TaxRate,
		Quantity:  quantity,
		Discount:  0,
		TaxAmount: taxAmount(p.Price, quantity, p.TaxRate),
		Total:     int64(quantity) * p.Price,
	}
	c.nextLineID++
	c.lines = append(c.lines, line)
	return line, nil
}

// UpdateQuantity sets the quantity of a line. A quantity of zero or below
// removes the line. Total and tax amount are both recomputed, so tax never
// goes stale relative to quantity.
func (c *Cart) UpdateQuantity(lineID int64, quantity int) error {
	if c.finalizing {
		return ErrCartFinalizing
	}
	if quantity <= 0 {
		return c.RemoveItem(lineID)
	}

	for i := range c.lines {
		if c.lines[i].ID == lineID {
			line := &c.lines[i]
			line.Quantity = quantity
			line.Total = int64(quantity) * line.UnitPrice
			line.TaxAmount = taxAmount(line.UnitPrice, quantity, line.TaxRate)
			return nil
		}
	}
	return ErrLineNotFound
}

// RemoveItem removes a line from the cart.
func (c *Cart) RemoveItem(lineID int64) error {
	if c.finalizing {
		return ErrCartFinalizing
	}
	for i := range c.lines {
		if c.lines[i].ID == lineID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return nil
		}
	}
	return ErrLineNotFound
}

// Clear resets the cart to its empty initial state, discarding any checkout
// in progress. Idempotent.
func (c *Cart) Clear() {
	c.lines = nil
	c.customerPhone = ""
	c.finalizing = false
	c.nextLineID = 1
}

// Totals recomputes the derived totals from the current lines. Pure: calling
// it any number of times without an intervening mutation yields the same
// result, and nothing is cached.
func (c *Cart) Totals() Totals {
	var t Totals
	for i := range c.lines {
		t.Subtotal += c.lines[i].Total
		t.Tax += c.lines[i].TaxAmount
	}
	t.Grand = t.Subtotal + t.Tax
	return t
}

// BeginCheckout moves the cart to the Finalizing state. Until the checkout
// completes or is cancelled, all mutations are rejected with ErrCartFinalizing.
func (c *Cart) BeginCheckout() error {
	if c.finalizing {
		return ErrCartFinalizing
	}
	if len(c.lines) == 0 {
		return ErrCartEmpty
	}
	c.finalizing = true
	return nil
}

// CancelCheckout returns a finalizing cart to the active state.
func (c *Cart) CancelCheckout() {
	c.finalizing = false
}

// CompleteCheckout discards the cart contents after a successful checkout.
func (c *Cart) CompleteCheckout() {
	c.Clear()
}

// taxAmount computes quantity * price * rate / 100 in cents, rounded half
// away from zero to whole cents.
func taxAmount(unitPrice int64, quantity int, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(unitPrice * int64(quantity)).
		Mul(rate).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}

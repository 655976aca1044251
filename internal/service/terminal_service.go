package service

import (
	"context"
	"fmt"
	"sync"

	"pos-service/internal/cart"
	"pos-service/internal/models"
	"pos-service/internal/util"

	"go.uber.org/zap"
)

// ProductLookup resolves products for the terminal. Implemented by
// CatalogService; tests substitute a stub.
type ProductLookup interface {
	FindByBarcode(ctx context.Context, barcode string) (*models.Product, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
}

// TerminalService owns the in-progress carts, one per terminal. The cart
// engine itself is single-threaded; this layer serializes access with one
// mutex per terminal session, as required when the engine sits behind a
// shared HTTP boundary.
type TerminalService struct {
	lookup ProductLookup
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*terminalSession
}

type terminalSession struct {
	mu   sync.Mutex
	cart *cart.Cart
}

// CartView is a read snapshot of one terminal's cart.
type CartView struct {
	TerminalID    string      `json:"terminal_id"`
	State         cart.State  `json:"state"`
	CustomerPhone string      `json:"customer_phone,omitempty"`
	Lines         []cart.Line `json:"lines"`
	Totals        cart.Totals `json:"totals"`
}

// NewTerminalService creates a new terminal service
func NewTerminalService(lookup ProductLookup) *TerminalService {
	return &TerminalService{
		lookup:   lookup,
		logger:   util.GetLogger(),
		sessions: make(map[string]*terminalSession),
	}
}

func (ts *TerminalService) session(terminalID string) *terminalSession {
	ts.mu.RLock()
	s, ok := ts.sessions[terminalID]
	ts.mu.RUnlock()
	if ok {
		return s
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	if s, ok = ts.sessions[terminalID]; ok {
		return s
	}
	s = &terminalSession{cart: cart.New()}
	ts.sessions[terminalID] = s
	return s
}

// WithCart runs fn with exclusive access to the terminal's cart.
func (ts *TerminalService) WithCart(terminalID string, fn func(c *cart.Cart) error) error {
	s := ts.session(terminalID)
	s.mu.Lock()
	defer s.mu.Unlock()

	wasEmpty := s.cart.State() == cart.StateEmpty
	err := fn(s.cart)
	isEmpty := s.cart.State() == cart.StateEmpty

	if wasEmpty && !isEmpty {
		util.ActiveCarts.Inc()
	} else if !wasEmpty && isEmpty {
		util.ActiveCarts.Dec()
	}
	return err
}

// ScanBarcode resolves a barcode and adds the product to the terminal's
// cart. Stock gating happens here: a product with no available stock is
// rejected with ErrOutOfStock before the cart is touched. Increments on a
// line already in the cart are not re-gated; checkout still verifies stock
// authoritatively.
func (ts *TerminalService) ScanBarcode(ctx context.Context, terminalID, barcode string, quantity int) (CartView, error) {
	ctx, span := util.StartSpan(ctx, "TerminalService.ScanBarcode")
	defer span.End()

	product, err := ts.lookup.FindByBarcode(ctx, barcode)
	if err != nil {
		return CartView{}, err
	}
	if product.Stock <= 0 {
		return CartView{}, fmt.Errorf("product %s: %w", barcode, ErrOutOfStock)
	}

	err = ts.WithCart(terminalID, func(c *cart.Cart) error {
		_, err := c.AddItem(*product, quantity)
		return err
	})
	if err != nil {
		return CartView{}, err
	}

	ts.logger.Debug("Product scanned",
		zap.String("terminal_id", terminalID),
		zap.String("barcode", barcode),
		zap.Int("quantity", quantity))

	return ts.View(terminalID), nil
}

// AddProduct adds a product to the cart by identifier (product grid path).
// Same stock gate as ScanBarcode.
func (ts *TerminalService) AddProduct(ctx context.Context, terminalID string, productID int64, quantity int) (CartView, error) {
	product, err := ts.lookup.GetProductByID(ctx, productID)
	if err != nil {
		return CartView{}, err
	}
	if product.Stock <= 0 {
		return CartView{}, fmt.Errorf("product %d: %w", productID, ErrOutOfStock)
	}

	err = ts.WithCart(terminalID, func(c *cart.Cart) error {
		_, err := c.AddItem(*product, quantity)
		return err
	})
	if err != nil {
		return CartView{}, err
	}
	return ts.View(terminalID), nil
}

// UpdateQuantity sets a line's quantity; zero or below removes the line.
func (ts *TerminalService) UpdateQuantity(terminalID string, lineID int64, quantity int) (CartView, error) {
	err := ts.WithCart(terminalID, func(c *cart.Cart) error {
		return c.UpdateQuantity(lineID, quantity)
	})
	if err != nil {
		return CartView{}, err
	}
	return ts.View(terminalID), nil
}

// RemoveLine removes a line from the cart.
func (ts *TerminalService) RemoveLine(terminalID string, lineID int64) (CartView, error) {
	err := ts.WithCart(terminalID, func(c *cart.Cart) error {
		return c.RemoveItem(lineID)
	})
	if err != nil {
		return CartView{}, err
	}
	return ts.View(terminalID), nil
}

// SetCustomerPhone attaches the optional customer reference.
func (ts *TerminalService) SetCustomerPhone(terminalID, phone string) error {
	return ts.WithCart(terminalID, func(c *cart.Cart) error {
		return c.SetCustomerPhone(phone)
	})
}

// ClearCart cancels the in-progress transaction.
func (ts *TerminalService) ClearCart(terminalID string) {
	_ = ts.WithCart(terminalID, func(c *cart.Cart) error {
		c.Clear()
		return nil
	})
}

// View returns a snapshot of the terminal's cart.
func (ts *TerminalService) View(terminalID string) CartView {
	var view CartView
	_ = ts.WithCart(terminalID, func(c *cart.Cart) error {
		view = CartView{
			TerminalID:    terminalID,
			State:         c.State(),
			CustomerPhone: c.CustomerPhone(),
			Lines:         c.Lines(),
			Totals:        c.Totals(),
		}
		return nil
	})
	return view
}

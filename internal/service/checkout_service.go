package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pos-service/internal/broker"
	"pos-service/internal/cart"
	"pos-service/internal/models"
	"pos-service/internal/redisclient"
	"pos-service/internal/store"
	"pos-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutService finalizes a terminal cart into a persisted sale. Recording
// the sale and decrementing stock happen in one database transaction, so a
// failure can never leave stock inconsistent with recorded sales.
type CheckoutService struct {
	store          *store.Store
	redis          *redisclient.Client
	terminal       *TerminalService
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	store *store.Store,
	redis *redisclient.Client,
	terminal *TerminalService,
	eventPublisher *broker.EventPublisher,
) *CheckoutService {
	return &CheckoutService{
		store:          store,
		redis:          redis,
		terminal:       terminal,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// CheckoutRequest represents a request to finalize a terminal's cart
type CheckoutRequest struct {
	TerminalID    string `json:"terminal_id" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"required"`
	CashierID     string `json:"cashier_id" binding:"required"`
}

// Checkout finalizes the cart of the given terminal. The cart enters the
// Finalizing state for the duration: concurrent mutations are rejected and
// the cart is restored to active if the checkout fails.
func (cs *CheckoutService) Checkout(ctx context.Context, req *CheckoutRequest) (*models.Sale, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Checkout")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	if !validPaymentMethod(req.PaymentMethod) {
		return nil, fmt.Errorf("%s: %w", req.PaymentMethod, ErrInvalidPaymentMethod)
	}

	var lines []cart.Line
	var totals cart.Totals
	var customerPhone string

	err := cs.terminal.WithCart(req.TerminalID, func(c *cart.Cart) error {
		if err := c.BeginCheckout(); err != nil {
			return err
		}
		lines = c.Lines()
		totals = c.Totals()
		customerPhone = c.CustomerPhone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	sale, err := cs.recordSale(ctx, req, lines, totals, customerPhone)
	if err != nil {
		_ = cs.terminal.WithCart(req.TerminalID, func(c *cart.Cart) error {
			c.CancelCheckout()
			return nil
		})
		return nil, err
	}

	// database committed; mirror the decrement into the stock cache
	for _, line := range lines {
		ok, err := cs.redis.DecrementStock(ctx, line.ProductID, line.Quantity)
		if err != nil || !ok {
			cs.logger.Warn("Stock cache decrement skipped",
				zap.Int64("product_id", line.ProductID),
				zap.Error(err))
		}
	}

	event := cs.buildSaleEvent(sale, req.TerminalID, lines)
	if err := cs.eventPublisher.PublishSaleCompleted(ctx, event); err != nil {
		cs.logger.Error("Failed to publish SaleCompleted event",
			zap.Int64("sale_id", sale.ID),
			zap.Error(err))
	}

	_ = cs.terminal.WithCart(req.TerminalID, func(c *cart.Cart) error {
		c.CompleteCheckout()
		return nil
	})

	util.SalesCompletedTotal.WithLabelValues(req.PaymentMethod).Inc()
	util.SaleAmountCents.Observe(float64(sale.TotalAmount))
	cs.logger.Info("Sale completed",
		zap.Int64("sale_id", sale.ID),
		zap.String("sale_number", sale.SaleNumber),
		zap.String("terminal_id", req.TerminalID),
		zap.Int64("total", sale.TotalAmount))

	return sale, nil
}

func (cs *CheckoutService) recordSale(ctx context.Context, req *CheckoutRequest, lines []cart.Line, totals cart.Totals, customerPhone string) (*models.Sale, error) {
	var customerID *int64
	if customerPhone != "" {
		customer, err := cs.store.GetCustomerByPhone(ctx, customerPhone)
		if err != nil {
			cs.logger.Warn("Customer lookup failed",
				zap.String("phone", customerPhone),
				zap.Error(err))
		} else if customer != nil {
			customerID = &customer.ID
		}
	}

	seq, err := cs.store.NextSaleNumber(ctx)
	if err != nil {
		util.SalesFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to allocate sale number: %w", err)
	}

	sale := &models.Sale{
		SaleNumber:     formatSaleNumber(time.Now(), seq),
		CustomerID:     customerID,
		TotalAmount:    totals.Grand,
		TaxAmount:      totals.Tax,
		DiscountAmount: sumDiscounts(lines),
		PaymentMethod:  req.PaymentMethod,
		Status:         models.SaleStatusCompleted,
		CashierID:      req.CashierID,
	}

	items := make([]models.SaleItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.SaleItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Discount:  line.Discount,
			TaxAmount: line.TaxAmount,
			Total:     line.Total,
		})
	}

	if err := cs.store.RecordSaleTx(ctx, sale, items); err != nil {
		if errors.Is(err, store.ErrInsufficientStock) {
			util.SalesFailedTotal.WithLabelValues("insufficient_stock").Inc()
		} else {
			util.SalesFailedTotal.WithLabelValues("db_error").Inc()
		}
		return nil, fmt.Errorf("failed to record sale: %w", err)
	}

	return sale, nil
}

// RefundSale marks a completed sale refunded and returns its items to stock.
func (cs *CheckoutService) RefundSale(ctx context.Context, saleID int64) error {
	ctx, span := util.StartSpan(ctx, "CheckoutService.RefundSale")
	defer span.End()

	sale, err := cs.store.GetSaleByID(ctx, saleID)
	if err != nil {
		return err
	}
	if sale.Status != models.SaleStatusCompleted {
		return fmt.Errorf("sale %d is not completed", saleID)
	}

	items, err := cs.store.GetSaleItems(ctx, saleID)
	if err != nil {
		return err
	}

	if err := cs.store.UpdateSaleStatus(ctx, saleID, models.SaleStatusRefunded); err != nil {
		return fmt.Errorf("failed to update sale status: %w", err)
	}

	for _, item := range items {
		newStock, err := cs.store.AdjustStockTx(ctx, item.ProductID, item.Quantity)
		if err != nil {
			cs.logger.Error("Failed to restock refunded item",
				zap.Int64("sale_id", saleID),
				zap.Int64("product_id", item.ProductID),
				zap.Error(err))
			continue
		}
		if err := cs.redis.Restock(ctx, item.ProductID, item.Quantity); err != nil {
			cs.logger.Warn("Stock cache restock failed",
				zap.Int64("product_id", item.ProductID),
				zap.Error(err))
		}

		event := &models.StockAdjustedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeStockAdjusted,
				Timestamp: time.Now(),
			},
			ProductID: item.ProductID,
			Delta:     item.Quantity,
			NewStock:  newStock,
			Reason:    "sale_refunded",
		}
		if err := cs.eventPublisher.PublishStockAdjusted(ctx, event); err != nil {
			cs.logger.Error("Failed to publish StockAdjusted event", zap.Error(err))
		}
	}

	cs.logger.Info("Sale refunded", zap.Int64("sale_id", saleID))
	return nil
}

// ListSales retrieves sales within [from, to), newest first
func (cs *CheckoutService) ListSales(ctx context.Context, from, to time.Time) ([]models.Sale, error) {
	return cs.store.GetSales(ctx, from, to)
}

// GetSale retrieves a sale with its items
func (cs *CheckoutService) GetSale(ctx context.Context, saleID int64) (*models.Sale, []models.SaleItem, error) {
	sale, err := cs.store.GetSaleByID(ctx, saleID)
	if err != nil {
		return nil, nil, err
	}

	items, err := cs.store.GetSaleItems(ctx, saleID)
	if err != nil {
		return nil, nil, err
	}

	return sale, items, nil
}

func (cs *CheckoutService) buildSaleEvent(sale *models.Sale, terminalID string, lines []cart.Line) *models.SaleCompletedEvent {
	items := make([]models.SaleItemData, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.SaleItemData{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			TaxAmount: line.TaxAmount,
			Total:     line.Total,
		})
	}

	return &models.SaleCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeSaleCompleted,
			Timestamp: time.Now(),
		},
		SaleID:        sale.ID,
		SaleNumber:    sale.SaleNumber,
		TerminalID:    terminalID,
		CashierID:     sale.CashierID,
		CustomerID:    sale.CustomerID,
		TotalAmount:   sale.TotalAmount,
		TaxAmount:     sale.TaxAmount,
		PaymentMethod: sale.PaymentMethod,
		Items:         items,
	}
}

func validPaymentMethod(method string) bool {
	switch method {
	case models.PaymentMethodCash, models.PaymentMethodCard,
		models.PaymentMethodBankTransfer, models.PaymentMethodMixed:
		return true
	}
	return false
}

func formatSaleNumber(t time.Time, seq int64) string {
	return fmt.Sprintf("S%s-%06d", t.Format("20060102"), seq)
}

func sumDiscounts(lines []cart.Line) int64 {
	var total int64
	for _, line := range lines {
		total += line.Discount * int64(line.Quantity)
	}
	return total
}

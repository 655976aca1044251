package service

import (
	"context"
	"fmt"
	"time"

	"pos-service/internal/broker"
	"pos-service/internal/models"
	"pos-service/internal/redisclient"
	"pos-service/internal/store"
	"pos-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InvoiceService manages supplier purchase invoices. Approving an invoice
// applies its stock increments and recalculates each product's weighted
// average cost in one database transaction.
type InvoiceService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(store *store.Store, redis *redisclient.Client, eventPublisher *broker.EventPublisher) *InvoiceService {
	return &InvoiceService{
		store:          store,
		redis:          redis,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// CreateInvoiceRequest represents manual invoice intake
type CreateInvoiceRequest struct {
	InvoiceNumber string               `json:"invoice_number" binding:"required"`
	SupplierID    int64                `json:"supplier_id" binding:"required"`
	TaxAmount     int64                `json:"tax_amount"`
	Items         []InvoiceItemRequest `json:"items" binding:"required,min=1"`
}

// InvoiceItemRequest represents one line of an incoming invoice
type InvoiceItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
	UnitCost  int64 `json:"unit_cost" binding:"required,min=0"`
}

// CreateInvoice records a pending invoice. Stock is not touched until the
// invoice is approved.
func (is *InvoiceService) CreateInvoice(ctx context.Context, req *CreateInvoiceRequest) (*models.Invoice, error) {
	ctx, span := util.StartSpan(ctx, "InvoiceService.CreateInvoice")
	defer span.End()

	if _, err := is.store.GetSupplierByID(ctx, req.SupplierID); err != nil {
		return nil, err
	}

	items := make([]models.InvoiceItem, 0, len(req.Items))
	var total int64
	for _, item := range req.Items {
		if _, err := is.store.GetProductByID(ctx, item.ProductID); err != nil {
			return nil, fmt.Errorf("invoice references unknown product %d: %w", item.ProductID, ErrProductNotFound)
		}
		lineTotal := item.UnitCost * int64(item.Quantity)
		total += lineTotal
		items = append(items, models.InvoiceItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitCost:  item.UnitCost,
			TotalCost: lineTotal,
		})
	}

	invoice := &models.Invoice{
		InvoiceNumber: req.InvoiceNumber,
		SupplierID:    req.SupplierID,
		TotalAmount:   total + req.TaxAmount,
		TaxAmount:     req.TaxAmount,
		Status:        models.InvoiceStatusPending,
	}

	if err := is.store.CreateInvoiceTx(ctx, invoice, items); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	is.logger.Info("Invoice created",
		zap.Int64("invoice_id", invoice.ID),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.Int64("total", invoice.TotalAmount))

	return invoice, nil
}

// ApproveInvoice transitions a pending invoice to approved and applies its
// stock updates: each product's stock grows by the invoiced quantity and its
// cost becomes the weighted average of existing and incoming stock.
func (is *InvoiceService) ApproveInvoice(ctx context.Context, invoiceID int64, approvedBy string) error {
	ctx, span := util.StartSpan(ctx, "InvoiceService.ApproveInvoice")
	defer span.End()

	start := time.Now()
	defer func() {
		util.InvoiceApprovalLatency.Observe(time.Since(start).Seconds())
	}()

	invoice, err := is.store.GetInvoiceByID(ctx, invoiceID)
	if err != nil {
		return err
	}
	if invoice.Status != models.InvoiceStatusPending {
		return fmt.Errorf("invoice %d is %s: %w", invoiceID, invoice.Status, ErrInvalidInvoiceState)
	}

	items, err := is.store.GetInvoiceItems(ctx, invoiceID)
	if err != nil {
		return err
	}

	updates := make([]store.StockUpdate, 0, len(items))
	for _, item := range items {
		product, err := is.store.GetProductByID(ctx, item.ProductID)
		if err != nil {
			return fmt.Errorf("invoice item references unknown product %d: %w", item.ProductID, err)
		}

		updates = append(updates, store.StockUpdate{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			PreviousCost:   product.Cost,
			NewAverageCost: weightedAverageCost(product.Stock, product.Cost, item.Quantity, item.UnitCost),
			NewStock:       product.Stock + item.Quantity,
		})
	}

	if err := is.store.ApproveInvoiceTx(ctx, invoiceID, approvedBy, updates); err != nil {
		return fmt.Errorf("failed to approve invoice: %w", err)
	}

	util.InvoicesApprovedTotal.Inc()

	for _, u := range updates {
		if err := is.redis.Restock(ctx, u.ProductID, u.Quantity); err != nil {
			is.logger.Warn("Stock cache restock failed",
				zap.Int64("product_id", u.ProductID),
				zap.Error(err))
		}

		event := &models.StockAdjustedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeStockAdjusted,
				Timestamp: time.Now(),
			},
			ProductID: u.ProductID,
			Delta:     u.Quantity,
			NewStock:  u.NewStock,
			Reason:    "invoice_approved",
		}
		if err := is.eventPublisher.PublishStockAdjusted(ctx, event); err != nil {
			is.logger.Error("Failed to publish StockAdjusted event", zap.Error(err))
		}
	}

	approvedEvent := &models.InvoiceApprovedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeInvoiceApproved,
			Timestamp: time.Now(),
		},
		InvoiceID:     invoice.ID,
		InvoiceNumber: invoice.InvoiceNumber,
		SupplierID:    invoice.SupplierID,
		TotalAmount:   invoice.TotalAmount,
		ApprovedBy:    approvedBy,
	}
	if err := is.eventPublisher.PublishInvoiceApproved(ctx, approvedEvent); err != nil {
		is.logger.Error("Failed to publish InvoiceApproved event", zap.Error(err))
	}

	is.logger.Info("Invoice approved",
		zap.Int64("invoice_id", invoiceID),
		zap.String("approved_by", approvedBy),
		zap.Int("items", len(updates)))

	return nil
}

// MarkProcessed transitions an approved invoice to processed.
func (is *InvoiceService) MarkProcessed(ctx context.Context, invoiceID int64) error {
	invoice, err := is.store.GetInvoiceByID(ctx, invoiceID)
	if err != nil {
		return err
	}
	if invoice.Status != models.InvoiceStatusApproved {
		return fmt.Errorf("invoice %d is %s: %w", invoiceID, invoice.Status, ErrInvalidInvoiceState)
	}
	return is.store.MarkInvoiceProcessed(ctx, invoiceID)
}

// ListInvoices retrieves invoices, optionally filtered by status
func (is *InvoiceService) ListInvoices(ctx context.Context, status string) ([]models.Invoice, error) {
	return is.store.GetInvoices(ctx, status)
}

// GetInvoice retrieves an invoice with its items
func (is *InvoiceService) GetInvoice(ctx context.Context, invoiceID int64) (*models.Invoice, []models.InvoiceItem, error) {
	invoice, err := is.store.GetInvoiceByID(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	items, err := is.store.GetInvoiceItems(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	return invoice, items, nil
}

// weightedAverageCost blends the existing stock valuation with an incoming
// batch: (stock*cost + qty*unitCost) / (stock + qty), rounded to whole
// cents. With no existing stock the incoming unit cost wins outright.
func weightedAverageCost(stock int, cost int64, quantity int, unitCost int64) int64 {
	if stock <= 0 {
		return unitCost
	}
	existing := decimal.NewFromInt(int64(stock)).Mul(decimal.NewFromInt(cost))
	incoming := decimal.NewFromInt(int64(quantity)).Mul(decimal.NewFromInt(unitCost))
	return existing.Add(incoming).
		Div(decimal.NewFromInt(int64(stock + quantity))).
		Round(0).
		IntPart()
}

package worker

import (
	"context"
	"log"
	"time"

	"pos-service/internal/broker"
	"pos-service/internal/models"
	"pos-service/internal/store"
	"pos-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StockAlertWorker watches completed sales and publishes a low-stock alert
// for any product that drops to or below its critical level.
type StockAlertWorker struct {
	consumer       *broker.Consumer
	eventHandler   *broker.EventHandler
	store          *store.Store
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewStockAlertWorker creates a new stock alert worker
func NewStockAlertWorker(
	consumer *broker.Consumer,
	store *store.Store,
	eventPublisher *broker.EventPublisher,
) *StockAlertWorker {
	w := &StockAlertWorker{
		consumer:       consumer,
		store:          store,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnSaleCompleted(w.handleSaleCompleted)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *StockAlertWorker) Start(ctx context.Context) error {
	log.Println("Starting stock alert worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop closes the worker's consumer
func (w *StockAlertWorker) Stop() {
	if err := w.consumer.Close(); err != nil {
		w.logger.Error("Failed to close stock alert consumer", zap.Error(err))
	}
}

func (w *StockAlertWorker) handleSaleCompleted(ctx context.Context, event *models.SaleCompletedEvent) error {
	for _, item := range event.Items {
		product, err := w.store.GetProductByID(ctx, item.ProductID)
		if err != nil {
			w.logger.Error("Failed to load product for stock check",
				zap.Int64("product_id", item.ProductID),
				zap.Error(err))
			continue
		}

		if product.Stock > product.CriticalStock {
			continue
		}

		alert := &models.LowStockEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeLowStock,
				Timestamp: time.Now(),
			},
			ProductID:     product.ID,
			Barcode:       product.Barcode,
			Name:          product.Name,
			Stock:         product.Stock,
			CriticalStock: product.CriticalStock,
		}

		if err := w.eventPublisher.PublishLowStock(ctx, alert); err != nil {
			w.logger.Error("Failed to publish LowStock event",
				zap.Int64("product_id", product.ID),
				zap.Error(err))
			continue
		}

		util.StockAlertsTotal.Inc()
		w.logger.Warn("Low stock alert",
			zap.Int64("product_id", product.ID),
			zap.String("name", product.Name),
			zap.Int("stock", product.Stock),
			zap.Int("critical_stock", product.CriticalStock))
	}

	return nil
}

// CustomerStatsWorker accumulates completed sale totals onto customer
// records. Processing is idempotent via the processed_events table, so a
// redelivered event never double-counts a purchase.
type CustomerStatsWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        *store.Store
	logger       *zap.Logger
}

// NewCustomerStatsWorker creates a new customer stats worker
func NewCustomerStatsWorker(consumer *broker.Consumer, store *store.Store) *CustomerStatsWorker {
	w := &CustomerStatsWorker{
		consumer: consumer,
		store:    store,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnSaleCompleted(w.handleSaleCompleted)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *CustomerStatsWorker) Start(ctx context.Context) error {
	log.Println("Starting customer stats worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop closes the worker's consumer
func (w *CustomerStatsWorker) Stop() {
	if err := w.consumer.Close(); err != nil {
		w.logger.Error("Failed to close customer stats consumer", zap.Error(err))
	}
}

func (w *CustomerStatsWorker) handleSaleCompleted(ctx context.Context, event *models.SaleCompletedEvent) error {
	if event.CustomerID == nil {
		return nil
	}

	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return err
	}
	if processed {
		return nil
	}

	if err := w.store.AddCustomerPurchase(ctx, *event.CustomerID, event.TotalAmount); err != nil {
		w.logger.Error("Failed to update customer purchases",
			zap.Int64("customer_id", *event.CustomerID),
			zap.Error(err))
		return err
	}

	if err := w.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		return err
	}

	w.logger.Info("Customer purchases updated",
		zap.Int64("customer_id", *event.CustomerID),
		zap.Int64("amount", event.TotalAmount))
	return nil
}

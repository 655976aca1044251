package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"pos-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	sales *Producer
	stock *Producer
}

// NewEventPublisher creates a new event publisher. Sale events and stock
// events go to separate topics.
func NewEventPublisher(sales, stock *Producer) *EventPublisher {
	return &EventPublisher{sales: sales, stock: stock}
}

// PublishSaleCompleted publishes a SaleCompleted event
func (ep *EventPublisher) PublishSaleCompleted(ctx context.Context, event *models.SaleCompletedEvent) error {
	key := fmt.Sprintf("sale-%d", event.SaleID)
	return ep.sales.PublishEvent(ctx, key, event)
}

// PublishStockAdjusted publishes a StockAdjusted event
func (ep *EventPublisher) PublishStockAdjusted(ctx context.Context, event *models.StockAdjustedEvent) error {
	key := fmt.Sprintf("product-%d", event.ProductID)
	return ep.stock.PublishEvent(ctx, key, event)
}

// PublishInvoiceApproved publishes an InvoiceApproved event
func (ep *EventPublisher) PublishInvoiceApproved(ctx context.Context, event *models.InvoiceApprovedEvent) error {
	key := fmt.Sprintf("invoice-%d", event.InvoiceID)
	return ep.stock.PublishEvent(ctx, key, event)
}

// PublishLowStock publishes a LowStock event
func (ep *EventPublisher) PublishLowStock(ctx context.Context, event *models.LowStockEvent) error {
	key := fmt.Sprintf("product-%d", event.ProductID)
	return ep.stock.PublishEvent(ctx, key, event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onSaleCompleted   func(context.Context, *models.SaleCompletedEvent) error
	onInvoiceApproved func(context.Context, *models.InvoiceApprovedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnSaleCompleted registers a handler for SaleCompleted events
func (eh *EventHandler) OnSaleCompleted(handler func(context.Context, *models.SaleCompletedEvent) error) {
	eh.onSaleCompleted = handler
}

// OnInvoiceApproved registers a handler for InvoiceApproved events
func (eh *EventHandler) OnInvoiceApproved(handler func(context.Context, *models.InvoiceApprovedEvent) error) {
	eh.onInvoiceApproved = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	log.Printf("Handling event: type=%s, id=%s", baseEvent.EventType, baseEvent.EventID)

	switch baseEvent.EventType {
	case models.EventTypeSaleCompleted:
		if eh.onSaleCompleted != nil {
			var event models.SaleCompletedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal SaleCompleted event: %w", err)
			}
			return eh.onSaleCompleted(ctx, &event)
		}

	case models.EventTypeInvoiceApproved:
		if eh.onInvoiceApproved != nil {
			var event models.InvoiceApprovedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal InvoiceApproved event: %w", err)
			}
			return eh.onInvoiceApproved(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}

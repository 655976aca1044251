package models

import "time"

// Event types
const (
	EventTypeSaleCompleted   = "SALE_COMPLETED"
	EventTypeStockAdjusted   = "STOCK_ADJUSTED"
	EventTypeInvoiceApproved = "INVOICE_APPROVED"
	EventTypeLowStock        = "LOW_STOCK"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// SaleCompletedEvent published when a sale is finalized at a terminal
type SaleCompletedEvent struct {
	BaseEvent
	SaleID        int64          `json:"sale_id"`
	SaleNumber    string         `json:"sale_number"`
	TerminalID    string         `json:"terminal_id"`
	CashierID     string         `json:"cashier_id"`
	CustomerID    *int64         `json:"customer_id,omitempty"`
	TotalAmount   int64          `json:"total_amount"`
	TaxAmount     int64          `json:"tax_amount"`
	PaymentMethod string         `json:"payment_method"`
	Items         []SaleItemData `json:"items"`
}

// StockAdjustedEvent published when stock changes outside the sale path
// (invoice approval, manual correction)
type StockAdjustedEvent struct {
	BaseEvent
	ProductID int64  `json:"product_id"`
	Delta     int    `json:"delta"`
	NewStock  int    `json:"new_stock"`
	Reason    string `json:"reason"`
}

// InvoiceApprovedEvent published when a purchase invoice is approved and its
// stock increments applied
type InvoiceApprovedEvent struct {
	BaseEvent
	InvoiceID     int64  `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number"`
	SupplierID    int64  `json:"supplier_id"`
	TotalAmount   int64  `json:"total_amount"`
	ApprovedBy    string `json:"approved_by"`
}

// LowStockEvent published when a product drops to or below its critical level
type LowStockEvent struct {
	BaseEvent
	ProductID     int64  `json:"product_id"`
	Barcode       string `json:"barcode"`
	Name          string `json:"name"`
	Stock         int    `json:"stock"`
	CriticalStock int    `json:"critical_stock"`
}

// SaleItemData represents item data in events
type SaleItemData struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
	TaxAmount int64 `json:"tax_amount"`
	Total     int64 `json:"total"`
}

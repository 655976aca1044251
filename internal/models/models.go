package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog. Price and Cost are in cents.
type Product struct {
	ID            int64           `db:"id" json:"id"`
	Barcode       string          `db:"barcode" json:"barcode"`
	Name          string          `db:"name" json:"name"`
	Description   string          `db:"description" json:"description,omitempty"`
	Price         int64           `db:"price" json:"price"`
	Cost          int64           `db:"cost" json:"cost"`
	Stock         int             `db:"stock" json:"stock"`
	CriticalStock int             `db:"critical_stock" json:"critical_stock"`
	CategoryID    *int64          `db:"category_id" json:"category_id,omitempty"`
	SupplierID    *int64          `db:"supplier_id" json:"supplier_id,omitempty"`
	TaxRate       decimal.Decimal `db:"tax_rate" json:"tax_rate"`
	IsActive      bool            `db:"is_active" json:"is_active"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// Category groups products
type Category struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Supplier represents a purchase-invoice counterparty
type Supplier struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	ContactPerson string    `db:"contact_person" json:"contact_person,omitempty"`
	Phone         string    `db:"phone" json:"phone,omitempty"`
	Email         string    `db:"email" json:"email,omitempty"`
	Address       string    `db:"address" json:"address,omitempty"`
	TaxNumber     string    `db:"tax_number" json:"tax_number,omitempty"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Customer represents a retail customer. TotalPurchases is in cents.
type Customer struct {
	ID             int64           `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	Phone          string          `db:"phone" json:"phone,omitempty"`
	Email          string          `db:"email" json:"email,omitempty"`
	Address        string          `db:"address" json:"address,omitempty"`
	TaxNumber      string          `db:"tax_number" json:"tax_number,omitempty"`
	DiscountRate   decimal.Decimal `db:"discount_rate" json:"discount_rate"`
	TotalPurchases int64           `db:"total_purchases" json:"total_purchases"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// Sale represents a completed point-of-sale transaction
type Sale struct {
	ID             int64     `db:"id" json:"id"`
	SaleNumber     string    `db:"sale_number" json:"sale_number"`
	CustomerID     *int64    `db:"customer_id" json:"customer_id,omitempty"`
	TotalAmount    int64     `db:"total_amount" json:"total_amount"`
	TaxAmount      int64     `db:"tax_amount" json:"tax_amount"`
	DiscountAmount int64     `db:"discount_amount" json:"discount_amount"`
	PaymentMethod  string    `db:"payment_method" json:"payment_method"`
	Status         string    `db:"status" json:"status"`
	CashierID      string    `db:"cashier_id" json:"cashier_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// SaleItem represents one line of a completed sale
type SaleItem struct {
	ID        int64 `db:"id" json:"id"`
	SaleID    int64 `db:"sale_id" json:"sale_id"`
	ProductID int64 `db:"product_id" json:"product_id"`
	Quantity  int   `db:"quantity" json:"quantity"`
	UnitPrice int64 `db:"unit_price" json:"unit_price"`
	Discount  int64 `db:"discount" json:"discount"`
	TaxAmount int64 `db:"tax_amount" json:"tax_amount"`
	Total     int64 `db:"total" json:"total"`
}

// Invoice represents a supplier purchase invoice
type Invoice struct {
	ID            int64      `db:"id" json:"id"`
	InvoiceNumber string     `db:"invoice_number" json:"invoice_number"`
	SupplierID    int64      `db:"supplier_id" json:"supplier_id"`
	TotalAmount   int64      `db:"total_amount" json:"total_amount"`
	TaxAmount     int64      `db:"tax_amount" json:"tax_amount"`
	Status        string     `db:"status" json:"status"`
	ProcessedBy   *string    `db:"processed_by" json:"processed_by,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	ProcessedAt   *time.Time `db:"processed_at" json:"processed_at,omitempty"`
}

// InvoiceItem represents one line of a purchase invoice. When an invoice is
// approved, the previous product cost and the recalculated weighted-average
// cost are recorded on the item.
type InvoiceItem struct {
	ID             int64  `db:"id" json:"id"`
	InvoiceID      int64  `db:"invoice_id" json:"invoice_id"`
	ProductID      int64  `db:"product_id" json:"product_id"`
	Quantity       int    `db:"quantity" json:"quantity"`
	UnitCost       int64  `db:"unit_cost" json:"unit_cost"`
	TotalCost      int64  `db:"total_cost" json:"total_cost"`
	PreviousCost   *int64 `db:"previous_cost" json:"previous_cost,omitempty"`
	NewAverageCost *int64 `db:"new_average_cost" json:"new_average_cost,omitempty"`
}

// Sale statuses
const (
	SaleStatusCompleted = "COMPLETED"
	SaleStatusCancelled = "CANCELLED"
	SaleStatusRefunded  = "REFUNDED"
)

// Payment methods
const (
	PaymentMethodCash         = "cash"
	PaymentMethodCard         = "card"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodMixed        = "mixed"
)

// Invoice statuses
const (
	InvoiceStatusPending   = "PENDING"
	InvoiceStatusApproved  = "APPROVED"
	InvoiceStatusProcessed = "PROCESSED"
)

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}

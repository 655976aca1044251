package store

import (
	"context"
	"database/sql"
	"fmt"

	"pos-service/internal/models"
)

// CreateInvoiceTx persists an invoice with its items in one transaction.
func (s *Store) CreateInvoiceTx(ctx context.Context, inv *models.Invoice, items []models.InvoiceItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO invoices (invoice_number, supplier_id, total_amount, tax_amount, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	if err := tx.GetContext(ctx, inv, query,
		inv.InvoiceNumber, inv.SupplierID, inv.TotalAmount, inv.TaxAmount, inv.Status); err != nil {
		return fmt.Errorf("failed to insert invoice: %w", err)
	}

	for i := range items {
		item := &items[i]
		item.InvoiceID = inv.ID

		itemQuery := `
			INSERT INTO invoice_items (invoice_id, product_id, quantity, unit_cost, total_cost)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`

		if err := tx.GetContext(ctx, &item.ID, itemQuery,
			item.InvoiceID, item.ProductID, item.Quantity, item.UnitCost, item.TotalCost); err != nil {
			return fmt.Errorf("failed to insert invoice item: %w", err)
		}
	}

	return tx.Commit()
}

// GetInvoiceByID retrieves an invoice by ID
func (s *Store) GetInvoiceByID(ctx context.Context, id int64) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.GetContext(ctx, &inv, "SELECT * FROM invoices WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("invoice not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// GetInvoices retrieves invoices, optionally filtered by status
func (s *Store) GetInvoices(ctx context.Context, status string) ([]models.Invoice, error) {
	var invoices []models.Invoice
	if status == "" {
		err := s.db.SelectContext(ctx, &invoices,
			"SELECT * FROM invoices ORDER BY created_at DESC")
		return invoices, err
	}
	err := s.db.SelectContext(ctx, &invoices,
		"SELECT * FROM invoices WHERE status = $1 ORDER BY created_at DESC", status)
	return invoices, err
}

// GetInvoiceItems retrieves all items of an invoice
func (s *Store) GetInvoiceItems(ctx context.Context, invoiceID int64) ([]models.InvoiceItem, error) {
	var items []models.InvoiceItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM invoice_items WHERE invoice_id = $1 ORDER BY id", invoiceID)
	return items, err
}

// StockUpdate describes one stock/cost change applied by an invoice approval.
type StockUpdate struct {
	ProductID      int64
	Quantity       int
	PreviousCost   int64
	NewAverageCost int64
	NewStock       int
}

// ApproveInvoiceTx marks an invoice approved and applies its stock increments
// and weighted-average cost recalculation, all in one transaction. The
// transition only succeeds from the expected current status.
func (s *Store) ApproveInvoiceTx(ctx context.Context, invoiceID int64, approvedBy string, updates []StockUpdate) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE invoices SET status = $1, processed_by = $2, processed_at = NOW()
		 WHERE id = $3 AND status = $4`,
		models.InvoiceStatusApproved, approvedBy, invoiceID, models.InvoiceStatusPending)
	if err != nil {
		return fmt.Errorf("failed to update invoice status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("invoice %d is not pending", invoiceID)
	}

	for _, u := range updates {
		_, err = tx.ExecContext(ctx,
			"UPDATE products SET stock = stock + $1, cost = $2, updated_at = NOW() WHERE id = $3",
			u.Quantity, u.NewAverageCost, u.ProductID)
		if err != nil {
			return fmt.Errorf("failed to apply stock update for product %d: %w", u.ProductID, err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE invoice_items SET previous_cost = $1, new_average_cost = $2
			 WHERE invoice_id = $3 AND product_id = $4`,
			u.PreviousCost, u.NewAverageCost, invoiceID, u.ProductID)
		if err != nil {
			return fmt.Errorf("failed to record cost change for product %d: %w", u.ProductID, err)
		}
	}

	return tx.Commit()
}

// MarkInvoiceProcessed transitions an approved invoice to processed
func (s *Store) MarkInvoiceProcessed(ctx context.Context, invoiceID int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE invoices SET status = $1 WHERE id = $2 AND status = $3",
		models.InvoiceStatusProcessed, invoiceID, models.InvoiceStatusApproved)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("invoice %d is not approved", invoiceID)
	}
	return nil
}

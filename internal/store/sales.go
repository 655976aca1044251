package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pos-service/internal/models"
)

// ErrInsufficientStock is returned by RecordSaleTx when a product cannot
// cover the quantity being sold.
var ErrInsufficientStock = errors.New("insufficient stock")

// RecordSaleTx persists a sale with its items and decrements product stock,
// all in a single transaction. If any product has insufficient stock the
// whole sale fails and stock is left untouched, so recorded sales can never
// disagree with inventory.
func (s *Store) RecordSaleTx(ctx context.Context, sale *models.Sale, items []models.SaleItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO sales (sale_number, customer_id, total_amount, tax_amount, discount_amount, payment_method, status, cashier_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	if err := tx.GetContext(ctx, sale, query,
		sale.SaleNumber, sale.CustomerID, sale.TotalAmount, sale.TaxAmount,
		sale.DiscountAmount, sale.PaymentMethod, sale.Status, sale.CashierID); err != nil {
		return fmt.Errorf("failed to insert sale: %w", err)
	}

	for i := range items {
		item := &items[i]
		item.SaleID = sale.ID

		var stock int
		err := tx.GetContext(ctx, &stock,
			"SELECT stock FROM products WHERE id = $1 FOR UPDATE", item.ProductID)
		if err != nil {
			return fmt.Errorf("failed to lock product %d: %w", item.ProductID, err)
		}

		if stock < item.Quantity {
			return fmt.Errorf("product %d: available=%d, requested=%d: %w",
				item.ProductID, stock, item.Quantity, ErrInsufficientStock)
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2",
			item.Quantity, item.ProductID)
		if err != nil {
			return fmt.Errorf("failed to decrement stock for product %d: %w", item.ProductID, err)
		}

		itemQuery := `
			INSERT INTO sale_items (sale_id, product_id, quantity, unit_price, discount, tax_amount, total)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`

		if err := tx.GetContext(ctx, &item.ID, itemQuery,
			item.SaleID, item.ProductID, item.Quantity, item.UnitPrice,
			item.Discount, item.TaxAmount, item.Total); err != nil {
			return fmt.Errorf("failed to insert sale item: %w", err)
		}
	}

	return tx.Commit()
}

// GetSaleByID retrieves a sale by ID
func (s *Store) GetSaleByID(ctx context.Context, id int64) (*models.Sale, error) {
	var sale models.Sale
	err := s.db.GetContext(ctx, &sale, "SELECT * FROM sales WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sale not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// GetSaleItems retrieves all items of a sale
func (s *Store) GetSaleItems(ctx context.Context, saleID int64) ([]models.SaleItem, error) {
	var items []models.SaleItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM sale_items WHERE sale_id = $1 ORDER BY id", saleID)
	return items, err
}

// GetSales retrieves sales within a period, newest first
func (s *Store) GetSales(ctx context.Context, from, to time.Time) ([]models.Sale, error) {
	var sales []models.Sale
	err := s.db.SelectContext(ctx, &sales,
		"SELECT * FROM sales WHERE created_at >= $1 AND created_at < $2 ORDER BY created_at DESC",
		from, to)
	return sales, err
}

// UpdateSaleStatus updates sale status (refund, cancellation)
func (s *Store) UpdateSaleStatus(ctx context.Context, saleID int64, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE sales SET status = $1 WHERE id = $2", status, saleID)
	return err
}

// NextSaleNumber reserves the next value of the sale number sequence
func (s *Store) NextSaleNumber(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.GetContext(ctx, &n, "SELECT nextval('sale_number_seq')")
	return n, err
}

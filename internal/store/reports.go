package store

import (
	"context"
	"time"

	"pos-service/internal/models"
)

// SalesTotals holds aggregate sale figures for a period, in cents.
type SalesTotals struct {
	TotalSales        int64 `db:"total_sales"`
	TotalTax          int64 `db:"total_tax"`
	TotalTransactions int   `db:"total_transactions"`
	TotalProfit       int64 `db:"total_profit"`
}

// GetSalesTotals aggregates completed sales within [from, to). Profit is
// revenue minus the product cost recorded at report time.
func (s *Store) GetSalesTotals(ctx context.Context, from, to time.Time) (*SalesTotals, error) {
	var totals SalesTotals
	query := `
		SELECT
			COALESCE(SUM(sa.total_amount), 0) AS total_sales,
			COALESCE(SUM(sa.tax_amount), 0) AS total_tax,
			COUNT(sa.id) AS total_transactions,
			COALESCE((
				SELECT SUM(si.total - p.cost * si.quantity)
				FROM sale_items si
				JOIN sales s2 ON s2.id = si.sale_id
				JOIN products p ON p.id = si.product_id
				WHERE s2.status = $3 AND s2.created_at >= $1 AND s2.created_at < $2
			), 0) AS total_profit
		FROM sales sa
		WHERE sa.status = $3 AND sa.created_at >= $1 AND sa.created_at < $2`

	err := s.db.GetContext(ctx, &totals, query, from, to, models.SaleStatusCompleted)
	return &totals, err
}

// GetTopProducts returns best sellers by quantity within [from, to).
func (s *Store) GetTopProducts(ctx context.Context, from, to time.Time, limit int) ([]models.ProductSales, error) {
	var rows []models.ProductSales
	query := `
		SELECT p.id AS product_id, p.name, p.barcode,
		       SUM(si.quantity) AS quantity_sold,
		       SUM(si.total) AS revenue
		FROM sale_items si
		JOIN sales sa ON sa.id = si.sale_id
		JOIN products p ON p.id = si.product_id
		WHERE sa.status = $3 AND sa.created_at >= $1 AND sa.created_at < $2
		GROUP BY p.id, p.name, p.barcode
		ORDER BY quantity_sold DESC
		LIMIT $4`

	err := s.db.SelectContext(ctx, &rows, query, from, to, models.SaleStatusCompleted, limit)
	return rows, err
}

// GetDailySales returns a per-day sales and profit breakdown within [from, to).
func (s *Store) GetDailySales(ctx context.Context, from, to time.Time) ([]models.DailySalesRow, error) {
	var rows []models.DailySalesRow
	query := `
		SELECT DATE_TRUNC('day', sa.created_at) AS date,
		       SUM(si.total + si.tax_amount) AS sales,
		       SUM(si.total - p.cost * si.quantity) AS profit
		FROM sales sa
		JOIN sale_items si ON si.sale_id = sa.id
		JOIN products p ON p.id = si.product_id
		WHERE sa.status = $3 AND sa.created_at >= $1 AND sa.created_at < $2
		GROUP BY DATE_TRUNC('day', sa.created_at)
		ORDER BY date`

	err := s.db.SelectContext(ctx, &rows, query, from, to, models.SaleStatusCompleted)
	return rows, err
}

// CountProducts counts active products
func (s *Store) CountProducts(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM products WHERE is_active = TRUE")
	return n, err
}

// CountCustomers counts registered customers
func (s *Store) CountCustomers(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM customers")
	return n, err
}

// CountLowStockProducts counts active products at or below their critical level
func (s *Store) CountLowStockProducts(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM products WHERE is_active = TRUE AND stock <= critical_stock")
	return n, err
}

package models

import "time"

// SalesReport is the closed schema for a period sales report. All monetary
// fields are in cents.
type SalesReport struct {
	From              time.Time       `json:"from"`
	To                time.Time       `json:"to"`
	TotalSales        int64           `json:"total_sales"`
	TotalTax          int64           `json:"total_tax"`
	TotalTransactions int             `json:"total_transactions"`
	TotalProfit       int64           `json:"total_profit"`
	TopProducts       []ProductSales  `json:"top_products"`
	LowStockProducts  []Product       `json:"low_stock_products"`
	DailySales        []DailySalesRow `json:"daily_sales"`
}

// ProductSales aggregates sold quantity and revenue for one product
type ProductSales struct {
	ProductID    int64  `db:"product_id" json:"product_id"`
	Name         string `db:"name" json:"name"`
	Barcode      string `db:"barcode" json:"barcode"`
	QuantitySold int    `db:"quantity_sold" json:"quantity_sold"`
	Revenue      int64  `db:"revenue" json:"revenue"`
}

// DailySalesRow is one day of the report's daily breakdown
type DailySalesRow struct {
	Date   time.Time `db:"date" json:"date"`
	Sales  int64     `db:"sales" json:"sales"`
	Profit int64     `db:"profit" json:"profit"`
}

// DashboardStats backs the landing dashboard
type DashboardStats struct {
	TodaySales        int64 `json:"today_sales"`
	TotalProducts     int   `json:"total_products"`
	ActiveCustomers   int   `json:"active_customers"`
	LowStockItems     int   `json:"low_stock_items"`
	CurrentMonthSales int64 `json:"current_month_sales"`
	MonthlyTarget     int64 `json:"monthly_target"`
}

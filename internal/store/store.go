package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pos-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductByBarcode retrieves a product by barcode
func (s *Store) GetProductByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE barcode = $1", barcode)
	if err == sql.ErrNoRows {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProducts retrieves all active products
func (s *Store) GetProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products WHERE is_active = TRUE ORDER BY id")
	return products, err
}

// CreateProduct creates a new product
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (barcode, name, description, price, cost, stock, critical_stock, category_id, supplier_id, tax_rate, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, p, query,
		p.Barcode, p.Name, p.Description, p.Price, p.Cost, p.Stock,
		p.CriticalStock, p.CategoryID, p.SupplierID, p.TaxRate, p.IsActive)
}

// UpdateProduct updates product fields
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	query := `
		UPDATE products
		SET barcode = $1, name = $2, description = $3, price = $4, cost = $5,
		    stock = $6, critical_stock = $7, category_id = $8, supplier_id = $9,
		    tax_rate = $10, is_active = $11, updated_at = NOW()
		WHERE id = $12`

	res, err := s.db.ExecContext(ctx, query,
		p.Barcode, p.Name, p.Description, p.Price, p.Cost, p.Stock,
		p.CriticalStock, p.CategoryID, p.SupplierID, p.TaxRate, p.IsActive, p.ID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("product not found: %d", p.ID)
	}
	return nil
}

// DeactivateProduct soft-deletes a product
func (s *Store) DeactivateProduct(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1", id)
	return err
}

// GetLowStockProducts retrieves active products at or below their critical level
func (s *Store) GetLowStockProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products WHERE is_active = TRUE AND stock <= critical_stock ORDER BY stock")
	return products, err
}

// AdjustStockTx applies a stock delta within a transaction (FOR UPDATE lock).
// A negative delta fails if it would drive stock below zero.
func (s *Store) AdjustStockTx(ctx context.Context, productID int64, delta int) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var stock int
	err = tx.GetContext(ctx, &stock,
		"SELECT stock FROM products WHERE id = $1 FOR UPDATE", productID)
	if err != nil {
		return 0, fmt.Errorf("failed to lock product: %w", err)
	}

	if stock+delta < 0 {
		return 0, fmt.Errorf("insufficient stock: available=%d, delta=%d", stock, delta)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE products SET stock = stock + $1, updated_at = NOW() WHERE id = $2",
		delta, productID)
	if err != nil {
		return 0, fmt.Errorf("failed to adjust stock: %w", err)
	}

	return stock + delta, tx.Commit()
}

// GetCategories retrieves all categories
func (s *Store) GetCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.SelectContext(ctx, &categories, "SELECT * FROM categories ORDER BY name")
	return categories, err
}

// CreateCategory creates a new category
func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	query := `
		INSERT INTO categories (name, description, is_active)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, c, query, c.Name, c.Description, c.IsActive)
}

// GetSuppliers retrieves all suppliers
func (s *Store) GetSuppliers(ctx context.Context) ([]models.Supplier, error) {
	var suppliers []models.Supplier
	err := s.db.SelectContext(ctx, &suppliers, "SELECT * FROM suppliers ORDER BY name")
	return suppliers, err
}

// GetSupplierByID retrieves a supplier by ID
func (s *Store) GetSupplierByID(ctx context.Context, id int64) (*models.Supplier, error) {
	var supplier models.Supplier
	err := s.db.GetContext(ctx, &supplier, "SELECT * FROM suppliers WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("supplier not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

// CreateSupplier creates a new supplier
func (s *Store) CreateSupplier(ctx context.Context, sup *models.Supplier) error {
	query := `
		INSERT INTO suppliers (name, contact_person, phone, email, address, tax_number, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, sup, query,
		sup.Name, sup.ContactPerson, sup.Phone, sup.Email, sup.Address, sup.TaxNumber, sup.IsActive)
}

// GetCustomers retrieves all customers
func (s *Store) GetCustomers(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	err := s.db.SelectContext(ctx, &customers, "SELECT * FROM customers ORDER BY name")
	return customers, err
}

// GetCustomerByPhone retrieves a customer by phone number
func (s *Store) GetCustomerByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.GetContext(ctx, &customer, "SELECT * FROM customers WHERE phone = $1", phone)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// CreateCustomer creates a new customer
func (s *Store) CreateCustomer(ctx context.Context, c *models.Customer) error {
	query := `
		INSERT INTO customers (name, phone, email, address, tax_number, discount_rate, total_purchases)
		VALUES ($1, $2, $3, $4, $5, $6, 0)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, c, query,
		c.Name, c.Phone, c.Email, c.Address, c.TaxNumber, c.DiscountRate)
}

// AddCustomerPurchase accumulates a completed sale total onto the customer
func (s *Store) AddCustomerPurchase(ctx context.Context, customerID, amount int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE customers SET total_purchases = total_purchases + $1 WHERE id = $2",
		amount, customerID)
	return err
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}

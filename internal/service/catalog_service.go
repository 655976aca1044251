package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pos-service/internal/models"
	"pos-service/internal/redisclient"
	"pos-service/internal/store"
	"pos-service/internal/util"

	"go.uber.org/zap"
)

// CatalogService resolves barcodes to products and manages the product
// catalog. Lookups take a Redis fast path with a database fallback; the
// database stays authoritative for stock.
type CatalogService struct {
	store  *store.Store
	redis  *redisclient.Client
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store *store.Store, redis *redisclient.Client) *CatalogService {
	return &CatalogService{
		store:  store,
		redis:  redis,
		logger: util.GetLogger(),
	}
}

// FindByBarcode resolves a barcode to an active product. Returns
// ErrProductNotFound for unknown barcodes and inactive products.
func (cs *CatalogService) FindByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.FindByBarcode")
	defer span.End()

	cached, err := cs.redis.GetProductByBarcode(ctx, barcode)
	if err != nil {
		cs.logger.Warn("Barcode cache read failed, falling back to DB",
			zap.String("barcode", barcode),
			zap.Error(err))
	}
	if cached != nil {
		// stock in the cache can lag behind sales; overlay the live count
		if stock, err := cs.redis.GetStock(ctx, cached.ID); err == nil {
			cached.Stock = stock
		}
		util.BarcodeCacheHits.Inc()
		util.BarcodeLookupsTotal.WithLabelValues("hit").Inc()
		if !cached.IsActive {
			return nil, ErrProductNotFound
		}
		return cached, nil
	}

	product, err := cs.store.GetProductByBarcode(ctx, barcode)
	if errors.Is(err, sql.ErrNoRows) {
		util.BarcodeLookupsTotal.WithLabelValues("miss").Inc()
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("barcode lookup failed: %w", err)
	}

	if err := cs.redis.CacheProduct(ctx, product); err != nil {
		cs.logger.Warn("Failed to cache product",
			zap.String("barcode", barcode),
			zap.Error(err))
	}

	util.BarcodeLookupsTotal.WithLabelValues("db").Inc()
	if !product.IsActive {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// GetProductByID retrieves a product by its identifier
func (cs *CatalogService) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	product, err := cs.store.GetProductByID(ctx, id)
	if err != nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// ListProducts retrieves all active products
func (cs *CatalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return cs.store.GetProducts(ctx)
}

// CreateProduct creates a product and seeds its stock cache
func (cs *CatalogService) CreateProduct(ctx context.Context, p *models.Product) error {
	if err := cs.store.CreateProduct(ctx, p); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	if err := cs.redis.SetStock(ctx, p.ID, p.Stock); err != nil {
		cs.logger.Warn("Failed to seed stock cache",
			zap.Int64("product_id", p.ID),
			zap.Error(err))
	}
	return nil
}

// UpdateProduct updates a product and invalidates its cache entries
func (cs *CatalogService) UpdateProduct(ctx context.Context, p *models.Product) error {
	if err := cs.store.UpdateProduct(ctx, p); err != nil {
		return err
	}

	if err := cs.redis.InvalidateProduct(ctx, p.Barcode); err != nil {
		cs.logger.Warn("Failed to invalidate product cache",
			zap.String("barcode", p.Barcode),
			zap.Error(err))
	}
	if err := cs.redis.SetStock(ctx, p.ID, p.Stock); err != nil {
		cs.logger.Warn("Failed to refresh stock cache",
			zap.Int64("product_id", p.ID),
			zap.Error(err))
	}
	return nil
}

// DeactivateProduct soft-deletes a product and drops it from the cache
func (cs *CatalogService) DeactivateProduct(ctx context.Context, id int64) error {
	product, err := cs.store.GetProductByID(ctx, id)
	if err != nil {
		return ErrProductNotFound
	}

	if err := cs.store.DeactivateProduct(ctx, id); err != nil {
		return err
	}
	return cs.redis.InvalidateProduct(ctx, product.Barcode)
}

// ListCategories retrieves all categories
func (cs *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return cs.store.GetCategories(ctx)
}

// CreateCategory creates a category
func (cs *CatalogService) CreateCategory(ctx context.Context, c *models.Category) error {
	return cs.store.CreateCategory(ctx, c)
}

// ListSuppliers retrieves all suppliers
func (cs *CatalogService) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	return cs.store.GetSuppliers(ctx)
}

// CreateSupplier creates a supplier
func (cs *CatalogService) CreateSupplier(ctx context.Context, s *models.Supplier) error {
	return cs.store.CreateSupplier(ctx, s)
}

// ListCustomers retrieves all customers
func (cs *CatalogService) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	return cs.store.GetCustomers(ctx)
}

// CreateCustomer creates a customer
func (cs *CatalogService) CreateCustomer(ctx context.Context, c *models.Customer) error {
	return cs.store.CreateCustomer(ctx, c)
}

// SyncStockToRedis synchronizes database stock counts to Redis at startup
func (cs *CatalogService) SyncStockToRedis(ctx context.Context) error {
	cs.logger.Info("Starting stock sync to Redis")

	products, err := cs.store.GetProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to get products: %w", err)
	}

	for _, product := range products {
		if err := cs.redis.SetStock(ctx, product.ID, product.Stock); err != nil {
			cs.logger.Error("Failed to sync stock",
				zap.Int64("product_id", product.ID),
				zap.Error(err))
		}
	}

	cs.logger.Info("Stock sync completed", zap.Int("count", len(products)))
	return nil
}

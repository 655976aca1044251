package redisclient

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"pos-service/internal/models"
)

//go:embed scripts/decrement_stock.lua
var decrementStockScript string

//go:embed scripts/restock.lua
var restockScript string

// productCacheTTL bounds staleness of the barcode cache; stock counts in the
// cache are advisory, the database is authoritative at checkout.
const productCacheTTL = 10 * time.Minute

type Client struct {
	rdb             *redis.Client
	decrementScript *redis.Script
	restockScript   *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:             rdb,
		decrementScript: redis.NewScript(decrementStockScript),
		restockScript:   redis.NewScript(restockScript),
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func stockKey(productID int64) string {
	return fmt.Sprintf("stock:%d", productID)
}

func barcodeKey(barcode string) string {
	return fmt.Sprintf("product:barcode:%s", barcode)
}

// DecrementStock atomically decrements cached stock using a Lua script.
// Returns false when the cached count cannot cover the quantity; a missing
// key is treated the same way so callers fall back to the database.
func (c *Client) DecrementStock(ctx context.Context, productID int64, quantity int) (bool, error) {
	result, err := c.decrementScript.Run(ctx, c.rdb, []string{stockKey(productID)}, quantity).Result()
	if err != nil {
		return false, fmt.Errorf("decrement stock script failed: %w", err)
	}

	code, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected script result type")
	}

	return code == 1, nil
}

// Restock atomically increments cached stock (invoice approval, refund)
func (c *Client) Restock(ctx context.Context, productID int64, quantity int) error {
	_, err := c.restockScript.Run(ctx, c.rdb, []string{stockKey(productID)}, quantity).Result()
	if err != nil {
		return fmt.Errorf("restock script failed: %w", err)
	}
	return nil
}

// SetStock initializes or overwrites the cached stock count
func (c *Client) SetStock(ctx context.Context, productID int64, stock int) error {
	return c.rdb.Set(ctx, stockKey(productID), stock, 0).Err()
}

// GetStock retrieves the cached stock count
func (c *Client) GetStock(ctx context.Context, productID int64) (int, error) {
	stock, err := c.rdb.Get(ctx, stockKey(productID)).Int()
	if err == redis.Nil {
		return 0, fmt.Errorf("stock not cached for product %d", productID)
	}
	return stock, err
}

// CacheProduct stores a product under its barcode for fast terminal lookup
func (c *Client) CacheProduct(ctx context.Context, p *models.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
	}
	return c.rdb.Set(ctx, barcodeKey(p.Barcode), data, productCacheTTL).Err()
}

// GetProductByBarcode retrieves a cached product. Returns (nil, nil) on a
// cache miss.
func (c *Client) GetProductByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	data, err := c.rdb.Get(ctx, barcodeKey(barcode)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var p models.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached product: %w", err)
	}
	return &p, nil
}

// InvalidateProduct drops a product from the barcode cache
func (c *Client) InvalidateProduct(ctx context.Context, barcode string) error {
	return c.rdb.Del(ctx, barcodeKey(barcode)).Err()
}

// AcquireLock acquires a distributed lock
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), "1", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:%s", lockKey)).Err()
}

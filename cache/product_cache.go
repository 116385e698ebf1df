package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jonbarlo/onlineshop-api/models"
	"github.com/jonbarlo/onlineshop-api/repository"
	"go.uber.org/zap"
)

const (
	ProductCachePrefix     = "product:detail:"
	ProductListCachePrefix = "products:v:"
	CacheVersionKey        = "products:version"

	DefaultTTL = 5 * time.Minute
)

// ProductPage is one cached page of the public product listing.
type ProductPage struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
}

// ProductCache is a read-through Redis cache for public product reads.
// List entries are namespaced by a version counter; bumping the counter
// orphans every cached list at once.
type ProductCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewProductCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ProductCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ProductCache{redis: client, ttl: ttl, logger: logger}
}

// GetProduct returns the cached product, if present.
func (c *ProductCache) GetProduct(ctx context.Context, id string) (*models.Product, bool) {
	raw, err := c.redis.Get(ctx, ProductCachePrefix+id).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("product cache read failed", zap.Error(err), zap.String("product_id", id))
		}
		return nil, false
	}

	var product models.Product
	if err := json.Unmarshal(raw, &product); err != nil {
		c.logger.Warn("failed to unmarshal cached product", zap.Error(err), zap.String("product_id", id))
		return nil, false
	}
	return &product, true
}

// SetProduct caches product. Failures are logged and otherwise ignored.
func (c *ProductCache) SetProduct(ctx context.Context, product *models.Product) {
	data, err := json.Marshal(product)
	if err != nil {
		c.logger.Warn("failed to marshal product for cache", zap.Error(err), zap.String("product_id", product.ID.String()))
		return
	}
	if err := c.redis.Set(ctx, ProductCachePrefix+product.ID.String(), data, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to cache product", zap.Error(err), zap.String("product_id", product.ID.String()))
	}
}

// GetProductList returns the cached page for filter, if present.
func (c *ProductCache) GetProductList(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, bool) {
	version, err := c.version(ctx)
	if err != nil {
		return nil, 0, false
	}

	raw, err := c.redis.Get(ctx, ListKey(version, filter)).Bytes()
	if err != nil {
		return nil, 0, false
	}

	var page ProductPage
	if err := json.Unmarshal(raw, &page); err != nil {
		c.logger.Warn("failed to unmarshal cached product list", zap.Error(err))
		return nil, 0, false
	}
	return page.Products, page.Total, true
}

// SetProductList caches one page under the current list version.
func (c *ProductCache) SetProductList(ctx context.Context, filter repository.ProductFilter, products []models.Product, total int64) {
	version, err := c.version(ctx)
	if err != nil {
		return
	}
	data, err := json.Marshal(ProductPage{Products: products, Total: total})
	if err != nil {
		c.logger.Warn("failed to marshal product list for cache", zap.Error(err))
		return
	}
	if err := c.redis.Set(ctx, ListKey(version, filter), data, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to cache product list", zap.Error(err))
	}
}

// InvalidateProducts drops the detail entries of ids and every cached list.
func (c *ProductCache) InvalidateProducts(ctx context.Context, ids ...string) {
	if newVersion, err := c.redis.Incr(ctx, CacheVersionKey).Result(); err != nil {
		c.logger.Error("failed to invalidate product list cache", zap.Error(err))
	} else {
		c.logger.Debug("product list cache invalidated", zap.Int64("new_version", newVersion))
	}

	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = ProductCachePrefix + id
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("failed to delete product cache", zap.Error(err), zap.Strings("product_ids", ids))
	}
}

// version returns the current list version, initializing it on first use.
func (c *ProductCache) version(ctx context.Context) (int64, error) {
	const maxRetries = 3

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		ver, err := c.redis.Get(ctx, CacheVersionKey).Int64()
		if err == nil && ver > 0 {
			return ver, nil
		}
		if errors.Is(err, redis.Nil) {
			if ok, err := c.redis.SetNX(ctx, CacheVersionKey, 1, 0).Result(); err == nil && ok {
				return 1, nil
			}
		}
		lastErr = err

		if i < maxRetries-1 {
			time.Sleep(50 * time.Millisecond)
		}
	}
	return 0, fmt.Errorf("failed to get cache version after %d retries: %w", maxRetries, lastErr)
}

// ListKey builds the cache key of one listing page under version.
func ListKey(version int64, f repository.ProductFilter) string {
	category, status, minPrice, maxPrice := "", "", "", ""
	if f.CategoryID != nil {
		category = f.CategoryID.String()
	}
	if f.Status != nil {
		status = string(*f.Status)
	}
	if f.MinPrice != nil {
		minPrice = f.MinPrice.String()
	}
	if f.MaxPrice != nil {
		maxPrice = f.MaxPrice.String()
	}
	return fmt.Sprintf(
		"%s%d:p:%d:l:%d:c:%s:st:%s:q:%s:s:%s:min:%s:max:%s",
		ProductListCachePrefix,
		version,
		f.Page,
		f.Limit,
		category,
		status,
		f.Search,
		f.Sort,
		minPrice,
		maxPrice,
	)
}

package cache

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/jonbarlo/onlineshop-api/models"
	"github.com/jonbarlo/onlineshop-api/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestRedisClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:       "localhost:0",
		MaxRetries: -1,
		Dialer: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return nil, errors.New("redis disabled in tests")
		},
	})
}

func TestProductCache_UnavailableRedisIsAMiss(t *testing.T) {
	c := NewProductCache(newTestRedisClient(), 0, zap.NewNop())
	ctx := context.Background()
	product := &models.Product{ID: uuid.New(), Name: "Mug", Price: decimal.RequireFromString("12.00")}

	c.SetProduct(ctx, product)
	got, ok := c.GetProduct(ctx, product.ID.String())
	assert.False(t, ok)
	assert.Nil(t, got)

	filter := repository.ProductFilter{Page: 1, Limit: 10}
	c.SetProductList(ctx, filter, []models.Product{*product}, 1)
	products, total, ok := c.GetProductList(ctx, filter)
	assert.False(t, ok)
	assert.Nil(t, products)
	assert.Zero(t, total)

	assert.NotPanics(t, func() { c.InvalidateProducts(ctx, product.ID.String()) })
	assert.Equal(t, DefaultTTL, c.ttl)
}

func TestListKey(t *testing.T) {
	category := uuid.MustParse("7b0c3f5e-3a8e-4a3c-9d55-2f7f0d1c2b11")
	status := models.ProductStatusAvailable
	minPrice := decimal.RequireFromString("5")

	key := ListKey(3, repository.ProductFilter{
		Page:       2,
		Limit:      20,
		CategoryID: &category,
		Status:     &status,
		Search:     "mug",
		Sort:       "price_asc",
		MinPrice:   &minPrice,
	})

	assert.Equal(t, "products:v:3:p:2:l:20:c:7b0c3f5e-3a8e-4a3c-9d55-2f7f0d1c2b11:st:available:q:mug:s:price_asc:min:5:max:", key)
	assert.NotEqual(t, key, ListKey(4, repository.ProductFilter{Page: 2, Limit: 20}))
	assert.Equal(t, ListKey(1, repository.ProductFilter{}), ListKey(1, repository.ProductFilter{}))
}

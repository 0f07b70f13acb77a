package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jjrmrcly79/naturalezamistica/models"

	"github.com/redis/go-redis/v9"
)

const catalogVersionKey = "catalog:version"

// CatalogCache caches public catalog reads. Invalidate drops everything.
//
// Get returns the cache version it looked under, hit or miss. The matching
// Set must be given that version so that a page read from the store before
// an Invalidate is never filed under the newer version. A negative version
// means the cache could not be read and Set is a no-op.
type CatalogCache interface {
	GetList(ctx context.Context, q models.ProductQuery) (*models.ProductPage, int64, bool)
	SetList(ctx context.Context, version int64, q models.ProductQuery, page *models.ProductPage)
	GetProduct(ctx context.Context, id int64) (*models.Product, int64, bool)
	SetProduct(ctx context.Context, version int64, product *models.Product)
	Invalidate(ctx context.Context) error
}

// RedisCatalogCache stores entries under a version prefix; bumping the
// version orphans every older entry until its TTL expires.
type RedisCatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCatalogCache(client *redis.Client, ttl time.Duration) *RedisCatalogCache {
	return &RedisCatalogCache{client: client, ttl: ttl}
}

func (c *RedisCatalogCache) version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, catalogVersionKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return v, err
}

func (c *RedisCatalogCache) listKey(v int64, q models.ProductQuery) string {
	return fmt.Sprintf("catalog:v%d:list:%s|%s|%d|%d", v, q.Search, q.Category, q.Page, q.Limit)
}

func (c *RedisCatalogCache) productKey(v int64, id int64) string {
	return "catalog:v" + strconv.FormatInt(v, 10) + ":product:" + strconv.FormatInt(id, 10)
}

func (c *RedisCatalogCache) GetList(ctx context.Context, q models.ProductQuery) (*models.ProductPage, int64, bool) {
	v, err := c.version(ctx)
	if err != nil {
		return nil, -1, false
	}
	var page models.ProductPage
	if !c.get(ctx, c.listKey(v, q), &page) {
		return nil, v, false
	}
	return &page, v, true
}

func (c *RedisCatalogCache) SetList(ctx context.Context, version int64, q models.ProductQuery, page *models.ProductPage) {
	if version < 0 {
		return
	}
	c.set(ctx, c.listKey(version, q), page)
}

func (c *RedisCatalogCache) GetProduct(ctx context.Context, id int64) (*models.Product, int64, bool) {
	v, err := c.version(ctx)
	if err != nil {
		return nil, -1, false
	}
	var product models.Product
	if !c.get(ctx, c.productKey(v, id), &product) {
		return nil, v, false
	}
	return &product, v, true
}

func (c *RedisCatalogCache) SetProduct(ctx context.Context, version int64, product *models.Product) {
	if version < 0 {
		return
	}
	c.set(ctx, c.productKey(version, product.ID), product)
}

func (c *RedisCatalogCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, catalogVersionKey).Err()
}

func (c *RedisCatalogCache) get(ctx context.Context, key string, dst interface{}) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (c *RedisCatalogCache) set(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, data, c.ttl).Err()
}

package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"greencart.dev/storefront/pkg/models"
)

const productCacheTTL = 10 * time.Minute

// ProductLoader is the source of truth behind the cache.
type ProductLoader interface {
	ProductsByIDs(ctx context.Context, ids []string) (map[string]models.Product, error)
}

// ProductCache is a read-through cache of product documents used to render order history.
// Checkout pricing reads the database directly and never goes through here.
type ProductCache struct {
	client *redis.Client
	source ProductLoader
	ttl    time.Duration
}

func NewProductCache(client *redis.Client, source ProductLoader) *ProductCache {
	return &ProductCache{client: client, source: source, ttl: productCacheTTL}
}

func productKey(id string) string {
	return fmt.Sprintf("product:%s", id)
}

func (c *ProductCache) ProductsByIDs(ctx context.Context, ids []string) (map[string]models.Product, error) {
	out := make(map[string]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}

	var missing []string
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		// Cache trouble must not break order history.
		log.Warn().Err(err).Msg("product cache read failed, falling back to database")
		missing = ids
	} else {
		for i, v := range values {
			raw, ok := v.(string)
			if !ok {
				missing = append(missing, ids[i])
				continue
			}
			var p models.Product
			if err := json.Unmarshal([]byte(raw), &p); err != nil {
				missing = append(missing, ids[i])
				continue
			}
			out[ids[i]] = p
		}
	}

	if len(missing) == 0 {
		return out, nil
	}

	loaded, err := c.source.ProductsByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, p := range loaded {
		out[id] = p
	}
	if err := c.store(ctx, loaded); err != nil {
		log.Warn().Err(err).Msg("failed to cache products in Redis")
	}
	return out, nil
}

func (c *ProductCache) store(ctx context.Context, products map[string]models.Product) error {
	if len(products) == 0 {
		return nil
	}
	pipe := c.client.TxPipeline()
	for id, p := range products {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to marshal product %s: %w", id, err)
		}
		pipe.Set(ctx, productKey(id), data, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute Redis pipeline: %w", err)
	}
	return nil
}

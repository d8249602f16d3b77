// Package cache provides a two-tier read cache for the product catalog.
// Tier one is an in-process LRU, tier two an optional shared Redis. Both
// tiers hold serialized JSON values keyed by entity.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/storefrontd/storefrontd/pkg/observability"
)

// ErrMiss is returned when a key is in neither cache tier
var ErrMiss = errors.New("cache miss")

// Cache is a two-tier catalog cache. The zero value is not usable, use New.
type Cache struct {
	local   *lru.Cache[string, []byte]
	redis   *redis.Client
	ttl     time.Duration
	metrics *observability.Metrics
}

// New creates a cache with the given L1 size and entry TTL. redisClient may
// be nil, in which case only the in-process tier is used. metrics may be nil.
func New(l1Size int, ttl time.Duration, redisClient *redis.Client, metrics *observability.Metrics) (*Cache, error) {
	local, err := lru.New[string, []byte](l1Size)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return &Cache{
		local:   local,
		redis:   redisClient,
		ttl:     ttl,
		metrics: metrics,
	}, nil
}

// ProductKey builds the cache key for a single product
func ProductKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

// CategoriesKey is the cache key for the full category listing
const CategoriesKey = "categories"

// Get returns the cached value for key, promoting Redis hits into the
// local tier. Returns ErrMiss when the key is in neither tier.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	if value, ok := c.local.Get(key); ok {
		c.recordHit("local")
		return value, nil
	}

	if c.redis != nil {
		value, err := c.redis.Get(ctx, key).Bytes()
		if err == nil {
			c.local.Add(key, value)
			c.recordHit("redis")
			return value, nil
		}
		if !errors.Is(err, redis.Nil) {
			// Redis being down degrades to a miss, not a failure.
			c.recordMiss()
			return nil, ErrMiss
		}
	}

	c.recordMiss()
	return nil, ErrMiss
}

// Set stores value under key in both tiers
func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	c.local.Add(key, value)
	if c.redis != nil {
		if err := c.redis.Set(ctx, key, value, c.ttl).Err(); err != nil {
			return fmt.Errorf("failed to set redis key %s: %w", key, err)
		}
	}
	return nil
}

// Invalidate removes keys from both tiers. Called after catalog writes.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		c.local.Remove(key)
	}
	if c.redis != nil && len(keys) > 0 {
		if err := c.redis.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to invalidate redis keys: %w", err)
		}
	}
	return nil
}

func (c *Cache) recordHit(tier string) {
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.WithLabelValues(tier).Inc()
	}
}

func (c *Cache) recordMiss() {
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

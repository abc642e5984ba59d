// Package cache provides an optional Redis read cache for campaign summaries.
//
// The cache is best-effort: misses and Redis failures fall through to the
// store, and a cache constructed without an address is a no-op so deployments
// without Redis need no special casing.
package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 30 * time.Second

// Cache is a best-effort byte cache keyed by string.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a cache backed by the Redis instance at addr. An empty addr
// returns a disabled cache.
func New(addr string, ttl time.Duration) *Cache {
	if addr == "" {
		return &Cache{}
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

// Enabled reports whether the cache is backed by a Redis client.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// Get returns the cached value for key and whether it was present.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if !c.Enabled() {
		return nil, false
	}
	value, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("cache read failed key=%s error=%v", key, err)
		return nil, false
	}
	return value, true
}

// Set stores value under key with the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		log.Printf("cache write failed key=%s error=%v", key, err)
	}
}

// Invalidate drops the cached value for key.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		log.Printf("cache invalidation failed key=%s error=%v", key, err)
	}
}

// Close releases the Redis connection. Nil-safe for disabled caches.
func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

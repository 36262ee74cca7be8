package semesters

import (
	"context"
	"time"

	"gradecalc/internal/cache"
)

// CachedKV serves reads from an LRU cache in front of a slow KV.
// Writes go to the backend first and refresh the cache only on success.
type CachedKV struct {
	next  KV
	cache *cache.LRUCache[string]
}

var _ KV = (*CachedKV)(nil)

// NewCachedKV wraps next with a small TTL cache.
func NewCachedKV(next KV, ttl time.Duration) *CachedKV {
	return &CachedKV{next: next, cache: cache.NewLRUCache[string](16, ttl)}
}

// Cache exposes the underlying cache for registration with a cache.Manager.
func (c *CachedKV) Cache() *cache.LRUCache[string] { return c.cache }

func (c *CachedKV) Get(ctx context.Context, key string) (string, bool, error) {
	if v, ok := c.cache.Get(key); ok {
		return v, true, nil
	}
	v, ok, err := c.next.Get(ctx, key)
	if err != nil || !ok {
		return v, ok, err
	}
	c.cache.Set(key, v)
	return v, true, nil
}

func (c *CachedKV) Put(ctx context.Context, key, value string) error {
	if err := c.next.Put(ctx, key, value); err != nil {
		c.cache.Delete(key)
		return err
	}
	c.cache.Set(key, value)
	return nil
}

func (c *CachedKV) Delete(ctx context.Context, key string) error {
	c.cache.Delete(key)
	return c.next.Delete(ctx, key)
}

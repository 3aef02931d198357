package cache

import (
	"context"
	"errors"
	"log"
	"time"
)

type CacheHelper[T any] struct {
	Cache      *Cache
	Expiration time.Duration
}

func NewCacheHelper[T any](cache *Cache, expiration time.Duration) *CacheHelper[T] {
	return &CacheHelper[T]{Cache: cache, Expiration: expiration}
}

// Handle returns the cached value for key, or the result of fn when it is missing. A nil
// helper or cache always calls fn.
func (c *CacheHelper[T]) Handle(ctx context.Context, key string, fn func() (T, error)) (T, error) {
	var out T
	if c == nil || c.Cache == nil {
		return fn()
	}
	if err := c.Cache.GetJSON(ctx, key, &out); err == nil {
		return out, nil
	} else if !errors.Is(err, ErrMiss) {
		log.Printf("cache lookup %s failed: %v", key, err)
	}
	out, err := fn()
	if err != nil {
		return out, err
	}
	if err := c.Cache.SetJSON(ctx, key, out, c.Expiration); err != nil {
		log.Printf("cache store %s failed: %v", key, err)
	}
	return out, nil
}

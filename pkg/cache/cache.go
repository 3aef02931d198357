package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/matst80/slask-grocery/pkg/common/jsoncompat"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var ErrMiss = errors.New("cache miss")

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slaskgrocery_cache_hits_total",
		Help: "Cache hits by layer",
	}, []string{"layer"})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slaskgrocery_cache_misses_total",
		Help: "Cache lookups that found nothing",
	})
)

type localEntry struct {
	expires time.Time
	data    []byte
}

// Cache keeps encoded values in memory and, when an address is configured, in redis.
type Cache struct {
	Addr     string
	Password string
	DB       int
	client   *redis.Client
	mu       sync.RWMutex
	memCache map[string]localEntry
	now      func() time.Time
}

// NewCache returns a memory only cache when addr is empty.
func NewCache(addr, password string, db int) *Cache {
	c := &Cache{
		Addr:     addr,
		Password: password,
		DB:       db,
		memCache: make(map[string]localEntry),
		now:      time.Now,
	}
	if addr != "" {
		c.client = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		})
	}
	return c
}

func (c *Cache) HasRedis() bool {
	return c.client != nil
}

func (c *Cache) Ping(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	local, found := c.memCache[key]
	c.mu.RUnlock()
	if found {
		if c.now().Before(local.expires) {
			cacheHits.WithLabelValues("memory").Inc()
			return local.data, nil
		}
		c.mu.Lock()
		delete(c.memCache, key)
		c.mu.Unlock()
	}
	if c.client == nil {
		cacheMisses.Inc()
		return nil, ErrMiss
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		cacheMisses.Inc()
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	cacheHits.WithLabelValues("redis").Inc()
	ttl := time.Minute
	if remaining, err := c.client.TTL(ctx, key).Result(); err == nil && remaining > 0 && remaining < ttl {
		ttl = remaining
	}
	c.setLocal(key, data, ttl)
	return data, nil
}

func (c *Cache) setLocal(key string, data []byte, expiration time.Duration) {
	c.mu.Lock()
	c.memCache[key] = localEntry{expires: c.now().Add(expiration), data: data}
	c.mu.Unlock()
}

func (c *Cache) Set(ctx context.Context, key string, data []byte, expiration time.Duration) error {
	c.setLocal(key, data, expiration)
	if c.client == nil {
		return nil
	}
	return c.client.Set(ctx, key, data, expiration).Err()
}

// Prune drops expired entries from the memory layer.
func (c *Cache) Prune() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, entry := range c.memCache {
		if !now.Before(entry.expires) {
			delete(c.memCache, key)
			removed++
		}
	}
	return removed
}

// StartPruning prunes the memory layer every interval until stop is called.
func (c *Cache) StartPruning(interval time.Duration) (stop func()) {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				c.Prune()
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.memCache)
}

func (c *Cache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Cache) GetJSON(ctx context.Context, key string, out any) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	return jsoncompat.Unmarshal(data, out)
}

func (c *Cache) SetJSON(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := jsoncompat.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, expiration)
}

package cache

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"pincode-pricing/pkg/cache"
	"pincode-pricing/pkg/metrics"

	gocache "github.com/patrickmn/go-cache"
)

// entry wraps a cached value with its access bookkeeping. Only the atomic
// fields change after creation.
type entry struct {
	value      interface{}
	createdAt  time.Time
	ttl        time.Duration
	lastAccess atomic.Int64  // unix nanos
	recency    atomic.Uint64 // logical clock, orders LRU eviction
	accesses   atomic.Uint64
}

type memoryCache struct {
	store      *gocache.Cache
	defaultTTL time.Duration
	maxEntries int

	clock  atomic.Uint64
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewMemoryCache creates a bounded in-memory cache service
// defaultExpiration: TTL used when Set is called with cache.DefaultExpiration
// maxEntries: capacity; the least recently accessed entry is evicted beyond it
//
// Expired entries are removed lazily on read and by Cleanup; run a Janitor
// to sweep on an interval.
func NewMemoryCache(defaultExpiration time.Duration, maxEntries int) cache.CacheService {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &memoryCache{
		// cleanupInterval 0: sweeping is driven by Cleanup so removals can be counted
		store:      gocache.New(defaultExpiration, 0),
		defaultTTL: defaultExpiration,
		maxEntries: maxEntries,
	}
}

func (c *memoryCache) Get(key string) (interface{}, bool) {
	v, found := c.store.Get(key)
	if !found {
		// go-cache keeps expired items until DeleteExpired; drop this one now.
		c.store.Delete(key)
		c.misses.Add(1)
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	e := v.(*entry)
	c.touch(e)
	c.hits.Add(1)
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return e.value, true
}

func (c *memoryCache) Set(key string, value interface{}, duration time.Duration) {
	if duration == cache.DefaultExpiration {
		duration = c.defaultTTL
	}

	if _, exists := c.store.Get(key); !exists && c.store.ItemCount() >= c.maxEntries {
		c.store.DeleteExpired()
		if c.store.ItemCount() >= c.maxEntries {
			c.evictLeastRecent()
		}
	}

	e := &entry{
		value:     value,
		createdAt: time.Now(),
		ttl:       duration,
	}
	c.touch(e)
	c.store.Set(key, e, duration)
}

func (c *memoryCache) Has(key string) bool {
	_, found := c.store.Get(key)
	return found
}

func (c *memoryCache) Delete(key string) {
	c.store.Delete(key)
}

func (c *memoryCache) DeleteFunc(match func(key string) bool) int {
	removed := 0
	for key := range c.store.Items() {
		if match(key) {
			c.store.Delete(key)
			removed++
		}
	}
	if removed > 0 {
		metrics.CacheRemovals.WithLabelValues("invalidated").Add(float64(removed))
	}
	return removed
}

func (c *memoryCache) Flush() {
	c.store.Flush()
}

func (c *memoryCache) Cleanup() int {
	before := c.store.ItemCount()
	c.store.DeleteExpired()
	removed := before - c.store.ItemCount()
	if removed < 0 {
		// concurrent Sets landed during the sweep
		removed = 0
	}
	if removed > 0 {
		metrics.CacheRemovals.WithLabelValues("expired").Add(float64(removed))
	}
	metrics.CacheEntries.Set(float64(c.store.ItemCount()))
	return removed
}

func (c *memoryCache) GetOrSet(ctx context.Context, key string, fetch cache.Fetcher, duration time.Duration) (interface{}, error) {
	if val, found := c.Get(key); found {
		return val, nil
	}

	val, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	c.Set(key, val, duration)
	return val, nil
}

// Stats counts only live entries; expired ones awaiting a sweep are excluded.
func (c *memoryCache) Stats() cache.Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return cache.Stats{
		Hits:    hits,
		Misses:  misses,
		Size:    len(c.store.Items()),
		HitRate: hitRate,
	}
}

func (c *memoryCache) touch(e *entry) {
	e.lastAccess.Store(time.Now().UnixNano())
	e.recency.Store(c.clock.Add(1))
	e.accesses.Add(1)
}

// evictLeastRecent removes the single entry with the oldest access. A linear
// scan is fine for the few thousand entries this cache is sized for.
func (c *memoryCache) evictLeastRecent() {
	var (
		oldestKey string
		oldest    uint64 = math.MaxUint64
	)
	for key, item := range c.store.Items() {
		e := item.Object.(*entry)
		if r := e.recency.Load(); r < oldest {
			oldest = r
			oldestKey = key
		}
	}
	if oldestKey != "" {
		c.store.Delete(oldestKey)
		metrics.CacheRemovals.WithLabelValues("evicted").Inc()
	}
}

package cache

import (
	"context"
	"time"
)

// DefaultExpiration tells Set to use the store's configured default TTL.
const DefaultExpiration time.Duration = 0

// Fetcher loads a value on a cache miss.
type Fetcher func(ctx context.Context) (interface{}, error)

// Stats is a point-in-time view of the cache counters.
type Stats struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	Size    int     `json:"size"`
	HitRate float64 `json:"hitRate"`
}

// CacheService defines the behavior for caching mechanisms
type CacheService interface {
	// Get retrieves a value from the cache
	// Returns value, true if found and not expired
	// Returns nil, false otherwise; counts a hit or a miss
	Get(key string) (interface{}, bool)

	// Set adds a value to the cache with a duration
	// DefaultExpiration selects the store default
	Set(key string, value interface{}, duration time.Duration)

	// Has reports whether a live entry exists without touching access stats
	Has(key string) bool

	// Delete removes a value from the cache
	Delete(key string)

	// DeleteFunc removes every entry whose key matches and returns the count
	DeleteFunc(match func(key string) bool) int

	// Flush removes all items
	Flush()

	// Cleanup drops expired entries and returns how many were removed
	Cleanup() int

	// GetOrSet returns the cached value or stores the fetched one.
	// Concurrent misses on one key may all call fetch; the last Set wins.
	GetOrSet(ctx context.Context, key string, fetch Fetcher, duration time.Duration) (interface{}, error)

	Stats() Stats
}

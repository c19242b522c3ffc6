package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/pricing")

	cfg := FromEnv()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 6, cfg.PincodeLength)
	assert.Equal(t, 5*time.Minute, cfg.PriceCacheTTL)
	assert.Equal(t, 60*time.Second, cfg.NegativeCacheTTL)
	assert.Equal(t, 1000, cfg.CacheMaxEntries)
	assert.Equal(t, int32(50), cfg.DBMaxConns)
	require.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/pricing")
	t.Setenv("PRICE_CACHE_TTL", "10m")
	t.Setenv("CACHE_MAX_ENTRIES", "50")
	t.Setenv("DB_MAX_CONNS", "7")
	t.Setenv("BULK_CONCURRENCY", "not-a-number")

	cfg := FromEnv()

	assert.Equal(t, 10*time.Minute, cfg.PriceCacheTTL)
	assert.Equal(t, 50, cfg.CacheMaxEntries)
	assert.Equal(t, int32(7), cfg.DBMaxConns)
	assert.Equal(t, 0, cfg.BulkConcurrency)
}

func TestValidate(t *testing.T) {
	t.Run("missing dsn", func(t *testing.T) {
		cfg := FromEnv()
		cfg.DBUrl = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative ttl must be shorter", func(t *testing.T) {
		cfg := FromEnv()
		cfg.DBUrl = "postgres://localhost/pricing"
		cfg.NegativeCacheTTL = cfg.PriceCacheTTL
		assert.Error(t, cfg.Validate())
	})

	t.Run("cleanup interval must be positive", func(t *testing.T) {
		for _, v := range []string{"0s", "-1m"} {
			t.Setenv("DB_DSN", "postgres://localhost/pricing")
			t.Setenv("CACHE_CLEANUP_INTERVAL", v)
			cfg := FromEnv()
			assert.ErrorContains(t, cfg.Validate(), "CACHE_CLEANUP_INTERVAL", v)
		}
	})

	t.Run("request timeout must be positive", func(t *testing.T) {
		for _, v := range []string{"0s", "-5s"} {
			t.Setenv("DB_DSN", "postgres://localhost/pricing")
			t.Setenv("REQUEST_TIMEOUT", v)
			cfg := FromEnv()
			assert.ErrorContains(t, cfg.Validate(), "REQUEST_TIMEOUT", v)
		}
	})
}

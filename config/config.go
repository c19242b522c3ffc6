package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DBUrl         string
	JWTSecret     string
	AllowedOrigin string
	// DB Config
	DBMaxConns        int32
	DBMinConns        int32
	DBMaxConnIdleTime time.Duration
	// Pincode rules
	PincodeLength   int
	DefaultCurrency string
	// Price cache
	PriceCacheTTL        time.Duration
	NegativeCacheTTL     time.Duration
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
	// Bulk lookups
	BulkMaxItems    int
	BulkConcurrency int
	// Cross-instance invalidation (optional)
	RedisURL            string
	InvalidationChannel string
	// HTTP
	RateLimitRPS   float64
	RateLimitBurst int
	RequestTimeout time.Duration
}

func LoadConfig() *Config {
	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			log.Printf("Warning: Failed to load config file '%s': %v", configFile, err)
		} else {
			log.Printf("Loaded configuration from %s", configFile)
		}
	} else {
		// .env is optional; containers rely on real env vars.
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found or error loading it, relying on system env vars")
		}
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("CRITICAL: %v", err)
	}
	if cfg.JWTSecret == "default_secret_CHANGE_ME" {
		log.Println("WARNING: Using default JWT secret. Admin endpoints are not safe in production.")
	}
	return cfg
}

// FromEnv builds a Config from the process environment without validating it.
func FromEnv() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DBUrl:         getEnv("DB_DSN", ""),
		JWTSecret:     getEnv("JWT_SECRET", "default_secret_CHANGE_ME"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),

		DBMaxConns:        getInt32Env("DB_MAX_CONNS", 50),
		DBMinConns:        getInt32Env("DB_MIN_CONNS", 10),
		DBMaxConnIdleTime: getDurationEnv("DB_MAX_CONN_IDLE_TIME", time.Minute*15),

		PincodeLength:   getIntEnv("PINCODE_LENGTH", 6),
		DefaultCurrency: getEnv("DEFAULT_CURRENCY", "inr"),

		// Cache defaults: 5m prices, 60s negatives, 1000 entries, sweep every 5m
		PriceCacheTTL:        getDurationEnv("PRICE_CACHE_TTL", 5*time.Minute),
		NegativeCacheTTL:     getDurationEnv("NEGATIVE_CACHE_TTL", 60*time.Second),
		CacheMaxEntries:      getIntEnv("CACHE_MAX_ENTRIES", 1000),
		CacheCleanupInterval: getDurationEnv("CACHE_CLEANUP_INTERVAL", 5*time.Minute),

		BulkMaxItems:    getIntEnv("BULK_MAX_ITEMS", 100),
		BulkConcurrency: getIntEnv("BULK_CONCURRENCY", 0),

		RedisURL:            getEnv("REDIS_URL", ""),
		InvalidationChannel: getEnv("INVALIDATION_CHANNEL", "pincode-pricing:invalidate"),

		RateLimitRPS:   getFloat64Env("RATE_LIMIT_RPS", 50),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 100),
		RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", 10*time.Second),
	}
}

func (c *Config) Validate() error {
	if c.DBUrl == "" {
		return errors.New("DB_DSN environment variable is required")
	}
	if c.PincodeLength < 1 {
		return errors.New("PINCODE_LENGTH must be positive")
	}
	if c.CacheMaxEntries < 1 {
		return errors.New("CACHE_MAX_ENTRIES must be positive")
	}
	if c.NegativeCacheTTL <= 0 || c.PriceCacheTTL <= 0 {
		return errors.New("cache TTLs must be positive")
	}
	if c.NegativeCacheTTL >= c.PriceCacheTTL {
		return errors.New("NEGATIVE_CACHE_TTL must be shorter than PRICE_CACHE_TTL")
	}
	if c.BulkMaxItems < 1 {
		return errors.New("BULK_MAX_ITEMS must be positive")
	}
	if c.CacheCleanupInterval <= 0 {
		return errors.New("CACHE_CLEANUP_INTERVAL must be positive")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using fallback", key)
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("Invalid int for %s, using fallback", key)
	}
	return fallback
}

func getFloat64Env(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Printf("Invalid float for %s, using fallback", key)
	}
	return fallback
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pincode-pricing/config"
	"pincode-pricing/internal/delivery/http/middleware"
	v1 "pincode-pricing/internal/delivery/http/v1"
	"pincode-pricing/internal/domain"
	"pincode-pricing/internal/infrastructure/cache"
	"pincode-pricing/internal/infrastructure/invalidation"
	"pincode-pricing/internal/repository/postgres"
	"pincode-pricing/internal/usecase"
	"pincode-pricing/pkg/logger"
	"pincode-pricing/pkg/utils"

	"github.com/NYTimes/gziphandler"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const serviceName = "pincode-pricing"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg := config.LoadConfig()
	utils.SetSecret(cfg.JWTSecret)

	logger.Init(cfg.Env, cfg.LogLevel)
	log := logger.Get()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	pgxPool, err := postgres.NewPgxPool(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pgxPool.Close()
	log.Info().Msg("Successfully connected to PostgreSQL via pgx")

	// Repositories
	locationRepo := postgres.NewLocationRepository(pgxPool)
	priceRepo := postgres.NewPriceRepository(pgxPool, cfg.DefaultCurrency)

	// Price cache with a background sweep for expired entries
	priceCache := cache.NewMemoryCache(cfg.PriceCacheTTL, cfg.CacheMaxEntries)
	janitor := cache.NewJanitor(ctx, priceCache, cfg.CacheCleanupInterval)

	// Optional cross-instance invalidation
	var (
		redisClient *redis.Client
		publisher   domain.InvalidationPublisher
	)
	if cfg.RedisURL != "" {
		redisClient, err = invalidation.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		publisher = invalidation.NewRedisBus(redisClient, cfg.InvalidationChannel)
	}

	registry := usecase.NewLocationRegistry(locationRepo, cfg.PincodeLength)
	resolver := usecase.NewPriceResolver(priceRepo, cfg.BulkConcurrency)
	pricingUC := usecase.NewPincodePricingUsecase(registry, resolver, priceCache, publisher, usecase.PricingOptions{
		PositiveTTL:  cfg.PriceCacheTTL,
		NegativeTTL:  cfg.NegativeCacheTTL,
		BulkMaxItems: cfg.BulkMaxItems,
	})

	var listener *invalidation.Listener
	if redisClient != nil {
		listener = invalidation.NewListener(redisClient, cfg.InvalidationChannel, pricingUC.InstanceID(), pricingUC.ApplyInvalidation)
		if err := listener.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to subscribe to cache invalidations")
		}
	}

	pricingHandler := v1.NewPricingHandler(pricingUC)
	adminPricingHandler := v1.NewAdminPricingHandler(pricingUC)

	mux := http.NewServeMux()

	// Pricing (Public)
	mux.HandleFunc("GET /api/v1/pricing/{itemId}", pricingHandler.GetPrice)
	mux.HandleFunc("POST /api/v1/pricing/bulk", pricingHandler.BulkGetPrices)
	mux.HandleFunc("POST /api/v1/pricing/availability", pricingHandler.CheckAvailability)
	mux.HandleFunc("GET /api/v1/pincodes/search", pricingHandler.SearchLocations)
	mux.HandleFunc("POST /api/v1/pincodes/check", pricingHandler.CheckServiceabilityBulk)
	mux.HandleFunc("GET /api/v1/pincodes/{code}", pricingHandler.CheckServiceability)

	// Admin (Protected)
	adminMiddleware := func(h http.HandlerFunc) http.Handler {
		return middleware.AuthMiddleware(middleware.AdminMiddleware(h))
	}
	mux.Handle("GET /api/v1/admin/pricing/items/{itemId}/locations", adminMiddleware(adminPricingHandler.ListItemLocations))
	mux.Handle("GET /api/v1/admin/pricing/stats", adminMiddleware(adminPricingHandler.GetStats))
	mux.Handle("POST /api/v1/admin/pricing/invalidate", adminMiddleware(adminPricingHandler.Invalidate))
	mux.Handle("DELETE /api/v1/admin/pricing/cache", adminMiddleware(adminPricingHandler.ClearCache))

	// Health Check
	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"status": "ok", "db": "connected"}
		code := http.StatusOK
		if err := pgxPool.Ping(pingCtx); err != nil {
			status["status"], status["db"] = "degraded", "unreachable"
			code = http.StatusServiceUnavailable
		}
		if redisClient != nil {
			status["redis"] = "connected"
			if err := redisClient.Ping(pingCtx).Err(); err != nil {
				// Pricing still works locally without the invalidation bus.
				status["redis"] = "unreachable"
			}
		}
		utils.WriteJSON(w, code, status)
	}
	mux.HandleFunc("GET /api/v1/health", healthHandler)
	mux.HandleFunc("GET /health", healthHandler)
	mux.Handle("GET /metrics", promhttp.Handler())

	rateLimiter := middleware.NewRateLimiter(
		ctx,
		rate.Limit(cfg.RateLimitRPS),
		cfg.RateLimitBurst,
		time.Minute,
		3*time.Minute,
	)

	// Metrics sits next to the mux so it sees the matched route pattern.
	handler := middleware.Metrics(mux)
	handler = http.TimeoutHandler(handler, cfg.RequestTimeout, `{"success":false,"message":"request timed out"}`)
	handler = rateLimiter.Middleware()(handler)
	handler = middleware.RequestLogger(handler)
	handler = middleware.NewCORSMiddleware(cfg)(handler)
	handler = gziphandler.GzipHandler(handler)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()
	logger.ServiceStart(serviceName, version, cfg.Port)
	log.Info().Str("instance_id", pricingUC.InstanceID()).Msg("Price cache instance ready")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	rateLimiter.Shutdown()
	janitor.Shutdown()
	if listener != nil {
		listener.Shutdown()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	stop()

	logger.ServiceStop(serviceName)
}

// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Price cache lookups partitioned by result (hit, miss)
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_cache_lookups_total",
			Help: "Price cache lookups by result",
		},
		[]string{"result"},
	)

	// Entries removed from the price cache partitioned by cause (expired, evicted, invalidated)
	CacheRemovals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_cache_removals_total",
			Help: "Entries removed from the price cache by cause",
		},
		[]string{"cause"},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "price_cache_entries",
			Help: "Entries physically held by the price cache after the last sweep",
		},
	)

	// Pricing resolutions partitioned by outcome (resolved or an unavailable reason)
	Resolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pincode_price_resolutions_total",
			Help: "Single-item price resolutions by outcome",
		},
		[]string{"outcome", "source"},
	)

	// Duplicate active prices found for one item/zone pair
	PriceAnomalies = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pincode_price_duplicate_active_total",
			Help: "Item/zone pairs that returned more than one active price",
		},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)
)

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProviderAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_resolver_provider_attempts_total",
			Help: "Provider resolution attempts by outcome (success, error, no_key)",
		},
		[]string{"provider", "outcome"},
	)

	ResolutionLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weather_resolver_provider_latency_seconds",
			Help:    "Provider pipeline latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	ResolutionsExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "weather_resolver_resolutions_exhausted_total",
			Help: "Resolutions where every provider in the chain failed",
		},
	)

	StationProbes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_resolver_station_probes_total",
			Help: "Station observation probes by outcome (accepted, recorded, stale, incomplete, error)",
		},
		[]string{"outcome"},
	)

	NowcastBackfills = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_resolver_nowcast_backfills_total",
			Help: "Nowcast backfill attempts by outcome (success, empty, error)",
		},
		[]string{"provider", "outcome"},
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_resolver_upstream_requests_total",
			Help: "Outbound upstream HTTP requests by provider and status class",
		},
		[]string{"provider", "status"},
	)
)

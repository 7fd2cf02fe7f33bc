package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestCounter counts HTTP requests by status code, method, and path
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chimu_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"status", "method", "path"},
	)

	// RequestDuration measures HTTP request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chimu_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status", "method", "path"},
	)

	// JamTransitions counts automatic lifecycle transitions by edge
	JamTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chimu_jam_transitions_total",
			Help: "Total number of automatic jam status transitions",
		},
		[]string{"from", "to"},
	)

	// SweepDuration measures a full lifecycle sweep
	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chimu_lifecycle_sweep_duration_seconds",
			Help:    "Lifecycle sweep duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// SweepFailures counts per-jam persistence failures inside a sweep
	SweepFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chimu_lifecycle_sweep_failures_total",
			Help: "Total number of per-jam failures during lifecycle sweeps",
		},
	)

	// LeaderboardComputeDuration measures leaderboard aggregation
	LeaderboardComputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chimu_leaderboard_compute_duration_seconds",
			Help:    "Leaderboard computation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// LeaderboardCacheHits / Misses track the redis leaderboard cache
	LeaderboardCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chimu_leaderboard_cache_hits_total",
			Help: "Total number of leaderboard cache hits",
		},
	)
	LeaderboardCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chimu_leaderboard_cache_misses_total",
			Help: "Total number of leaderboard cache misses",
		},
	)
)

// Package metrics provides Prometheus metrics for observability.
// Metrics are organized by domain: HTTP requests, the cache tiers, the
// request deduplicator and engine mutations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "wiki"
)

// Label values shared with callers.
const (
	TierFast = "fast"
	TierSlow = "slow"

	ResultHit  = "hit"
	ResultMiss = "miss"

	DedupLeader    = "leader"
	DedupShared    = "shared"
	DedupAbandoned = "abandoned"
	DedupFallback  = "fallback"
)

var (
	// HTTP metrics - track request volume and latency
	HTTPPanics = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "panics_total",
			Help:      "Handler panics caught by the recovery middleware",
		},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route, and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	// Cache metrics - hit ratio per tier
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by tier and result",
		},
		[]string{"tier", "result"},
	)

	CacheSlowWriteDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "slow_write_drops_total",
			Help:      "Slow-tier writes dropped because the tier rejected them (quota or fault)",
		},
	)

	CacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "invalidations_total",
			Help:      "Invalidation patterns applied",
		},
	)

	// Deduplicator metrics - how often concurrent reads collapse
	DedupCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dedup",
			Name:      "calls_total",
			Help:      "Deduplicated fetches by role: leader, shared, abandoned, fallback",
		},
		[]string{"role"},
	)

	// Engine metrics - mutation outcomes
	SavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "saves_total",
			Help:      "Successful saves by outcome (applied, queued)",
		},
		[]string{"outcome"},
	)

	ReviewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "reviews_total",
			Help:      "Resolved pending changes by decision",
		},
		[]string{"decision"},
	)

	RevisionConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "revision_conflicts_total",
			Help:      "Revision-number allocations that lost a race and were retried",
		},
	)

	ViewUpdatesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "view_updates_dropped_total",
			Help:      "View-count increments dropped because the buffer was full or the flush failed",
		},
	)
)

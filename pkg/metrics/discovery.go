package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Catalog fetch outcomes.
const (
	FetchSuccess = "success"
	FetchFailure = "failure"
	FetchStale   = "stale"
)

// Supplier lookup outcomes.
const (
	LookupSuccess  = "success"
	LookupFallback = "fallback"
	LookupCacheHit = "cache_hit"
)

// DiscoveryMetrics records catalog fetches, supplier lookups, and live sessions.
type DiscoveryMetrics struct {
	fetchDuration  *prometheus.HistogramVec
	fetches        *prometheus.CounterVec
	lookups        *prometheus.CounterVec
	activeSessions prometheus.Gauge
}

// NewDiscoveryMetrics registers the discovery metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewDiscoveryMetrics(reg prometheus.Registerer) *DiscoveryMetrics {
	if reg == nil {
		return &DiscoveryMetrics{}
	}
	fetchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_fetch_duration_seconds",
		Help:    "Duration of marketplace catalog fetches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_fetch_total",
		Help: "Catalog fetches by outcome; stale fetches were superseded by a newer one.",
	}, []string{"outcome"})
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "supplier_lookup_total",
		Help: "Supplier name lookups by outcome.",
	}, []string{"outcome"})
	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "discovery_active_sessions",
		Help: "Browsing sessions currently held in memory.",
	})
	reg.MustRegister(fetchDuration, fetches, lookups, activeSessions)
	return &DiscoveryMetrics{
		fetchDuration:  fetchDuration,
		fetches:        fetches,
		lookups:        lookups,
		activeSessions: activeSessions,
	}
}

// ObserveFetch records a completed catalog fetch.
func (d *DiscoveryMetrics) ObserveFetch(outcome string, duration time.Duration) {
	if d == nil || d.fetches == nil {
		return
	}
	label := normalizeLabel(outcome)
	d.fetches.WithLabelValues(label).Inc()
	d.fetchDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// IncLookup counts a supplier lookup outcome.
func (d *DiscoveryMetrics) IncLookup(outcome string) {
	if d == nil || d.lookups == nil {
		return
	}
	d.lookups.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// SetActiveSessions publishes the current session count.
func (d *DiscoveryMetrics) SetActiveSessions(n int) {
	if d == nil || d.activeSessions == nil {
		return
	}
	d.activeSessions.Set(float64(n))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

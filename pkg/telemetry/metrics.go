package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for the resolution engine. A nil or
// disabled Metrics is a no-op, so call sites never need to guard.
type Metrics struct {
	config MetricsConfig

	manifestLoads prometheus.Counter
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	resolutions   *prometheus.CounterVec
	warningsSeen  prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return &Metrics{config: cfg}
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "lman"
	}

	m := &Metrics{
		config:   cfg,
		registry: prometheus.NewRegistry(),
		manifestLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "manifest_loads_total",
			Help:      "Number of manifest files parsed from disk.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Number of cache lookups served without re-parsing.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Number of cache lookups that required a load.",
		}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Number of resolution requests by outcome.",
		}, []string{"outcome"}),
		warningsSeen: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warnings_total",
			Help:      "Number of manifest warnings surfaced.",
		}),
	}

	m.registry.MustRegister(
		m.manifestLoads,
		m.cacheHits,
		m.cacheMisses,
		m.resolutions,
		m.warningsSeen,
	)
	return m
}

// Handler returns an HTTP handler serving the metrics registry, for hosts
// that embed the engine in a long-running process.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordLoad counts one manifest parsed from disk.
func (m *Metrics) RecordLoad() {
	if m != nil && m.manifestLoads != nil {
		m.manifestLoads.Inc()
	}
}

// RecordCacheHit counts one cache lookup served from memory or store.
func (m *Metrics) RecordCacheHit() {
	if m != nil && m.cacheHits != nil {
		m.cacheHits.Inc()
	}
}

// RecordCacheMiss counts one cache lookup that required a load.
func (m *Metrics) RecordCacheMiss() {
	if m != nil && m.cacheMisses != nil {
		m.cacheMisses.Inc()
	}
}

// RecordResolution counts one resolution request by outcome
// ("ok" or the error kind).
func (m *Metrics) RecordResolution(outcome string) {
	if m != nil && m.resolutions != nil {
		m.resolutions.WithLabelValues(outcome).Inc()
	}
}

// RecordWarnings counts surfaced warnings.
func (m *Metrics) RecordWarnings(n int) {
	if m != nil && m.warningsSeen != nil && n > 0 {
		m.warningsSeen.Add(float64(n))
	}
}

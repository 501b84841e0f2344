// Package metrics exposes Prometheus instrumentation for the generation
// engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcome labels.
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusTimeout = "timeout"
	StatusProxy   = "proxy"
)

// Cache tier labels.
const (
	TierLocal = "local"
	TierStore = "store"
)

// Collector records engine activity. All metrics share one namespace so
// several engines in one process can be told apart by it.
type Collector struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	meshVertices    *prometheus.HistogramVec

	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	cacheEvictions prometheus.Counter

	inFlight prometheus.Gauge
}

// New creates a collector registered on reg. A nil reg selects the
// default Prometheus registerer.
func New(namespace string, reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of geometry requests",
			},
			[]string{"form", "quality", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Geometry generation duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15},
			},
			[]string{"quality"},
		),
		meshVertices: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "mesh_vertices",
				Help:      "Vertex count of generated buffers",
				Buckets:   prometheus.ExponentialBuckets(8, 4, 8),
			},
			[]string{"quality"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"tier"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"tier"},
		),
		cacheEvictions: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_evictions_total",
				Help:      "Total number of cache entries evicted",
			},
		),
		inFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "requests_in_flight",
				Help:      "Number of requests awaiting a worker response",
			},
		),
	}
}

// RecordRequest counts one finished request and its duration.
func (c *Collector) RecordRequest(form, quality, status string, duration time.Duration) {
	c.requestsTotal.WithLabelValues(form, quality, status).Inc()
	c.requestDuration.WithLabelValues(quality).Observe(duration.Seconds())
}

// RecordMesh observes the size of one generated buffer.
func (c *Collector) RecordMesh(quality string, vertices int) {
	c.meshVertices.WithLabelValues(quality).Observe(float64(vertices))
}

// RecordCacheHit counts a hit on the given tier.
func (c *Collector) RecordCacheHit(tier string) {
	c.cacheHits.WithLabelValues(tier).Inc()
}

// RecordCacheMiss counts a miss on the given tier.
func (c *Collector) RecordCacheMiss(tier string) {
	c.cacheMisses.WithLabelValues(tier).Inc()
}

// RecordCacheEvictions counts n evicted entries.
func (c *Collector) RecordCacheEvictions(n int) {
	c.cacheEvictions.Add(float64(n))
}

// RequestStarted marks one request as in flight.
func (c *Collector) RequestStarted() {
	c.inFlight.Inc()
}

// RequestFinished marks one in-flight request as settled.
func (c *Collector) RequestFinished() {
	c.inFlight.Dec()
}

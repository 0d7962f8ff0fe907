package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry for HTTP, cache, store and
// realtime instrumentation.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	cacheLatency  prometheus.Histogram
	cacheHitRatio prometheus.Gauge
	cacheLookups  *prometheus.CounterVec

	storeDuration *prometheus.HistogramVec
	mutations     *prometheus.CounterVec

	liveConnections prometheus.Gauge
	broadcastFrames *prometheus.CounterVec
	evictions       prometheus.Counter

	reminders *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers every collector on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_latency_seconds",
			Help:    "Latency of delivery-day cache lookups",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cache_hit_ratio",
			Help: "Ratio of cache hits to total cache lookups",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups by result",
		}, []string{"result"}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "store_commit_duration_seconds",
			Help:    "Latency of fulfillment store commits",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"operation"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fulfillment_mutations_total",
			Help: "Fulfillment mutations by operation and outcome code",
		}, []string{"operation", "outcome"}),
		liveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "realtime_connections",
			Help: "Live operator connections",
		}),
		broadcastFrames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtime_frames_total",
			Help: "Realtime frames by message kind and delivery result",
		}, []string{"kind", "result"}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "realtime_dead_evictions_total",
			Help: "Connections evicted after a missed liveness ping",
		}),
		reminders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reminders_total",
			Help: "Reminder hand-offs by outcome",
		}, []string{"outcome"}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		m.requestDuration, m.requestTotal,
		m.cacheLatency, m.cacheHitRatio, m.cacheLookups,
		m.storeDuration, m.mutations,
		m.liveConnections, m.broadcastFrames, m.evictions,
		m.reminders, goroutines,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTPRequest records request latency and count.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache hit or miss and updates the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveStoreCommit records the latency of one store write.
func (m *MetricsService) ObserveStoreCommit(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.storeDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordMutation counts a coordinator mutation by its outcome code.
func (m *MetricsService) RecordMutation(operation, outcome string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(operation, outcome).Inc()
}

// SetLiveConnections updates the live connection gauge.
func (m *MetricsService) SetLiveConnections(n int) {
	if m == nil {
		return
	}
	m.liveConnections.Set(float64(n))
}

// RecordBroadcast counts delivered and dropped frames of one publish.
func (m *MetricsService) RecordBroadcast(kind string, delivered, dropped int) {
	if m == nil {
		return
	}
	m.broadcastFrames.WithLabelValues(kind, "delivered").Add(float64(delivered))
	m.broadcastFrames.WithLabelValues(kind, "dropped").Add(float64(dropped))
}

// RecordEviction counts a dead connection removal.
func (m *MetricsService) RecordEviction() {
	if m == nil {
		return
	}
	m.evictions.Inc()
}

// RecordReminder counts one reminder hand-off outcome.
func (m *MetricsService) RecordReminder(outcome string) {
	if m == nil {
		return
	}
	m.reminders.WithLabelValues(outcome).Inc()
}

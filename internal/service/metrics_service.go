package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic, the
// lead cache, the admissions pipeline and branch backfill runs.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	leadStatusUpdates *prometheus.CounterVec
	backfillUpdated   *prometheus.CounterVec
	backfillFailures  prometheus.Counter
	backfillBranches  prometheus.Counter
	backfillDuration  prometheus.Histogram

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	leadStatusUpdates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lead_status_updates_total",
		Help: "Lead moves between pipeline stages, by target stage",
	}, []string{"status"})

	backfillUpdated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backfill_records_updated_total",
		Help: "Rows assigned to a branch by the backfill, by entity",
	}, []string{"entity"})

	backfillFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "backfill_school_failures_total",
		Help: "Schools whose backfill aborted with an error",
	})

	backfillBranches := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "backfill_branches_created_total",
		Help: "Default branches provisioned by the backfill",
	})

	backfillDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "backfill_run_duration_seconds",
		Help:    "Wall time of complete backfill runs",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		leadStatusUpdates, backfillUpdated, backfillFailures, backfillBranches, backfillDuration, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:          registry,
		handler:           handler,
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		cacheLatency:      cacheLatency,
		cacheWrite:        cacheWrite,
		cacheHitRatio:     cacheHitRatio,
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
		leadStatusUpdates: leadStatusUpdates,
		backfillUpdated:   backfillUpdated,
		backfillFailures:  backfillFailures,
		backfillBranches:  backfillBranches,
		backfillDuration:  backfillDuration,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordLeadStatusUpdate counts a successful stage change.
func (m *MetricsService) RecordLeadStatusUpdate(status string) {
	if m == nil {
		return
	}
	m.leadStatusUpdates.WithLabelValues(status).Inc()
}

// RecordBackfillUpdate adds rows written for an entity.
func (m *MetricsService) RecordBackfillUpdate(entity string, rows int64) {
	if m == nil || rows <= 0 {
		return
	}
	m.backfillUpdated.WithLabelValues(entity).Add(float64(rows))
}

// RecordBackfillSchoolFailure counts a school whose run aborted.
func (m *MetricsService) RecordBackfillSchoolFailure() {
	if m == nil {
		return
	}
	m.backfillFailures.Inc()
}

// RecordBackfillBranchCreated counts a provisioned default branch.
func (m *MetricsService) RecordBackfillBranchCreated() {
	if m == nil {
		return
	}
	m.backfillBranches.Inc()
}

// ObserveBackfillRun records the wall time of a complete run.
func (m *MetricsService) ObserveBackfillRun(duration time.Duration) {
	if m == nil {
		return
	}
	m.backfillDuration.Observe(duration.Seconds())
}

package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/classroom-planner-api/internal/models"
)

const assignmentOutcomeSuccess = "success"

// MetricsService wraps a private Prometheus registry and keeps simple counters for snapshots.
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
	assignments     *prometheus.CounterVec
	seatingRuns     prometheus.Counter
	seatsFilled     prometheus.Gauge
	exportJobs      *prometheus.CounterVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	assignmentsOK        uint64
	assignmentsRejected  uint64
	seatingRunCount      uint64

	queueOnce  sync.Once
	queueDepth func() int
}

// NewMetricsService registers the HTTP, cache and planner collectors.
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
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache writes",
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

	assignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_assignments_total",
		Help: "Lesson to time block assignment attempts by outcome",
	}, []string{"outcome"})

	seatingRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "planner_seating_runs_total",
		Help: "Completed seating auto-arrange runs",
	})

	seatsFilled := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "planner_seats_filled",
		Help: "Occupied seats after the latest seating change",
	})

	exportJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_export_jobs_total",
		Help: "Schedule export jobs by final status",
	}, []string{"status"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		assignments, seatingRuns, seatsFilled, exportJobs, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		assignments:     assignments,
		seatingRuns:     seatingRuns,
		seatsFilled:     seatsFilled,
		exportJobs:      exportJobs,
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
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records a cache lookup and refreshes the hit ratio.
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
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration of cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordAssignment counts an assignment attempt. An empty outcome means success.
func (m *MetricsService) RecordAssignment(outcome string) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = assignmentOutcomeSuccess
	}
	m.assignments.WithLabelValues(outcome).Inc()
	if outcome == assignmentOutcomeSuccess {
		atomic.AddUint64(&m.assignmentsOK, 1)
	} else {
		atomic.AddUint64(&m.assignmentsRejected, 1)
	}
}

// RecordSeatingRun counts an auto-arrange run and the number of seats it filled.
func (m *MetricsService) RecordSeatingRun(filled int) {
	if m == nil {
		return
	}
	m.seatingRuns.Inc()
	m.seatsFilled.Set(float64(filled))
	atomic.AddUint64(&m.seatingRunCount, 1)
}

// RecordSeatsFilled updates the occupancy gauge after manual seat changes.
func (m *MetricsService) RecordSeatsFilled(filled int) {
	if m == nil {
		return
	}
	m.seatsFilled.Set(float64(filled))
}

// RecordExport counts an export job reaching a final status.
func (m *MetricsService) RecordExport(status models.ExportStatus) {
	if m == nil {
		return
	}
	m.exportJobs.WithLabelValues(string(status)).Inc()
}

// TrackExportQueue publishes the export queue depth as a gauge. Only the first call registers.
func (m *MetricsService) TrackExportQueue(depth func() int) {
	if m == nil || depth == nil {
		return
	}
	m.queueOnce.Do(func() {
		m.queueDepth = depth
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "planner_export_queue_depth",
			Help: "Export jobs buffered or waiting for a retry",
		}, func() float64 { return float64(depth()) }))
	})
}

// Snapshot returns aggregated counters for the metrics summary endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if lookups := hits + misses; lookups > 0 {
		cacheRatio = float64(hits) / float64(lookups)
	}
	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var queued int
	if m.queueDepth != nil {
		queued = m.queueDepth()
	}

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		AssignmentsAccepted:      atomic.LoadUint64(&m.assignmentsOK),
		AssignmentsRejected:      atomic.LoadUint64(&m.assignmentsRejected),
		SeatingRuns:              atomic.LoadUint64(&m.seatingRunCount),
		ExportsQueued:            queued,
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}

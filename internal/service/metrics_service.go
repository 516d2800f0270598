package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the gateway.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	catalogQueries  prometheus.Counter
	staleDiscarded  prometheus.Counter
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	submissionItems *prometheus.CounterVec
	submissionBatch prometheus.Counter
}

// NewMetricsService registers the gateway's Prometheus collectors.
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

	catalogQueries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_queries_total",
		Help: "Total catalog search queries accepted",
	})

	staleDiscarded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_stale_responses_discarded_total",
		Help: "Catalog responses discarded because a newer query superseded them",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "periods_cache_hits_total",
		Help: "Total periods cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "periods_cache_misses_total",
		Help: "Total periods cache misses",
	})

	submissionItems := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "enrollment_submission_items_total",
		Help: "Per-item enrollment submission outcomes",
	}, []string{"outcome"})

	submissionBatch := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "enrollment_submission_batches_total",
		Help: "Total enrollment submission batches processed",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, catalogQueries, staleDiscarded, cacheHits, cacheMisses, submissionItems, submissionBatch, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		catalogQueries:  catalogQueries,
		staleDiscarded:  staleDiscarded,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		submissionItems: submissionItems,
		submissionBatch: submissionBatch,
	}
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

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := []string{method, path, strconv.Itoa(status)}
	m.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveCatalogQuery counts an accepted catalog search.
func (m *MetricsService) ObserveCatalogQuery() {
	if m == nil {
		return
	}
	m.catalogQueries.Inc()
}

// ObserveStaleCatalogResponse counts a response discarded by the debounce
// generation check.
func (m *MetricsService) ObserveStaleCatalogResponse() {
	if m == nil {
		return
	}
	m.staleDiscarded.Inc()
}

// ObserveCacheLookup records a periods cache hit or miss.
func (m *MetricsService) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		return
	}
	m.cacheMisses.Inc()
}

// ObserveSubmissionBatch records the settled outcomes of one batch.
func (m *MetricsService) ObserveSubmissionBatch(succeeded, failed int) {
	if m == nil {
		return
	}
	m.submissionBatch.Inc()
	m.submissionItems.WithLabelValues("success").Add(float64(succeeded))
	m.submissionItems.WithLabelValues("failure").Add(float64(failed))
}

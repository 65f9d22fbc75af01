package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks operational metrics for the scraper. Each instance owns its
// own registry so tests and several services can coexist in one process.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	pagesFetched     *prometheus.CounterVec
	fetchDuration    *prometheus.HistogramVec
	reviewsExtracted prometheus.Counter
	scrapes          *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpLatency      *prometheus.HistogramVec
}

// NewMetrics creates a Metrics instance with all collectors registered.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pagesFetched: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "reviewgoat", Name: "pages_fetched_total", Help: "Pages fetched by request tag and status."},
			[]string{"tag", "status"},
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "reviewgoat", Name: "fetch_duration_seconds",
				Help:    "Page fetch duration seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tag"},
		),
		reviewsExtracted: prometheus.NewCounter(
			prometheus.CounterOpts{Namespace: "reviewgoat", Name: "reviews_extracted_total", Help: "Reviews extracted and normalized."},
		),
		scrapes: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "reviewgoat", Name: "scrapes_total", Help: "Finished scrapes by result."},
			[]string{"result"}, // result: ok|truncated|not_found|no_reviews|error
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "reviewgoat", Name: "http_requests_total", Help: "API requests."},
			[]string{"route", "method", "status"},
		),
		httpLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "reviewgoat", Name: "http_request_duration_seconds",
				Help:    "API request duration seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
	}

	m.registry.MustRegister(
		m.pagesFetched, m.fetchDuration, m.reviewsExtracted,
		m.scrapes, m.httpRequests, m.httpLatency,
	)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves metrics in Prometheus text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveFetch records one page fetch. status 0 means a network error.
func (m *Metrics) ObserveFetch(tag string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.pagesFetched.WithLabelValues(tag, label).Inc()
	m.fetchDuration.WithLabelValues(tag).Observe(dur.Seconds())
}

// AddReviews counts normalized reviews.
func (m *Metrics) AddReviews(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.reviewsExtracted.Add(float64(n))
}

// ObserveScrape records the outcome of a probe or full scrape.
func (m *Metrics) ObserveScrape(result string) {
	if m == nil {
		return
	}
	m.scrapes.WithLabelValues(result).Inc()
}

// ObserveHTTP records one API request.
func (m *Metrics) ObserveHTTP(route, method string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

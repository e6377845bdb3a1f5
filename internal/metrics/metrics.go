// Package metrics exposes Prometheus collectors for the jamscout service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pagesFetchedTotal          *prometheus.CounterVec
	crawlErrorsTotal           *prometheus.CounterVec
	crawlInFlight              prometheus.Gauge
	progressDroppedTotal       prometheus.Counter
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		pagesFetchedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jamscout_pages_fetched_total",
				Help: "Total number of jam listing pages walked, labeled by jam kind.",
			},
			[]string{"kind"},
		)

		crawlErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jamscout_crawl_errors_total",
				Help: "Total number of crawl failures, labeled by failure kind.",
			},
			[]string{"kind"},
		)

		crawlInFlight = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "jamscout_crawl_in_flight",
				Help: "Number of jam detail fetches currently in flight.",
			},
		)

		progressDroppedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "jamscout_progress_dropped_total",
				Help: "Total number of progress events dropped due to backpressure.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveListingPage increments the listing page counter for the given kind.
func ObserveListingPage(kind string) {
	pagesFetchedTotal.WithLabelValues(kind).Inc()
}

// ObserveCrawlError increments the crawl error counter for the given kind.
func ObserveCrawlError(kind string) {
	crawlErrorsTotal.WithLabelValues(kind).Inc()
}

// IncCrawlInFlight increments the in-flight fetch gauge.
func IncCrawlInFlight() {
	crawlInFlight.Inc()
}

// DecCrawlInFlight decrements the in-flight fetch gauge.
func DecCrawlInFlight() {
	crawlInFlight.Dec()
}

// ObserveProgressDrop increments the dropped progress event counter.
func ObserveProgressDrop() {
	progressDroppedTotal.Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

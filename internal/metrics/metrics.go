// Package metrics provides Prometheus metrics for the comparison service.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SourceFetchTotal counts adapter invocations by outcome (ok, empty, unavailable).
	SourceFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_fetch_total",
			Help: "Total number of price history fetches per source and outcome",
		},
		[]string{"source", "status"},
	)

	// SourceFetchDuration is a histogram of adapter latencies.
	SourceFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "source_fetch_duration_seconds",
			Help:    "Duration of price history fetches per source",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"source"},
	)

	// SourceSeriesPoints is the number of points in the last series returned per source and coin.
	SourceSeriesPoints = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "source_series_points",
			Help: "Number of points in the most recent series per source and coin",
		},
		[]string{"source", "coin"},
	)

	// CacheLookupsTotal counts comparison cache lookups by result (hit, miss, error).
	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Total number of comparison cache lookups",
		},
		[]string{"result"},
	)

	// HTTPRequestsTotal is a counter of total HTTP requests.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "status"},
	)

	// HTTPRequestDuration is a histogram of HTTP request latencies.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5, 10, 20},
		},
		[]string{"route"},
	)

	// RefreshRunsTotal counts scheduled refresh runs by result (ok, partial, failed, cancelled).
	RefreshRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refresh_runs_total",
			Help: "Total number of scheduled comparison refreshes",
		},
		[]string{"status"},
	)
)

var registerOnce sync.Once

// Init registers all collectors with the default registry.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			SourceFetchTotal,
			SourceFetchDuration,
			SourceSeriesPoints,
			CacheLookupsTotal,
			HTTPRequestsTotal,
			HTTPRequestDuration,
			RefreshRunsTotal,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordSourceFetch records one adapter invocation.
func RecordSourceFetch(source, coin, status string, points int, duration time.Duration) {
	SourceFetchTotal.WithLabelValues(source, status).Inc()
	SourceFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
	SourceSeriesPoints.WithLabelValues(source, coin).Set(float64(points))
}

// RecordCacheLookup records a cache hit, miss or error.
func RecordCacheLookup(result string) {
	CacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(route, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(route, status).Inc()
	HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordRefresh records the result of one scheduled refresh.
func RecordRefresh(status string) {
	RefreshRunsTotal.WithLabelValues(status).Inc()
}

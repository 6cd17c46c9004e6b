// Package metrics exposes the Prometheus instruments shared across the
// service. Registration happens once at package init; components bump
// the counters directly.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fanevents_http_request_duration_seconds",
		Help:    "HTTP request latency by method and status code.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})

	predictionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fanevents_prediction_requests_total",
		Help: "Prediction attempts by outcome (ok, parse_error, api_error).",
	}, []string{"outcome"})

	fallbackEstimates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fanevents_fallback_estimates_total",
		Help: "Cost estimates served by the deterministic fallback.",
	})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fanevents_event_cache_lookups_total",
		Help: "Event cache lookups by result (hit, miss).",
	}, []string{"result"})
)

// Handler serves the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest records one completed HTTP request.
func ObserveRequest(method string, status int, duration time.Duration) {
	requestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(duration.Seconds())
}

// PredictionRequest records the outcome of one model-backed prediction.
func PredictionRequest(outcome string) {
	predictionRequests.WithLabelValues(outcome).Inc()
}

// FallbackEstimate records one deterministic cost estimate.
func FallbackEstimate() {
	fallbackEstimates.Inc()
}

// CacheLookup records an event-cache hit or miss.
func CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(result).Inc()
}

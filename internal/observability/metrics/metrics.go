package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pesona_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pesona_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	authAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pesona_auth_attempts_total",
		Help: "Count of login and refresh attempts by result",
	}, []string{"operation", "result"})

	contentMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pesona_content_mutations_total",
		Help: "Count of create/update/delete operations by schema",
	}, []string{"schema", "action"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveAuthAttempt records a login or refresh outcome
func ObserveAuthAttempt(operation, result string) {
	authAttempts.WithLabelValues(operation, result).Inc()
}

// ObserveContentMutation records a successful mutating service call
func ObserveContentMutation(schema, action string) {
	contentMutations.WithLabelValues(schema, action).Inc()
}

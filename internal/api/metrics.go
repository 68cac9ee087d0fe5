package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const metricsNamespace = "commentariat"

var (
	// requestsTotal counts HTTP requests by route pattern, method and status.
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route, method and status code",
		},
		[]string{"route", "method", "status"},
	)

	// requestDuration measures request latency by route pattern and method.
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds by route and method",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		},
		[]string{"route", "method"},
	)
)

// routeLabel maps a request path to its route pattern. Raw paths would
// blow up label cardinality, one series per commentary and verse.
func routeLabel(path string) string {
	switch path {
	case "/", "/healthz", "/metrics", "/api/v1/books", "/api/v1/commentaries":
		return path
	}
	if strings.HasPrefix(path, "/api/v1/commentaries/") {
		rest := strings.Trim(strings.TrimPrefix(path, "/api/v1/commentaries/"), "/")
		switch len(strings.Split(rest, "/")) {
		case 1:
			return "/api/v1/commentaries/{commentary}"
		case 3:
			return "/api/v1/commentaries/{commentary}/{book}/{chapter}"
		case 4:
			return "/api/v1/commentaries/{commentary}/{book}/{chapter}/{verse}"
		}
	}
	return "other"
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// MetricsMiddleware records request counts and latencies.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := routeLabel(r.URL.Path)
		requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		requestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

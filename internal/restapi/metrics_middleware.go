package restapi

import (
	"net/http"
	"strconv"
	"time"

	"irisboard.dev/internal/metrics"
)

// MetricsHandler returns middleware that records HTTP metrics.
// If m is nil, returns a pass-through middleware that does nothing.
func MetricsHandler(m *metrics.Metrics) func(http.Handler) http.Handler {
	if m == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := newStatusRecorder(w)
			next.ServeHTTP(wrapped, r)

			// r.Pattern keeps label cardinality bounded by the route table.
			path := r.Pattern
			if path == "" {
				path = "unmatched"
			}

			status := strconv.Itoa(wrapped.statusCode)
			m.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

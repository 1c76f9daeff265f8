package middleware

import (
	"net/http"
	"time"

	"github.com/pulseboard/engine/pkg/metrics"
)

// Metrics returns middleware that records request counts and latency.
// Pass nil recorder to disable metrics collection.
func Metrics(recorder *metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if recorder == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			// Use the matched route pattern so path parameters do not
			// explode label cardinality.
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			recorder.ObserveHTTPRequest(r.Method, route, wrapped.statusCode, time.Since(start))
		})
	}
}

package middleware

import (
	"net/http"
	"time"
)

// unmatchedRoute labels requests that no mux pattern matched, keeping
// arbitrary paths out of metric labels.
const unmatchedRoute = "unmatched"

// HTTPRecorder receives per-request measurements.
type HTTPRecorder interface {
	RecordHTTPRequest(route, method string, status int, duration time.Duration)
}

// MetricsMiddleware records status and latency for each request, labelled
// by the matched ServeMux pattern. It must wrap the mux directly: the
// pattern is read from the request after the mux has routed it, which
// only works when the mux receives the same *http.Request.
func MetricsMiddleware(recorder HTTPRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if recorder == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			route := r.Pattern
			if route == "" {
				route = unmatchedRoute
			}
			recorder.RecordHTTPRequest(route, r.Method, rw.statusCode, time.Since(start))
		})
	}
}

// Chain applies middlewares so that the first one listed is outermost.
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

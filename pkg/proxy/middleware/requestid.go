package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"mercator-hq/toolproxy/pkg/proxy"
	"mercator-hq/toolproxy/pkg/telemetry/logging"
)

// maxRequestIDLength bounds client-supplied ids.
const maxRequestIDLength = 128

// RequestIDMiddleware puts a request id in the context and in the
// X-Request-ID response header. A client-supplied id is kept; otherwise a
// UUID v4 is generated.
//
// Example usage:
//
//	handler = RequestIDMiddleware(handler)
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := proxy.RequestID(r)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.NewString()
		}

		w.Header().Set(proxy.RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), requestID)))
	})
}

// GetRequestID returns the id assigned by RequestIDMiddleware.
func GetRequestID(ctx context.Context) string {
	return logging.GetRequestID(ctx)
}

package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"mercator-hq/toolproxy/pkg/proxy"
	"mercator-hq/toolproxy/pkg/proxy/types"
)

// RecoveryMiddleware turns a handler panic into a 500 {"detail"} reply and
// logs it with the stack. http.ErrAbortHandler is re-raised so net/http can
// abort the connection quietly.
//
// Example usage:
//
//	handler = RecoveryMiddleware(logger)(handler)
func RecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				err := recover()
				if err == nil {
					return
				}
				if err == http.ErrAbortHandler {
					panic(err)
				}

				logger.ErrorContext(r.Context(), "panic in handler",
					"error", err,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				_ = proxy.WriteErrorResponse(w, types.NewServerError("internal server error"))
			}()

			next.ServeHTTP(w, r)
		})
	}
}

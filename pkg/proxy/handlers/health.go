package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"mercator-hq/toolproxy/pkg/proxy"
	"mercator-hq/toolproxy/pkg/proxy/types"
	"mercator-hq/toolproxy/pkg/telemetry/health"
)

// HealthChecker reports backend reachability.
type HealthChecker interface {
	Check(ctx context.Context) health.Status
}

// HealthHandler serves GET /health. It always answers 200 and probes the
// backend on every call.
type HealthHandler struct {
	checker HealthChecker
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(c HealthChecker) *HealthHandler {
	return &HealthHandler{checker: c}
}

// ServeHTTP implements http.Handler.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := proxy.WriteJSONResponse(w, http.StatusOK, h.checker.Check(r.Context())); err != nil {
		slog.ErrorContext(r.Context(), "failed to write health status", "error", err)
	}
}

// MethodNotAllowed answers 405 {"detail"} for a known path with an
// unsupported method.
func MethodNotAllowed(allow string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allow)
		_ = proxy.WriteErrorResponse(w, types.NewMethodNotAllowedError(r.Method))
	})
}

// NotFound answers 404 {"detail"} for unknown paths.
func NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = proxy.WriteErrorResponse(w, types.NewNotFoundError("Not Found"))
	})
}

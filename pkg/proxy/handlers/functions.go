package handlers

import (
	"log/slog"
	"net/http"

	"mercator-hq/toolproxy/pkg/proxy"
	"mercator-hq/toolproxy/pkg/tools"
)

// FunctionPathValue is the path wildcard naming the function to invoke.
const FunctionPathValue = "function_name"

// FunctionHandler serves POST /v1/functions/{function_name}. Every outcome,
// including unknown names and malformed parameters, is a 200 reply with a
// {"result"} or {"error"} body.
type FunctionHandler struct {
	dispatcher   *tools.Dispatcher
	maxBodyBytes int64
	logger       *slog.Logger
}

// NewFunctionHandler creates a function invocation handler.
func NewFunctionHandler(d *tools.Dispatcher, maxBodyBytes int64, logger *slog.Logger) *FunctionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FunctionHandler{dispatcher: d, maxBodyBytes: maxBodyBytes, logger: logger}
}

// ServeHTTP implements http.Handler.
func (h *FunctionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.PathValue(FunctionPathValue)

	var out tools.Outcome
	params, err := proxy.ParseFunctionParams(r, h.maxBodyBytes)
	if err != nil {
		h.logger.WarnContext(ctx, "rejected function parameters", "function", name, "error", err)
		out = tools.Failure(err.Error())
	} else {
		out = h.dispatcher.Dispatch(ctx, name, params)
	}

	if err := proxy.WriteJSONResponse(w, http.StatusOK, out); err != nil {
		h.logger.ErrorContext(ctx, "failed to write function result", "function", name, "error", err)
	}
}

// FunctionList is the GET /v1/functions reply.
type FunctionList struct {
	Functions []tools.Schema `json:"functions"`
}

// ListFunctionsHandler serves GET /v1/functions with the registered tool
// schemas in registration order.
type ListFunctionsHandler struct {
	registry *tools.Registry
}

// NewListFunctionsHandler creates a schema listing handler.
func NewListFunctionsHandler(r *tools.Registry) *ListFunctionsHandler {
	return &ListFunctionsHandler{registry: r}
}

// ServeHTTP implements http.Handler.
func (h *ListFunctionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := proxy.WriteJSONResponse(w, http.StatusOK, FunctionList{Functions: h.registry.Schemas()}); err != nil {
		slog.ErrorContext(r.Context(), "failed to write function list", "error", err)
	}
}

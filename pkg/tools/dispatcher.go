package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"mercator-hq/toolproxy/pkg/telemetry/tracing"
)

// Outcome labels reported to the Recorder.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid_params"
	OutcomePanic    = "panic"
)

// Recorder receives one observation per dispatch.
type Recorder interface {
	RecordToolInvocation(tool, outcome string, duration time.Duration)
}

// Dispatcher resolves function invocations against a Registry and runs
// them. It holds no mutable state.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
	recorder Recorder
	tracer   trace.Tracer
	validate bool
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) DispatcherOption {
	return func(d *Dispatcher) { d.recorder = r }
}

// WithTracer sets the tracer used for dispatch spans.
func WithTracer(t trace.Tracer) DispatcherOption {
	return func(d *Dispatcher) {
		if t != nil {
			d.tracer = t
		}
	}
}

// WithValidation toggles parameter schema validation (on by default).
func WithValidation(enabled bool) DispatcherOption {
	return func(d *Dispatcher) { d.validate = enabled }
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		logger:   slog.Default(),
		tracer:   noop.NewTracerProvider().Tracer(""),
		validate: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the registry the dispatcher resolves against.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch runs the named tool. It never panics and never returns a Go
// error: every failure, including unknown names and handler panics, is a
// Failure outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, params Params) (out Outcome) {
	start := time.Now()
	label := OutcomeSuccess
	ctx, span := d.tracer.Start(ctx, "tools.dispatch")

	defer func() {
		if r := recover(); r != nil {
			label = OutcomePanic
			d.logger.ErrorContext(ctx, "tool handler panicked",
				"tool", name,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			out = Failure(fmt.Sprintf("function %s failed: %v", name, r))
		}
		if d.recorder != nil {
			d.recorder.RecordToolInvocation(name, label, time.Since(start))
		}
		tracing.SetToolAttributes(span, name, label)
		if label != OutcomeSuccess {
			span.SetStatus(codes.Error, label)
		}
		span.End()
	}()

	tool, ok := d.registry.Resolve(name)
	if !ok {
		label = OutcomeNotFound
		d.logger.WarnContext(ctx, "unknown function requested", "tool", name)
		return Failure(fmt.Sprintf("Function %s not found", name))
	}

	if params == nil {
		params = Params{}
	}

	if d.validate {
		if err := tool.Validate(params); err != nil {
			label = OutcomeInvalid
			d.logger.InfoContext(ctx, "function parameters rejected", "tool", name, "error", err)
			return Failure(err.Error())
		}
	}

	result, err := tool.Handler(ctx, params)
	if err != nil {
		label = OutcomeError
		d.logger.InfoContext(ctx, "function failed",
			"tool", name,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return Failure(err.Error())
	}

	d.logger.DebugContext(ctx, "function completed",
		"tool", name,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return Success(result)
}

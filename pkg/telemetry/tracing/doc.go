// Package tracing provides OpenTelemetry tracing for the proxy.
//
// When telemetry.tracing.enabled is set, New installs an SDK tracer
// provider exporting over OTLP/gRPC and a W3C trace-context propagator.
// Three places open spans:
//   - the server middleware, one server span per HTTP request, continuing
//     any incoming traceparent;
//   - the backend client, one client span per completion or stream, whose
//     context is injected into the outgoing request headers;
//   - the tool dispatcher, one span per function invocation.
//
// With tracing disabled every span is a noop and no headers are injected.
//
//	tracer, err := tracing.New(ctx, cfg.Telemetry.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
// Sampling is parent-based: "always", "never" or "ratio" decides only for
// traces that start at the proxy.
package tracing

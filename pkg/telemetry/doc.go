// Package telemetry groups the proxy's observability packages:
//
//   - logging: slog setup and request-scoped attributes
//   - metrics: Prometheus collectors for HTTP, backend and tool traffic
//   - tracing: OpenTelemetry spans exported over OTLP
//   - health: backend reachability probing and scheduled reporting
package telemetry

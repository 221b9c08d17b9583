package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys specific to this proxy. HTTP attributes use the
// OpenTelemetry semantic conventions.
const (
	AttrRequestID   = "toolproxy.request_id"
	AttrTool        = "toolproxy.tool"
	AttrToolOutcome = "toolproxy.tool.outcome"
	AttrBackendMode = "toolproxy.backend.mode"
	AttrStreamBytes = "toolproxy.stream.bytes"
)

// SetToolAttributes tags a dispatch span.
func SetToolAttributes(span trace.Span, tool, outcome string) {
	span.SetAttributes(
		attribute.String(AttrTool, tool),
		attribute.String(AttrToolOutcome, outcome),
	)
}

// SetError records err on the span and marks it failed. A nil error marks
// the span OK.
func SetError(span trace.Span, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

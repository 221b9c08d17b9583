package tools

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mercator-hq/toolproxy/pkg/telemetry/tracing"
)

func TestDispatcher_Spans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer tp.Shutdown(context.Background())

	d := NewDispatcher(buildRegistry(t), WithTracer(tp.Tracer("test")))

	d.Dispatch(context.Background(), "read_file", Params{"file_path": "a.txt"})
	d.Dispatch(context.Background(), "boom", Params{})

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("ended %d spans, want 2", len(spans))
	}

	tests := []struct {
		tool    string
		outcome string
		status  codes.Code
	}{
		{tool: "read_file", outcome: OutcomeSuccess, status: codes.Unset},
		{tool: "boom", outcome: OutcomePanic, status: codes.Error},
	}
	for i, tt := range tests {
		span := spans[i]
		if span.Name() != "tools.dispatch" {
			t.Errorf("span %d name = %q", i, span.Name())
		}
		attrs := map[string]string{}
		for _, kv := range span.Attributes() {
			attrs[string(kv.Key)] = kv.Value.Emit()
		}
		if attrs[tracing.AttrTool] != tt.tool || attrs[tracing.AttrToolOutcome] != tt.outcome {
			t.Errorf("span %d attributes = %v", i, attrs)
		}
		if span.Status().Code != tt.status {
			t.Errorf("span %d status = %v, want %v", i, span.Status().Code, tt.status)
		}
	}
}

package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"mercator-hq/toolproxy/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:   true,
		Namespace: "test",
		Path:      "/metrics",
	}
}

func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector.Registry() != registry {
		t.Error("Collector registry not set correctly")
	}
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordHTTPRequest("POST /v1/chat/completions", "POST", 200, 150*time.Millisecond)
	collector.RecordHTTPRequest("POST /v1/chat/completions", "POST", 200, 90*time.Millisecond)
	collector.RecordHTTPRequest("", "GET", 404, time.Millisecond)

	got := testutil.ToFloat64(collector.httpMetrics.requestsTotal.WithLabelValues("POST /v1/chat/completions", "POST", "200"))
	if got != 2 {
		t.Errorf("requests_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.httpMetrics.requestsTotal.WithLabelValues("unmatched", "GET", "404")); got != 1 {
		t.Errorf("unmatched requests_total = %v, want 1", got)
	}
}

func TestCollector_RecordBackend(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordBackendRequest("json", "success", 200*time.Millisecond)
	collector.RecordBackendRequest("stream", "unreachable", time.Millisecond)
	collector.RecordStreamBytes(512)
	collector.RecordStreamBytes(0)
	collector.SetBackendReachable(true)

	if got := testutil.ToFloat64(collector.backendMetrics.requestsTotal.WithLabelValues("stream", "unreachable")); got != 1 {
		t.Errorf("stream unreachable = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.backendMetrics.streamBytes); got != 512 {
		t.Errorf("stream bytes = %v, want 512", got)
	}
	if got := testutil.ToFloat64(collector.backendMetrics.reachable); got != 1 {
		t.Errorf("reachable = %v, want 1", got)
	}

	collector.SetBackendReachable(false)
	if got := testutil.ToFloat64(collector.backendMetrics.reachable); got != 0 {
		t.Errorf("reachable = %v, want 0", got)
	}
}

func TestCollector_RecordToolInvocation_CardinalityLimit(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	collector.toolNames = NewCardinalityLimiter(2)

	collector.RecordToolInvocation("read_file", "success", time.Millisecond)
	collector.RecordToolInvocation("read_pdf", "error", time.Millisecond)
	collector.RecordToolInvocation("made_up_1", "not_found", time.Millisecond)
	collector.RecordToolInvocation("made_up_2", "not_found", time.Millisecond)

	if got := testutil.ToFloat64(collector.toolMetrics.invocationsTotal.WithLabelValues("read_file", "success")); got != 1 {
		t.Errorf("read_file success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.toolMetrics.invocationsTotal.WithLabelValues(OtherLabel, "not_found")); got != 2 {
		t.Errorf("other not_found = %v, want 2", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, nil)

	collector.RecordToolInvocation("read_file", "success", time.Millisecond)

	if got := testutil.CollectAndCount(collector.toolMetrics.invocationsTotal); got != 0 {
		t.Errorf("disabled collector recorded %d series", got)
	}
}

func TestCollector_NilSafe(t *testing.T) {
	var collector *Collector
	collector.RecordHTTPRequest("GET /health", "GET", 200, time.Millisecond)
	collector.RecordBackendRequest("json", "success", time.Millisecond)
	collector.RecordStreamBytes(10)
	collector.SetBackendReachable(true)
	collector.RecordToolInvocation("read_file", "success", time.Millisecond)
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	collector.RecordToolInvocation("extract_text", "success", 5*time.Millisecond)

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `test_tool_invocations_total{outcome="success",tool="extract_text"} 1`) {
		t.Errorf("metrics output missing tool counter:\n%s", rec.Body.String())
	}
}

func TestCardinalityLimiter_Concurrent(t *testing.T) {
	cl := NewCardinalityLimiter(10)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cl.Allow(fmt.Sprintf("v%d", i%20))
		}(i)
	}
	wg.Wait()

	if cl.Count() != 10 {
		t.Errorf("Count() = %d, want 10", cl.Count())
	}
	allowed := 0
	for i := 0; i < 20; i++ {
		if cl.Allow(fmt.Sprintf("v%d", i)) {
			allowed++
		}
	}
	if allowed != 10 {
		t.Errorf("allowed %d values after limit, want the 10 admitted ones", allowed)
	}
}

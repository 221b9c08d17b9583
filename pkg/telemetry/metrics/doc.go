// Package metrics provides Prometheus metrics for toolproxy.
//
// A Collector registers three groups of metrics on its own registry:
//
//   - HTTP: requests served, by matched route, method and status
//   - Backend: forwarded completions by mode and outcome, stream bytes and
//     the latest health probe result
//   - Tools: function invocations by tool and outcome
//
// Usage:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	mux.Handle("GET /metrics", collector.Handler())
//	collector.RecordToolInvocation("read_file", "success", 3*time.Millisecond)
package metrics

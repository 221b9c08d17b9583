package metrics

import (
	"time"

	"mercator-hq/toolproxy/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ToolMetrics tracks function dispatches.
//
// Metrics:
//   - toolproxy_tool_invocations_total{tool,outcome}
//   - toolproxy_tool_duration_seconds{tool}
type ToolMetrics struct {
	invocationsTotal *prometheus.CounterVec
	duration         *prometheus.HistogramVec
}

// NewToolMetrics creates and registers tool metrics.
func NewToolMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ToolMetrics {
	m := &ToolMetrics{
		invocationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "tool",
				Name:      "invocations_total",
				Help:      "Total number of function invocations by outcome",
			},
			[]string{"tool", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "tool",
				Name:      "duration_seconds",
				Help:      "Duration of function invocations in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
			},
			[]string{"tool"},
		),
	}

	registry.MustRegister(m.invocationsTotal, m.duration)
	return m
}

func (m *ToolMetrics) record(tool, outcome string, duration time.Duration) {
	m.invocationsTotal.WithLabelValues(tool, outcome).Inc()
	m.duration.WithLabelValues(tool).Observe(duration.Seconds())
}

package metrics

import (
	"time"

	"mercator-hq/toolproxy/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// BackendMetrics tracks traffic to the inference server.
//
// Metrics:
//   - toolproxy_backend_requests_total{mode,outcome}
//   - toolproxy_backend_request_duration_seconds{mode}
//   - toolproxy_backend_stream_bytes_total
//   - toolproxy_backend_reachable (1 reachable, 0 unreachable)
type BackendMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	streamBytes     prometheus.Counter
	reachable       prometheus.Gauge
}

// NewBackendMetrics creates and registers backend metrics.
func NewBackendMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *BackendMetrics {
	m := &BackendMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "backend",
				Name:      "requests_total",
				Help:      "Total number of completion requests forwarded to the backend",
			},
			[]string{"mode", "outcome"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "backend",
				Name:      "request_duration_seconds",
				Help:      "Time until the backend response headers arrived",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"mode"},
		),
		streamBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "backend",
				Name:      "stream_bytes_total",
				Help:      "Bytes relayed from backend event streams to clients",
			},
		),
		reachable: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "backend",
				Name:      "reachable",
				Help:      "Result of the latest backend health probe (1 reachable, 0 not)",
			},
		),
	}

	registry.MustRegister(m.requestsTotal, m.requestDuration, m.streamBytes, m.reachable)
	return m
}

func (m *BackendMetrics) record(mode, outcome string, duration time.Duration) {
	m.requestsTotal.WithLabelValues(mode, outcome).Inc()
	m.requestDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

func (m *BackendMetrics) setReachable(reachable bool) {
	if reachable {
		m.reachable.Set(1)
		return
	}
	m.reachable.Set(0)
}

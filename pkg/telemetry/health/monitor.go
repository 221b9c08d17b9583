package health

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// StatusHealthy is the only process status reported. Backend reachability
// is carried separately.
const StatusHealthy = "healthy"

// Prober checks backend reachability. A nil error means reachable.
type Prober interface {
	ProbeModels(ctx context.Context) error
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context) error

func (f ProberFunc) ProbeModels(ctx context.Context) error { return f(ctx) }

// Gauge receives the result of every probe.
type Gauge interface {
	SetBackendReachable(reachable bool)
}

// Status is the /health payload.
type Status struct {
	Status            string `json:"status"`
	LMStudioConnected bool   `json:"lmstudio_connected"`
}

// Monitor probes the backend on demand. Results are never cached.
type Monitor struct {
	prober Prober
	gauge  Gauge
	logger *slog.Logger

	mu    sync.Mutex
	known bool
	last  bool
	since time.Time
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithGauge sets the reachability gauge.
func WithGauge(g Gauge) Option {
	return func(m *Monitor) { m.gauge = g }
}

// WithLogger sets the monitor logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) { m.logger = logger }
}

// NewMonitor creates a monitor using prober.
func NewMonitor(prober Prober, opts ...Option) *Monitor {
	m := &Monitor{prober: prober, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Check probes the backend once. It never fails; any probe error means
// the backend is reported as not connected.
func (m *Monitor) Check(ctx context.Context) Status {
	err := m.prober.ProbeModels(ctx)
	reachable := err == nil

	if m.gauge != nil {
		m.gauge.SetBackendReachable(reachable)
	}
	m.observe(ctx, reachable, err)

	return Status{Status: StatusHealthy, LMStudioConnected: reachable}
}

// observe logs reachability transitions.
func (m *Monitor) observe(ctx context.Context, reachable bool, err error) {
	m.mu.Lock()
	changed := !m.known || m.last != reachable
	prevSince := m.since
	if changed {
		m.known = true
		m.last = reachable
		m.since = time.Now()
	}
	m.mu.Unlock()

	if !changed {
		return
	}
	switch {
	case reachable:
		m.logger.InfoContext(ctx, "backend reachable")
	case prevSince.IsZero():
		m.logger.WarnContext(ctx, "backend unreachable", "error", err)
	default:
		m.logger.WarnContext(ctx, "backend became unreachable",
			"error", err,
			"reachable_for", time.Since(prevSince).Round(time.Millisecond),
		)
	}
}

// Last returns the most recent probe result and whether any probe has run.
func (m *Monitor) Last() (reachable, known bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, m.known
}

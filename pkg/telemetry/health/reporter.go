package health

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Reporter runs Monitor.Check on a cron schedule so reachability changes
// show up in the logs and the gauge between /health calls.
type Reporter struct {
	monitor *Monitor
	cron    *cron.Cron
	logger  *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewReporter parses schedule (standard cron or a descriptor such as
// "@every 1m") and returns a stopped reporter.
func NewReporter(monitor *Monitor, schedule string, logger *slog.Logger) (*Reporter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Reporter{
		monitor: monitor,
		logger:  logger,
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
	if _, err := r.cron.AddFunc(schedule, r.probe); err != nil {
		return nil, fmt.Errorf("invalid probe schedule %q: %w", schedule, err)
	}
	return r, nil
}

func (r *Reporter) probe() {
	prev, known := r.monitor.Last()
	status := r.monitor.Check(context.Background())
	r.logger.Debug("scheduled backend probe",
		"lmstudio_connected", status.LMStudioConnected,
		"changed", !known || prev != status.LMStudioConnected,
	)
}

// Start begins running probes in the background.
func (r *Reporter) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true
	r.cron.Start()
	r.logger.Info("backend health reporter started", "next", r.cron.Entries()[0].Next)
}

// Stop halts the schedule and waits for a probe in flight, or until ctx
// is done.
func (r *Reporter) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	r.mu.Unlock()

	select {
	case <-r.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

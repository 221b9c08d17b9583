// Package health reports whether the inference backend is reachable.
//
// Monitor.Check probes the backend's model listing on every call and
// returns
//
//	{"status": "healthy", "lmstudio_connected": true}
//
// The process status is always "healthy"; only backend reachability
// varies. Reachability transitions are logged and, when a Gauge is
// attached, exported as a metric.
//
// Reporter runs the same probe on a cron schedule:
//
//	r, err := health.NewReporter(monitor, "@every 1m", logger)
//	if err != nil {
//		return err
//	}
//	r.Start()
//	defer r.Stop(ctx)
package health

// Package server wires the proxy handlers, middleware and health reporter
// into an HTTP server and manages its lifecycle.
//
// # Basic Usage
//
//	srv := server.NewServer(cfg, server.Deps{
//	    Forwarder:  backendClient,
//	    Dispatcher: dispatcher,
//	    Health:     monitor,
//	    Reporter:   reporter,
//	    Tracer:     tracer,
//	    Metrics:    collector,
//	    Logger:     logger,
//	})
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Cancelling ctx stops accepting connections and waits up to
// proxy.shutdown_timeout for in-flight requests. Open streams are cut when
// the grace period ends.
//
// # Routes
//
//   - POST /v1/chat/completions: completion passthrough, streaming or not
//   - GET /health: backend reachability, probed on every call
//   - GET /v1/functions: registered tool schemas
//   - POST /v1/functions/{function_name}: tool invocation
//   - GET /metrics: Prometheus exposition, when enabled
//
// Other methods on these paths answer 405 and unknown paths 404, both with
// a {"detail"} body.
package server

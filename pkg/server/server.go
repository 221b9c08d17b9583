package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"mercator-hq/toolproxy/pkg/config"
	"mercator-hq/toolproxy/pkg/proxy/handlers"
	"mercator-hq/toolproxy/pkg/proxy/middleware"
	"mercator-hq/toolproxy/pkg/telemetry/health"
	"mercator-hq/toolproxy/pkg/telemetry/metrics"
	"mercator-hq/toolproxy/pkg/telemetry/tracing"
	"mercator-hq/toolproxy/pkg/tools"
)

// Deps are the components the server routes requests to.
type Deps struct {
	// Forwarder relays chat completions to the backend.
	Forwarder handlers.Forwarder

	// Dispatcher invokes registered tools.
	Dispatcher *tools.Dispatcher

	// Health answers /health.
	Health handlers.HealthChecker

	// Reporter probes the backend on a schedule. Optional.
	Reporter *health.Reporter

	// Tracer opens a server span per request. Optional.
	Tracer *tracing.Tracer

	// Metrics records HTTP measurements and serves /metrics. Optional.
	Metrics *metrics.Collector

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Server is the toolproxy HTTP server.
type Server struct {
	config     *config.Config
	deps       Deps
	logger     *slog.Logger
	httpServer *http.Server

	mu        sync.RWMutex
	isRunning bool
	addr      net.Addr
	ready     chan struct{}
	readyOnce sync.Once
}

// NewServer creates a server. Nothing listens until Start.
func NewServer(cfg *config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config: cfg,
		deps:   deps,
		logger: logger,
		ready:  make(chan struct{}),
	}
}

// Start listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully. A listen failure is returned
// immediately.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Proxy.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Proxy.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		_ = ln.Close()
		return errors.New("server is already running")
	}
	p := s.config.Proxy
	s.httpServer = &http.Server{
		Handler:        s.Handler(),
		ReadTimeout:    p.ReadTimeout,
		WriteTimeout:   p.WriteTimeout,
		IdleTimeout:    p.IdleTimeout,
		MaxHeaderBytes: p.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.isRunning = true
	s.addr = ln.Addr()
	s.mu.Unlock()

	if s.deps.Reporter != nil {
		s.deps.Reporter.Start()
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting proxy server",
			"address", ln.Addr().String(),
			"backend", s.config.Backend.BaseURL,
		)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()
	s.readyOnce.Do(func() { close(s.ready) })

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.shutdown()
	case err, ok := <-errChan:
		_ = s.shutdown()
		if ok {
			return err
		}
		return nil
	}
}

// shutdown drains in-flight requests within the shutdown timeout and stops
// the health reporter.
func (s *Server) shutdown() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	s.logger.Info("initiating graceful shutdown", "timeout", s.config.Proxy.ShutdownTimeout.String())
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Proxy.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}
	if s.deps.Reporter != nil {
		if err := s.deps.Reporter.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("health reporter shutdown error: %w", err))
		}
	}

	s.logger.Info("proxy server stopped")
	return errors.Join(errs...)
}

// Ready is closed once the server is accepting connections.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return middleware.Chain(s.routes(),
		middleware.RecoveryMiddleware(s.logger),
		middleware.RequestIDMiddleware,
		middleware.LoggingMiddleware(s.logger),
		middleware.CORSMiddleware(s.config.Proxy.CORS),
		middleware.TracingMiddleware(s.deps.Tracer),
		middleware.MetricsMiddleware(s.deps.Metrics),
	)
}

func (s *Server) routes() *http.ServeMux {
	maxBody := s.config.Proxy.MaxBodyBytes
	mux := http.NewServeMux()

	mux.Handle("POST /v1/chat/completions", handlers.NewChatHandler(s.deps.Forwarder, maxBody, s.logger))
	mux.Handle("/v1/chat/completions", handlers.MethodNotAllowed(http.MethodPost))

	mux.Handle("GET /health", handlers.NewHealthHandler(s.deps.Health))
	mux.Handle("/health", handlers.MethodNotAllowed(http.MethodGet))

	mux.Handle("GET /v1/functions", handlers.NewListFunctionsHandler(s.deps.Dispatcher.Registry()))
	mux.Handle("/v1/functions", handlers.MethodNotAllowed(http.MethodGet))

	fn := "/v1/functions/{" + handlers.FunctionPathValue + "}"
	mux.Handle("POST "+fn, handlers.NewFunctionHandler(s.deps.Dispatcher, maxBody, s.logger))
	mux.Handle(fn, handlers.MethodNotAllowed(http.MethodPost))

	if m := s.config.Telemetry.Metrics; m.Enabled && s.deps.Metrics != nil {
		mux.Handle("GET "+m.Path, s.deps.Metrics.Handler())
	}

	mux.Handle("/", handlers.NotFound())
	return mux
}

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"mercator-hq/toolproxy/pkg/backend"
	"mercator-hq/toolproxy/pkg/cli"
	"mercator-hq/toolproxy/pkg/config"
	"mercator-hq/toolproxy/pkg/server"
	"mercator-hq/toolproxy/pkg/telemetry/health"
	"mercator-hq/toolproxy/pkg/telemetry/metrics"
	"mercator-hq/toolproxy/pkg/telemetry/tracing"
	"mercator-hq/toolproxy/pkg/tools"
	"mercator-hq/toolproxy/pkg/tools/builtin"
)

var runFlags struct {
	listenAddress string
	backendURL    string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the proxy server",
	Long: `Start the proxy server with the specified configuration.

The tool schema document is loaded before the server starts; a missing or
malformed document aborts startup.

Examples:
  # Start with configs/config.yaml or defaults
  toolproxy run

  # Point at another backend
  toolproxy run --backend http://localhost:1234

  # Validate config and tool schemas without starting the server
  toolproxy run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.backendURL, "backend", "", "override backend base URL")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate configuration without starting the server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runFlags.listenAddress != "" {
		cfg.Proxy.ListenAddress = runFlags.listenAddress
	}
	if runFlags.backendURL != "" {
		cfg.Backend.BaseURL = runFlags.backendURL
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError("", "invalid configuration", err)
	}

	logger, err := setupLogger(cfg)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	registry, err := loadRegistry(cfg, logger)
	if err != nil {
		return cli.NewConfigError("tools.schema_path", "failed to load tools", err)
	}

	out := cmd.OutOrStdout()
	if runFlags.dryRun {
		fmt.Fprintf(out, "✓ Configuration valid (%d tools)\n", registry.Len())
		return nil
	}

	tracer, err := tracing.New(contextOf(cmd), cfg.Telemetry.Tracing, tracing.WithServiceVersion(Version))
	if err != nil {
		return cli.NewConfigError("telemetry.tracing", "failed to start tracing", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Proxy.ShutdownTimeout)
		defer cancel()
		if err := tracer.Shutdown(ctx); err != nil {
			logger.Warn("failed to flush traces", "error", err)
		}
	}()

	client := backend.NewClient(cfg.Backend,
		backend.WithLogger(logger),
		backend.WithRecorder(collector),
		backend.WithTracer(tracer.Tracer()),
	)
	defer client.Close()

	dispatcher := tools.NewDispatcher(registry,
		tools.WithLogger(logger),
		tools.WithRecorder(collector),
		tools.WithTracer(tracer.Tracer()),
		tools.WithValidation(cfg.Tools.ValidateParameters),
	)
	monitor := health.NewMonitor(client, health.WithGauge(collector), health.WithLogger(logger))

	var reporter *health.Reporter
	if cfg.Health.ProbeSchedule != "" {
		reporter, err = health.NewReporter(monitor, cfg.Health.ProbeSchedule, logger)
		if err != nil {
			return cli.NewConfigError("health.probe_schedule", "invalid schedule", err)
		}
	}

	srv := server.NewServer(cfg, server.Deps{
		Forwarder:  client,
		Dispatcher: dispatcher,
		Health:     monitor,
		Reporter:   reporter,
		Tracer:     tracer,
		Metrics:    collector,
		Logger:     logger,
	})

	ctx, stop := cli.SetupSignalHandler(contextOf(cmd))
	defer stop()

	errChan := make(chan error, 1)
	go func() { errChan <- srv.Start(ctx) }()

	select {
	case err := <-errChan:
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		return nil
	case <-srv.Ready():
	}

	addr := srv.Addr().String()
	fmt.Fprintf(out, "toolproxy v%s\n", Version)
	fmt.Fprintf(out, "✓ Backend: %s\n", client.ChatURL())
	fmt.Fprintf(out, "✓ Tools loaded: %d\n", registry.Len())
	fmt.Fprintf(out, "✓ Server listening on %s\n", addr)
	fmt.Fprintf(out, "✓ Health endpoint: http://%s/health\n", addr)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Fprintf(out, "✓ Metrics endpoint: http://%s%s\n", addr, cfg.Telemetry.Metrics.Path)
	}
	if tracer.Enabled() {
		fmt.Fprintf(out, "✓ Tracing to %s\n", cfg.Telemetry.Tracing.Endpoint)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	if err := <-errChan; err != nil {
		return cli.NewCommandError("run", err)
	}
	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}

// loadRegistry loads the schema document and binds the builtin handlers.
func loadRegistry(cfg *config.Config, logger *slog.Logger) (*tools.Registry, error) {
	doc, err := tools.LoadDocument(cfg.Tools.SchemaPath)
	if err != nil {
		return nil, err
	}
	return builtin.NewRegistry(doc, builtin.OptionsFromConfig(cfg.Tools, logger))
}

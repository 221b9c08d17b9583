package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/toolproxy/pkg/backend"
	"mercator-hq/toolproxy/pkg/cli"
	"mercator-hq/toolproxy/pkg/telemetry/health"
)

var healthFlags struct {
	backendURL string
	format     string
}

// errBackendUnreachable makes `toolproxy health` exit non-zero.
var errBackendUnreachable = errors.New("backend unreachable")

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe the inference backend once",
	Long: `Probe the backend's model listing endpoint and report whether it is
reachable. Exits non-zero when it is not.

Examples:
  toolproxy health
  toolproxy health --backend http://localhost:1234 --format json`,
	RunE: runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)

	healthCmd.Flags().StringVar(&healthFlags.backendURL, "backend", "", "override backend base URL")
	healthCmd.Flags().StringVar(&healthFlags.format, "format", "text", "output format: text, json")
}

func runHealth(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(healthFlags.format)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if healthFlags.backendURL != "" {
		cfg.Backend.BaseURL = healthFlags.backendURL
	}
	logger, err := setupLogger(cfg)
	if err != nil {
		return err
	}

	client := backend.NewClient(cfg.Backend, backend.WithLogger(logger))
	defer client.Close()

	status := health.NewMonitor(client, health.WithLogger(logger)).Check(contextOf(cmd))

	out := cmd.OutOrStdout()
	if format == cli.FormatJSON {
		if err := cli.NewFormatter(format).FormatTo(out, status); err != nil {
			return err
		}
	} else if status.LMStudioConnected {
		fmt.Fprintf(out, "✓ Backend reachable at %s\n", client.ModelsURL())
	} else {
		fmt.Fprintf(out, "✗ Backend not reachable at %s\n", client.ModelsURL())
	}

	if !status.LMStudioConnected {
		return cli.NewCommandError("health", errBackendUnreachable)
	}
	return nil
}

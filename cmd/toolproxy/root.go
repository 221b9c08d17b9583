package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/toolproxy/pkg/cli"
	"mercator-hq/toolproxy/pkg/config"
	"mercator-hq/toolproxy/pkg/telemetry/logging"
)

const defaultConfigPath = "configs/config.yaml"

var (
	// Global flags
	cfgFile string
	envFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "toolproxy",
	Short: "Local tool proxy for OpenAI-compatible inference servers",
	Long: `toolproxy sits between a chat client and a locally hosted,
OpenAI-compatible inference server (LM Studio by default).

It provides:
  - Transparent chat completion forwarding, streaming and non-streaming
  - Local tools (files, PDFs, git repositories, web pages) callable over HTTP
  - Backend health reporting and Prometheus metrics`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with a status derived from the
// error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigPath, "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before TOOLPROXY_* overrides")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadConfig loads the .env file, the config file and TOOLPROXY_*
// overrides. A missing file at the default location falls back to
// defaults; an explicitly named file must exist.
func loadConfig() (*config.Config, error) {
	flags := rootCmd.PersistentFlags()

	if err := config.LoadDotEnv(envFile, flags.Changed("env-file")); err != nil {
		return nil, cli.NewConfigError("", "failed to load env file", err)
	}

	path := cfgFile
	if !flags.Changed("config") && !config.FileExists(path) {
		path = ""
	}
	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, cli.NewConfigError("", "failed to load config", err)
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	return cfg, nil
}

// setupLogger installs the configured logger as the slog default.
func setupLogger(cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.New(cfg.Telemetry.Logging, logging.Options{Writer: os.Stderr})
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", "invalid logging configuration", err)
	}
	slog.SetDefault(logger)
	return logger, nil
}

// contextOf returns the command context, which is nil when a command is run
// without Execute.
func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

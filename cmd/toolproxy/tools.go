package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/toolproxy/pkg/cli"
	"mercator-hq/toolproxy/pkg/tools"
)

var toolsFlags struct {
	file   string
	format string
	watch  bool
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Inspect the tool schema document",
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tools the proxy exposes",
	Long: `List every tool declared in the schema document with its parameters.

Examples:
  toolproxy tools list
  toolproxy tools list --format json`,
	RunE: listTools,
}

var toolsLintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate the tool schema document",
	Long: `Validate the tool schema document and check that every declared tool
has a builtin implementation.

With --watch the document is re-validated each time it is saved until
interrupted.

Examples:
  toolproxy tools lint
  toolproxy tools lint --file configs/tools.yaml --watch`,
	RunE: lintTools,
}

func init() {
	rootCmd.AddCommand(toolsCmd)
	toolsCmd.AddCommand(toolsListCmd, toolsLintCmd)

	toolsCmd.PersistentFlags().StringVarP(&toolsFlags.file, "file", "f", "", "schema document (default: tools.schema_path)")
	toolsListCmd.Flags().StringVar(&toolsFlags.format, "format", "text", "output format: text, json")
	toolsLintCmd.Flags().BoolVarP(&toolsFlags.watch, "watch", "w", false, "re-validate on every change")
}

func listTools(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(toolsFlags.format)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if toolsFlags.file != "" {
		cfg.Tools.SchemaPath = toolsFlags.file
	}
	logger, err := setupLogger(cfg)
	if err != nil {
		return err
	}

	registry, err := loadRegistry(cfg, logger)
	if err != nil {
		return cli.NewCommandError("tools list", err)
	}

	out := cmd.OutOrStdout()
	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(out, map[string]any{"functions": registry.Schemas()})
	}
	return cli.NewFormatter(format).FormatTo(out, schemaTable(registry.Schemas()))
}

// schemaTable renders schemas with required parameters marked by "*".
func schemaTable(schemas []tools.Schema) cli.Table {
	t := cli.Table{Headers: []string{"NAME", "PARAMETERS", "DESCRIPTION"}}
	for _, s := range schemas {
		names := make([]string, 0, len(s.Parameters.Properties))
		for name := range s.Parameters.Properties {
			if slices.Contains(s.Parameters.Required, name) {
				name += "*"
			}
			names = append(names, name)
		}
		slices.Sort(names)
		t.Rows = append(t.Rows, []string{s.Name, strings.Join(names, ", "), s.Description})
	}
	return t
}

func lintTools(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if toolsFlags.file != "" {
		cfg.Tools.SchemaPath = toolsFlags.file
	}
	logger, err := setupLogger(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	check := func() error {
		registry, err := loadRegistry(cfg, logger)
		return reportLint(out, cfg.Tools.SchemaPath, registry, err)
	}

	lintErr := check()
	if !toolsFlags.watch {
		if lintErr != nil {
			return cli.NewCommandError("tools lint", lintErr)
		}
		return nil
	}

	watcher, err := tools.NewWatcher(cfg.Tools.SchemaPath, tools.DefaultDebounceInterval, logger)
	if err != nil {
		return cli.NewCommandError("tools lint", err)
	}
	ctx, stop := cli.SetupSignalHandler(contextOf(cmd))
	defer stop()

	fmt.Fprintln(out, "Watching for changes (Ctrl+C to stop)")
	return watcher.Watch(ctx, check)
}

func reportLint(w io.Writer, path string, registry *tools.Registry, err error) error {
	if err != nil {
		fmt.Fprintf(w, "✗ %s\n", path)
		for _, line := range strings.Split(err.Error(), "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
		return err
	}
	fmt.Fprintf(w, "✓ %s: %d tools valid (%s)\n", path, registry.Len(), strings.Join(registry.Names(), ", "))
	return nil
}

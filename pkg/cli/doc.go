/*
Package cli provides helpers shared by the toolproxy commands.

Output Formatting:

Commands that print results honour a --format flag:

	format, err := cli.ParseOutputFormat(flagValue)
	if err != nil {
		return err
	}
	table := cli.Table{Headers: []string{"NAME", "REQUIRED"}, Rows: rows}
	return cli.NewFormatter(format).FormatTo(os.Stdout, table)

Errors:

ConfigError and CommandError wrap failures; ExitCode maps them to the
process exit status.

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli

/*
Package cli provides command-line helpers for the autoseo command.

Output Formatting:

Command results render as aligned text, JSON, or CSV. Results that implement
Table render as rows; everything else falls back to %v (text) or is rejected
(CSV):

	formatter, err := cli.NewFormatter(cli.FormatJSON)
	if err != nil {
		return err
	}
	return formatter.FormatTo(os.Stdout, statuses)

Progress Reporting:

The process command draws a bar while draft items are handled:

	progress := cli.NewProgress(os.Stderr)
	driver, _ := seo.NewDriver(seo.Config{..., Progress: progress})

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

Exit Codes:

ExitCode maps a command error to the process exit status.
*/
package cli

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"datolab/autoseo/pkg/cli"
	"datolab/autoseo/pkg/seo"
)

var processFlags struct {
	provider   string
	limit      int
	noProgress bool
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Generate categories and tags for draft items",
	Long: `Fill every draft item with LLM-generated categories and tags.

Each draft is topped up to seo.max_categories categories and seo.max_tags
tags; items already at a maximum are not sent to the provider. The default
category is removed from every processed item. A failing item is reported
and the run continues with the next one.

The command exits with status 3 when any item failed.

Examples:
  # Process all drafts with the default provider
  autoseo process

  # Use Cohere and stop after 20 drafts
  autoseo process --provider cohere --limit 20

  # Machine-readable report
  autoseo process --output json --no-progress`,
	Args: cobra.NoArgs,
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVarP(&processFlags.provider, "provider", "p", "", "provider to use (default: default_provider from config)")
	processCmd.Flags().IntVarP(&processFlags.limit, "limit", "n", 0, "process at most this many drafts (default: seo.batch_limit)")
	processCmd.Flags().BoolVar(&processFlags.noProgress, "no-progress", false, "do not draw the progress bar")
}

func runProcess(cmd *cobra.Command, args []string) error {
	if processFlags.limit < 0 {
		return fmt.Errorf("--limit must be non-negative, got %d", processFlags.limit)
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	// The console mirror would break the progress line.
	console := cmd.ErrOrStderr()
	if !processFlags.noProgress && !verbose {
		console = nil
	}

	a, err := newApp(cfg, console)
	if err != nil {
		return err
	}
	defer a.Close()

	var progress seo.Progress
	if !processFlags.noProgress {
		progress = cli.NewProgress(cmd.ErrOrStderr())
	}

	d, err := a.driver(processFlags.provider, processFlags.limit, progress)
	if err != nil {
		return cli.NewCommandError("process", err)
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	report, err := d.Run(actorContext(ctx))
	if report != nil {
		if renderErr := render(cmd, reportTable{report}); renderErr != nil {
			return renderErr
		}
		if outputFormat == string(cli.FormatText) {
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d processed, %d failed in %s (run %s)\n",
				report.Processed, report.Failed, report.Duration().Round(time.Millisecond), report.RunID)
		}
	}
	if err != nil {
		return cli.NewCommandError("process", err)
	}
	if report.Failed > 0 {
		return cli.NewExitError(cli.ExitPartial, fmt.Errorf("%d of %d items failed", report.Failed, len(report.Items)))
	}
	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"datolab/autoseo/pkg/cli"
	"datolab/autoseo/pkg/telemetry/logging"
)

var logsFlags struct {
	lines  int
	level  string
	source string
	search string
	page   int
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Inspect and maintain the activity log",
	Long: `Inspect and maintain the activity log.

Examples:
  # Last 50 raw lines
  autoseo logs show --lines 50

  # Warnings mentioning OpenAI, newest first
  autoseo logs query --level warning --source openai

  # Rotate when over logging.max_size
  autoseo logs rotate`,
}

var logsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print raw log lines",
	Args:  cobra.NoArgs,
	RunE:  runLogsShow,
}

var logsQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Filter and page through log entries",
	Args:  cobra.NoArgs,
	RunE:  runLogsQuery,
}

var logsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the activity log",
	Args:  cobra.NoArgs,
	RunE:  runLogsClear,
}

var logsRotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Rotate the activity log if it exceeds the size ceiling",
	Args:  cobra.NoArgs,
	RunE:  runLogsRotate,
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.AddCommand(logsShowCmd, logsQueryCmd, logsClearCmd, logsRotateCmd)

	logsShowCmd.Flags().IntVarP(&logsFlags.lines, "lines", "n", 0, "print only the last N lines (default: all)")

	logsQueryCmd.Flags().StringVar(&logsFlags.level, "level", "", "level: info, warning, error")
	logsQueryCmd.Flags().StringVar(&logsFlags.source, "source", "", "provider name, e.g. openai")
	logsQueryCmd.Flags().StringVar(&logsFlags.search, "search", "", "text to search for")
	logsQueryCmd.Flags().IntVar(&logsFlags.page, "page", 1, "page number")
}

// openLogApp builds the app without the console mirror; log commands print
// results themselves.
func openLogApp() (*app, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newApp(cfg, nil)
}

func runLogsShow(cmd *cobra.Command, args []string) error {
	if logsFlags.lines < 0 {
		return fmt.Errorf("--lines must be non-negative, got %d", logsFlags.lines)
	}

	a, err := openLogApp()
	if err != nil {
		return err
	}
	defer a.Close()

	text, err := a.logger.GetLogs(logsFlags.lines)
	if err != nil {
		return fmt.Errorf("failed to read logs: %w", err)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), text)
	return err
}

func runLogsQuery(cmd *cobra.Command, args []string) error {
	a, err := openLogApp()
	if err != nil {
		return err
	}
	defer a.Close()

	page, err := a.logger.Query(logging.Query{
		Level:  logsFlags.level,
		Source: logsFlags.source,
		Search: logsFlags.search,
		Page:   logsFlags.page,
	})
	if err != nil {
		return fmt.Errorf("failed to query logs: %w", err)
	}

	if err := render(cmd, logTable{page}); err != nil {
		return err
	}
	if outputFormat == string(cli.FormatText) {
		fmt.Fprintf(cmd.OutOrStdout(), "\nPage %d of %d (%d entries)\n",
			page.CurrentPage, max(page.TotalPages, 1), page.Total)
	}
	return nil
}

func runLogsClear(cmd *cobra.Command, args []string) error {
	a, err := openLogApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.logger.ClearLogs(); err != nil {
		return fmt.Errorf("failed to clear logs: %w", err)
	}
	a.logger.Info(actorContext(cmd.Context()), "Logs cleared", nil)

	fmt.Fprintln(cmd.OutOrStdout(), "Logs cleared successfully")
	return nil
}

func runLogsRotate(cmd *cobra.Command, args []string) error {
	a, err := openLogApp()
	if err != nil {
		return err
	}
	defer a.Close()

	rotated, err := a.logger.RotateIfNeeded()
	if err != nil {
		return fmt.Errorf("failed to rotate logs: %w", err)
	}

	if rotated {
		fmt.Fprintln(cmd.OutOrStdout(), "Log rotated")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "Log is below the size ceiling, nothing to rotate")
	}
	return nil
}

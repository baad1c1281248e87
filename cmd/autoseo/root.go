package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"datolab/autoseo/pkg/cli"
	"datolab/autoseo/pkg/config"
)

// defaultConfigFile is read when --config is not given and the file exists.
const defaultConfigFile = "autoseo.yaml"

var (
	// Global flags
	cfgFile      string
	verbose      bool
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "autoseo",
	Short: "autoseo - LLM-generated categories and tags for draft content",
	Long: `autoseo fills draft content items with SEO categories and tags generated
by an LLM provider (OpenAI, Anthropic, or Cohere).

Each draft is filled up to the configured number of categories and tags,
and the default category is removed once the item has been processed.
Requests are held to a per-provider ceiling per minute, and every step is
written to the activity log.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupProcessLogger,
}

// Execute runs the root command and exits with the mapped status.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: ./"+defaultConfigFile+" when present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", string(cli.FormatText), "output format: text, json, csv")
}

// loadConfig loads the configuration with environment overrides. It returns
// the path actually read, empty when running on defaults.
func loadConfig() (*config.Config, string, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}

	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, "", err
	}
	if err := resolveSecrets(context.Background(), cfg); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// setupProcessLogger installs the process logger. --verbose forces debug.
// The configured level and format are applied once the config is loaded.
func setupProcessLogger(cmd *cobra.Command, args []string) error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// configureProcessLogger applies the logging section of cfg to the process
// logger.
func configureProcessLogger(cfg *config.Config) {
	level := parseLevel(cfg.Logging.Level)
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Logging.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// render writes data in the --output format.
func render(cmd *cobra.Command, data any) error {
	formatter, err := cli.NewFormatter(cli.OutputFormat(outputFormat))
	if err != nil {
		return err
	}
	return formatter.FormatTo(cmd.OutOrStdout(), data)
}

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"datolab/autoseo/pkg/providerfactory"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load and validate the configuration, including environment overrides
and ${secret:name} references, and list the providers that have credentials.

The command exits with status 2 when the configuration is invalid.

Examples:
  autoseo validate --config /etc/autoseo/autoseo.yaml`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if path == "" {
		fmt.Fprintln(out, "✓ No configuration file, defaults are valid")
	} else {
		fmt.Fprintf(out, "✓ Configuration valid: %s\n", path)
	}

	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	keyed := 0
	for _, name := range names {
		state := "no API key"
		if cfg.Providers[name].APIKey != "" {
			state = "API key set"
			keyed++
		}
		fmt.Fprintf(out, "  %-10s %-12s limit %d/min\n",
			providerfactory.DisplayName(name), state, cfg.RateLimitFor(name))
	}
	fmt.Fprintf(out, "  default provider: %s\n", cfg.DefaultProvider)

	if keyed == 0 {
		fmt.Fprintln(out, "! No provider has an API key; process and scheduled runs will fail")
	} else if p, ok := cfg.Providers[cfg.DefaultProvider]; !ok || p.APIKey == "" {
		fmt.Fprintf(out, "! Default provider %s has no API key\n", cfg.DefaultProvider)
	}
	return nil
}


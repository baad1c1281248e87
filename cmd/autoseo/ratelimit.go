package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"datolab/autoseo/pkg/limits/storage"
)

var ratelimitCmd = &cobra.Command{
	Use:     "ratelimit",
	Aliases: []string{"ratelimits"},
	Short:   "Show and adjust per-provider request ceilings",
	Long: `Show and adjust the per-minute request ceiling of each provider.

Ceilings set here are persisted in the rate limit store and take precedence
over rate_limits in the configuration. With the memory store they only last
for this process, so set rate_limit_store.backend to sqlite when using these
commands outside serve.

Examples:
  # Every provider
  autoseo ratelimit show

  # Allow 90 OpenAI requests per minute
  autoseo ratelimit set openai 90

  # Clear the current Cohere window
  autoseo ratelimit reset cohere`,
}

var ratelimitShowCmd = &cobra.Command{
	Use:   "show [provider...]",
	Short: "Show ceilings and current windows",
	RunE:  runRatelimitShow,
}

var ratelimitSetCmd = &cobra.Command{
	Use:   "set <provider> <limit>",
	Short: "Persist a per-minute ceiling for a provider",
	Args:  cobra.ExactArgs(2),
	RunE:  runRatelimitSet,
}

var ratelimitResetCmd = &cobra.Command{
	Use:   "reset <provider>",
	Short: "Clear a provider's current window",
	Args:  cobra.ExactArgs(1),
	RunE:  runRatelimitReset,
}

func init() {
	rootCmd.AddCommand(ratelimitCmd)
	ratelimitCmd.AddCommand(ratelimitShowCmd, ratelimitSetCmd, ratelimitResetCmd)
}

func openLimiterApp() (*app, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(cfg.RateLimitStore.Backend, storage.BackendMemory) {
		slog.Warn("rate limit store is in memory; changes are not visible to other processes")
	}
	return newApp(cfg, nil)
}

func runRatelimitShow(cmd *cobra.Command, args []string) error {
	a, err := openLimiterApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	var statuses limitTable
	if len(args) == 0 {
		statuses, err = a.limiter.List(ctx)
		if err != nil {
			return err
		}
	} else {
		for _, p := range args {
			s, err := a.limiter.Status(ctx, p)
			if err != nil {
				return err
			}
			statuses = append(statuses, s)
		}
	}
	return render(cmd, statuses)
}

func runRatelimitSet(cmd *cobra.Command, args []string) error {
	limit, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("limit must be an integer, got %q", args[1])
	}

	a, err := openLimiterApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.limiter.SetRateLimit(actorContext(cmd.Context()), args[0], limit); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Rate limit for %s set to %d requests per minute\n",
		strings.ToLower(args[0]), limit)
	return nil
}

func runRatelimitReset(cmd *cobra.Command, args []string) error {
	a, err := openLimiterApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.limiter.ResetCounter(actorContext(cmd.Context()), args[0]); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Rate limit window for %s reset\n", strings.ToLower(args[0]))
	return nil
}

package main

import (
	"context"
	"fmt"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"datolab/autoseo/pkg/cli"
	"datolab/autoseo/pkg/config"
	"datolab/autoseo/pkg/scheduler"
	"datolab/autoseo/pkg/server"
	"datolab/autoseo/pkg/telemetry/health"
	"datolab/autoseo/pkg/telemetry/logging"
)

// cleanupSchedule drops expired rate limit windows every minute.
const cleanupSchedule = "* * * * *"

const readinessTimeout = 2 * time.Second

var serveFlags struct {
	listenAddress string
	noWatch       bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin server and scheduled jobs",
	Long: `Run the administrative HTTP server and the scheduled jobs.

Jobs:
  log-rotation       logging.rotate_schedule  rotate the activity log when over the ceiling
  ratelimit-cleanup  every minute             drop expired rate limit windows
  seo-process        seo.schedule             process drafts with default_provider

The configuration file is watched; rate_limits changes apply without a
restart.

Examples:
  # Serve with ./autoseo.yaml
  autoseo serve

  # Listen on all interfaces
  autoseo serve --listen 0.0.0.0:8089`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().BoolVar(&serveFlags.noWatch, "no-watch", false, "do not reload the configuration file on change")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	configureProcessLogger(cfg)

	a, err := newApp(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	if err := a.loadProviders(); err != nil {
		slog.Warn("no provider available, scheduled processing disabled", "error", err)
	}

	sched, err := buildScheduler(a)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	if err := sched.Start(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer sched.Stop()

	if path != "" && !serveFlags.noWatch {
		watcher, err := config.NewWatcher(path, slog.Default())
		if err != nil {
			slog.Warn("configuration reload disabled", "error", err)
		} else {
			defer watcher.Stop()
			go func() {
				if err := watcher.Watch(ctx, a.applyReload); err != nil {
					slog.Warn("configuration watcher stopped", "error", err)
				}
			}()
		}
	}

	deps := server.Dependencies{
		Logs:      a.logger,
		Limits:    a.limiter,
		Providers: a.providers,
		Readiness: buildReadiness(a),
		Version: server.BuildInfo{
			Version:   Version,
			Commit:    GitCommit,
			BuildTime: BuildDate,
		},
	}
	if cfg.Metrics.IsEnabled() {
		deps.Metrics = a.metrics.Handler()
		deps.MetricsPath = cfg.Metrics.Path
	}
	srv := server.NewServer(cfg.Server, deps)

	printBanner(cmd, cfg, path, sched)

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Server stopped")
	return nil
}

// buildScheduler registers the maintenance jobs and, when a provider is
// loaded and seo.schedule is set, the processing job.
func buildScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New()

	err := sched.Add("log-rotation", a.cfg.Logging.RotateSchedule, func(ctx context.Context) error {
		rotated, err := a.logger.RotateIfNeeded()
		if rotated {
			slog.Info("activity log rotated")
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	err = sched.Add("ratelimit-cleanup", cleanupSchedule, func(ctx context.Context) error {
		n, err := a.limiter.Cleanup(ctx)
		if n > 0 {
			slog.Debug("expired rate limit windows removed", "count", n)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if a.cfg.SEO.Schedule == "" || a.providers.ProviderCount() == 0 {
		return sched, nil
	}

	driver, err := a.driver(a.cfg.DefaultProvider, 0, nil)
	if err != nil {
		return nil, err
	}
	err = sched.Add("seo-process", a.cfg.SEO.Schedule, func(ctx context.Context) error {
		report, err := driver.Run(logging.WithUser(ctx, "scheduler"))
		if err != nil {
			return err
		}
		if report.Failed > 0 {
			return fmt.Errorf("%d of %d items failed", report.Failed, len(report.Items))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sched, nil
}

// buildReadiness registers a check per component the server depends on.
// The content store is opened here so that scheduled runs and checks share
// one handle.
func buildReadiness(a *app) *health.Checker {
	checker := health.New(readinessTimeout)

	checker.Register("activity_log", func(ctx context.Context) error {
		_, err := a.logger.GetLogs(1)
		return err
	})
	checker.Register("rate_limit_store", func(ctx context.Context) error {
		_, err := a.limiter.List(ctx)
		return err
	})

	store, err := a.contentStore()
	if err != nil {
		slog.Warn("content store unavailable", "error", err)
		checker.Register("content_store", func(ctx context.Context) error {
			return err
		})
	} else {
		checker.Register("content_store", store.Ping)
	}

	checker.Register("providers", func(ctx context.Context) error {
		summary := a.providers.GetHealthSummary()
		if summary.Total == 0 {
			return errors.New("no provider configured")
		}
		if summary.Healthy == 0 {
			return fmt.Errorf("all %d providers unhealthy", summary.Total)
		}
		return nil
	})
	return checker
}

// applyReload applies the reloadable parts of a changed configuration.
func (a *app) applyReload(cfg *config.Config) {
	a.limiter.ApplyOverrides(cfg.RateLimits)
	a.logger.Info(context.Background(), "Configuration reloaded", map[string]any{
		"rate_limits": cfg.RateLimits,
	})
}

func printBanner(cmd *cobra.Command, cfg *config.Config, path string, sched *scheduler.Scheduler) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "autoseo %s\n", Version)
	if path != "" {
		fmt.Fprintf(out, "✓ Configuration loaded from %s\n", path)
	} else {
		fmt.Fprintln(out, "✓ Configuration defaults in use")
	}
	fmt.Fprintf(out, "✓ Activity log: %s\n", cfg.Logging.File)

	for _, job := range sched.Jobs() {
		next := "-"
		if !job.Next.IsZero() {
			next = job.Next.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(out, "✓ Job %s (%s), next run %s\n", job.Name, job.Schedule, next)
	}

	fmt.Fprintf(out, "✓ Admin API: http://%s/api/\n", cfg.Server.ListenAddress)
	fmt.Fprintf(out, "✓ Health endpoint: http://%s/health\n", cfg.Server.ListenAddress)
	fmt.Fprintf(out, "✓ Readiness endpoint: http://%s/ready\n", cfg.Server.ListenAddress)
	if cfg.Metrics.IsEnabled() {
		fmt.Fprintf(out, "✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Metrics.Path)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")
}

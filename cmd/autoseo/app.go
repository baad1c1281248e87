package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/user"

	"datolab/autoseo/pkg/config"
	"datolab/autoseo/pkg/content"
	"datolab/autoseo/pkg/limits/ratelimit"
	"datolab/autoseo/pkg/limits/storage"
	"datolab/autoseo/pkg/providerfactory"
	"datolab/autoseo/pkg/providers"
	"datolab/autoseo/pkg/seo"
	"datolab/autoseo/pkg/telemetry/alert"
	"datolab/autoseo/pkg/telemetry/logging"
	"datolab/autoseo/pkg/telemetry/metrics"
)

// app holds the components shared by the commands.
type app struct {
	cfg       *config.Config
	alerts    alert.Sink
	logger    *logging.Logger
	metrics   *metrics.Collector
	limiter   *ratelimit.Limiter
	providers *providerfactory.Manager

	// content is opened on first use.
	content content.Store
}

// newApp wires the activity log, metrics, and limiter from cfg. console
// receives the activity log mirror when enabled; nil disables it.
func newApp(cfg *config.Config, console io.Writer) (*app, error) {
	sink, err := alert.FromConfig(cfg.Alerts)
	if err != nil {
		return nil, fmt.Errorf("failed to configure alerts: %w", err)
	}

	collector := metrics.NewCollector(&cfg.Metrics, nil)

	if !config.BoolValue(cfg.Logging.Console, true) {
		console = nil
	}
	logger, err := logging.New(logging.Config{
		File:          cfg.Logging.File,
		MaxSize:       cfg.Logging.MaxSize,
		MaxBackups:    cfg.Logging.MaxBackups,
		RotateOnWrite: config.BoolValue(cfg.Logging.RotateOnWrite, true),
		Redact:        config.BoolValue(cfg.Logging.Redact, true),
		Console:       console,
		ConsoleLevel:  cfg.Logging.Level,
		SiteName:      cfg.Alerts.SiteName,
		Alerts:        sink,
		Metrics:       collector,
	})
	if err != nil {
		closeSink(sink)
		return nil, fmt.Errorf("failed to open activity log: %w", err)
	}

	backend, err := storage.Open(cfg.RateLimitStore)
	if err != nil {
		closeSink(sink)
		return nil, fmt.Errorf("failed to open rate limit store: %w", err)
	}

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		Backend:   backend,
		Overrides: cfg.RateLimits,
		Defaults:  config.DefaultRateLimits,
		Logger:    logger,
		Metrics:   collector,
	})

	manager := providerfactory.NewManager(providers.Dependencies{
		Gate:    limiter,
		Logger:  logger,
		Metrics: collector,
	})

	return &app{
		cfg:       cfg,
		alerts:    sink,
		logger:    logger,
		metrics:   collector,
		limiter:   limiter,
		providers: manager,
	}, nil
}

// contentStore opens the configured content store once.
func (a *app) contentStore() (content.Store, error) {
	if a.content != nil {
		return a.content, nil
	}

	store, err := content.Open(a.cfg.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to open content store: %w", err)
	}
	a.content = store
	return store, nil
}

// loadProviders adds every provider with an API key. Providers that fail to
// load are logged; it fails only when none is usable.
func (a *app) loadProviders() error {
	if a.providers.ProviderCount() > 0 {
		return nil
	}

	err := a.providers.LoadFromConfig(a.cfg)
	if errors.Is(err, providerfactory.ErrNoAPIKey) {
		return err
	}
	if err != nil {
		slog.Warn("some providers failed to initialize", "error", err)
		if a.providers.ProviderCount() == 0 {
			return err
		}
	}
	return nil
}

// driver builds a processing driver for the named provider. batchLimit
// overrides the configured limit when positive.
func (a *app) driver(providerName string, batchLimit int, progress seo.Progress) (*seo.Driver, error) {
	if providerName == "" {
		providerName = a.cfg.DefaultProvider
	}
	if err := a.loadProviders(); err != nil {
		return nil, err
	}

	provider, err := a.providers.GetProvider(providerName)
	if err != nil {
		return nil, err
	}

	store, err := a.contentStore()
	if err != nil {
		return nil, err
	}

	opts := seo.OptionsFromConfig(a.cfg.SEO)
	if batchLimit > 0 {
		opts.BatchLimit = batchLimit
	}

	return seo.NewDriver(seo.Config{
		Provider: provider,
		Store:    store,
		Options:  opts,
		Logger:   a.logger,
		Metrics:  a.metrics,
		Progress: progress,
	})
}

// Close releases every component.
func (a *app) Close() error {
	var errs []error
	if err := a.providers.Close(); err != nil {
		errs = append(errs, fmt.Errorf("providers: %w", err))
	}
	if a.content != nil {
		if err := a.content.Close(); err != nil {
			errs = append(errs, fmt.Errorf("content store: %w", err))
		}
	}
	if err := a.limiter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("rate limit store: %w", err))
	}
	closeSink(a.alerts)
	return errors.Join(errs...)
}

// closeSink disconnects sinks that hold connections.
func closeSink(s alert.Sink) {
	switch s := s.(type) {
	case alert.Multi:
		for _, inner := range s {
			closeSink(inner)
		}
	case io.Closer:
		if err := s.Close(); err != nil {
			slog.Warn("failed to close alert sink", "error", err)
		}
	}
}

// actorContext attributes CLI actions to the invoking OS user.
func actorContext(ctx context.Context) context.Context {
	name := os.Getenv("USER")
	if u, err := user.Current(); err == nil && u.Username != "" {
		name = u.Username
	}
	if name == "" {
		name = "cli"
	}
	return logging.WithUser(ctx, name)
}

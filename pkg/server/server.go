package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"datolab/autoseo/pkg/config"
	"datolab/autoseo/pkg/limits/ratelimit"
	"datolab/autoseo/pkg/providerfactory"
	"datolab/autoseo/pkg/telemetry/health"
	"datolab/autoseo/pkg/telemetry/logging"
)

// LogStore is the activity log as seen by the admin surface.
// *logging.Logger implements it.
type LogStore interface {
	Query(q logging.Query) (*logging.Page, error)
	GetLogs(maxLines int) (string, error)
	ClearLogs() error
	RotateIfNeeded() (bool, error)
	Log(ctx context.Context, level logging.Level, message string, fields map[string]any)
}

// RateLimits is the limiter as seen by the admin surface.
// *ratelimit.Limiter implements it.
type RateLimits interface {
	List(ctx context.Context) ([]ratelimit.Status, error)
	Status(ctx context.Context, provider string) (ratelimit.Status, error)
	SetRateLimit(ctx context.Context, provider string, limit int) error
	ResetCounter(ctx context.Context, provider string) error
}

// ProviderHealth reports provider health. *providerfactory.Manager
// implements it.
type ProviderHealth interface {
	GetHealthSummary() providerfactory.HealthSummary
}

// Dependencies are the components the server exposes.
type Dependencies struct {
	Logs      LogStore
	Limits    RateLimits
	Providers ProviderHealth // optional

	// Readiness serves /ready when set.
	Readiness *health.Checker

	// Version is reported by /version.
	Version BuildInfo

	// Metrics serves the metrics path when set.
	Metrics     http.Handler
	MetricsPath string
}

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Server is the administrative HTTP server.
type Server struct {
	config       config.ServerConfig
	deps         Dependencies
	httpServer   *http.Server
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
	addr         string
}

// NewServer creates a new admin server.
func NewServer(cfg config.ServerConfig, deps Dependencies) *Server {
	if deps.MetricsPath == "" {
		deps.MetricsPath = config.DefaultMetricsPath
	}
	return &Server{
		config: cfg,
		deps:   deps,
	}
}

// Start listens on the configured address and blocks until ctx is
// cancelled or the server fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	listener, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}

	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
	s.addr = listener.Addr().String()
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting admin server",
			"address", s.addr,
			"auth_enabled", s.config.AdminToken != "",
		)

		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		running := s.isRunning
		s.mu.RUnlock()
		if !running {
			return
		}

		slog.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx := ctx
		if s.config.ShutdownTimeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
			defer cancel()
		}

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("admin server stopped")
	})

	return shutdownErr
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	api := http.NewServeMux()
	api.HandleFunc("GET /api/logs", s.handleQueryLogs)
	api.HandleFunc("GET /api/logs/raw", s.handleRawLogs)
	api.HandleFunc("DELETE /api/logs", s.handleClearLogs)
	api.HandleFunc("POST /api/logs/rotate", s.handleRotateLogs)
	api.HandleFunc("GET /api/ratelimits", s.handleListLimits)
	api.HandleFunc("GET /api/ratelimits/{provider}", s.handleGetLimit)
	api.HandleFunc("PUT /api/ratelimits/{provider}", s.handleSetLimit)
	api.HandleFunc("POST /api/ratelimits/{provider}/reset", s.handleResetLimit)

	mux.Handle("/api/", AuthMiddleware(s.config.AdminToken)(api))
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /version", health.VersionHandler(
		s.deps.Version.Version, s.deps.Version.Commit, s.deps.Version.BuildTime))
	if s.deps.Readiness != nil {
		mux.HandleFunc("GET /ready", s.deps.Readiness.ReadinessHandler())
	}
	if s.deps.Metrics != nil {
		mux.Handle("GET "+s.deps.MetricsPath, s.deps.Metrics)
	}

	var handler http.Handler = mux
	handler = RequestIDMiddleware(handler)
	handler = LoggingMiddleware(handler)
	handler = RecoveryMiddleware(handler)
	return handler
}

// Addr returns the bound address once the server is running.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

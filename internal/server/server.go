// Package server hosts the samp HTTP API. It owns the SQLite store and
// job runner lifecycle, starting them on Start and tearing them down on
// shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jackzampolin/samp/internal/api"
	"github.com/jackzampolin/samp/internal/config"
	"github.com/jackzampolin/samp/internal/ingest"
	"github.com/jackzampolin/samp/internal/jobs"
	"github.com/jackzampolin/samp/internal/providers"
	"github.com/jackzampolin/samp/internal/server/endpoints"
	"github.com/jackzampolin/samp/internal/store"
	"github.com/jackzampolin/samp/internal/svcctx"
)

// Server is the main samp HTTP server.
type Server struct {
	httpServer *http.Server
	store      *store.Store
	jobRunner  *jobs.Runner
	registry   *providers.Registry
	configMgr  *config.Manager
	logger     *slog.Logger
	dbPath     string

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8585)
	Port string
	// DatabasePath is the SQLite database location
	DatabasePath string
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8585"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.DatabasePath == "" {
		return nil, errors.New("database path is required")
	}

	registry := providers.NewRegistry()
	registry.SetLogger(cfg.Logger)

	// If config manager provided, set up providers and hot reload
	if cfg.ConfigManager != nil {
		registry.Reload(cfg.ConfigManager.Get().ToProviderRegistryConfig())

		cfg.ConfigManager.OnChange(func(c *config.Config) {
			registry.Reload(c.ToProviderRegistryConfig())
			cfg.Logger.Info("provider registry reloaded from config")
		})
	}

	s := &Server{
		registry:  registry,
		configMgr: cfg.ConfigManager,
		logger:    cfg.Logger,
	}
	s.dbPath = cfg.DatabasePath

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All() {
		s.endpointRegistry.Register(ep)
	}

	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s.withServices(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start opens the store, starts the job runner and inbox watcher, and
// serves HTTP. It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	st, err := store.Open(ctx, s.dbPath, s.logger)
	if err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to open store: %w", err)
	}
	s.store = st

	s.jobRunner = jobs.NewRunner(st, s.registry, s.runnerOptions(), s.logger)

	s.services = &svcctx.Services{
		Store:     s.store,
		Registry:  s.registry,
		JobRunner: s.jobRunner,
		Config:    s.configMgr,
		Logger:    s.logger,
	}

	// Inbox watcher ingests dropped files and optionally auto-extracts
	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	if s.configMgr != nil {
		inbox := s.configMgr.Get().Inbox
		if inbox.Enabled && inbox.Dir != "" {
			watcher := ingest.NewWatcher(inbox.Dir, s.store, s.jobRunner, inbox.AutoExtract, s.logger)
			go func() {
				if err := watcher.Run(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
					s.logger.Error("inbox watcher stopped", "error", err)
				}
			}()
			s.logger.Info("inbox watcher started", "dir", inbox.Dir, "auto_extract", inbox.AutoExtract)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// runnerOptions derives job runner options from current config.
func (s *Server) runnerOptions() jobs.Options {
	opts := jobs.Options{}
	if s.configMgr == nil {
		return opts
	}
	cfg := s.configMgr.Get()
	opts.Provider = cfg.Defaults.LLMProvider
	opts.ContextWindow = cfg.Extraction.ContextWindow
	if pc, ok := cfg.GetLLMProvider(opts.Provider); ok {
		opts.Model = pc.Model
	}
	return opts
}

// shutdown performs graceful shutdown of the HTTP server, job runner,
// and store.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	// Let in-flight extraction jobs finish persisting their state
	if s.jobRunner != nil {
		s.jobRunner.Wait()
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error("store close error", "error", err)
		}
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Store returns the SQLite store.
// Returns nil if the server hasn't started yet.
func (s *Server) Store() *store.Store {
	return s.store
}

// JobRunner returns the extraction job runner.
// Returns nil if the server hasn't started yet.
func (s *Server) JobRunner() *jobs.Runner {
	return s.jobRunner
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Registry returns the provider registry.
func (s *Server) Registry() *providers.Registry {
	return s.registry
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable if the store or job runner aren't ready.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.store == nil || s.jobRunner == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}

package application

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/traincfg/internal/api"
	"github.com/eugenenazirov/traincfg/internal/config"
	"github.com/eugenenazirov/traincfg/internal/registry"
	"github.com/eugenenazirov/traincfg/internal/schema"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	registry registry.Registry
	handler  *api.Handler
	router   http.Handler
	logger   *zap.Logger
	server   *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	reg := registry.NewMemoryRegistry()
	if err := preload(reg, cfg.Preload, logger); err != nil {
		return nil, fmt.Errorf("failed to preload configurations: %w", err)
	}

	handler := api.NewHandler(reg)
	router := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	server := NewServer(cfg, router)

	return &App{
		registry: reg,
		handler:  handler,
		router:   router,
		logger:   logger,
		server:   server,
	}, nil
}

// preload validates each listed training configuration file and registers it
// under its configured name. Startup fails on the first invalid document.
func preload(reg registry.Registry, entries []config.PreloadEntry, logger *zap.Logger) error {
	for _, entry := range entries {
		cfg, err := schema.Load(entry.Path)
		if err != nil {
			return fmt.Errorf("preload %q from %s: %w", entry.Name, entry.Path, err)
		}
		if err := reg.Put(entry.Name, cfg); err != nil {
			return fmt.Errorf("preload %q: %w", entry.Name, err)
		}
		logger.Info("configuration preloaded",
			zap.String("name", entry.Name),
			zap.String("path", entry.Path),
		)
	}
	return nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Registry exposes the configuration registry, primarily for tests.
func (a *App) Registry() registry.Registry {
	return a.registry
}

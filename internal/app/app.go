package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/pulsegraph/internal/ctxlog"
	"github.com/specialistvlad/pulsegraph/internal/hclgraph"
	"github.com/specialistvlad/pulsegraph/internal/metrics"
	"github.com/specialistvlad/pulsegraph/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	registry   *registry.Registry
	loaded     *hclgraph.Loaded
	metrics    *metrics.Metrics
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It builds an isolated
// logger and registry, then loads the graph named by cfg. Without modules the
// core modules are registered.
//
// A registry that fails validation is a programmer error and panics.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules(outW)
	}
	reg.Use(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules), "kinds", reg.Kinds())

	if err := reg.ValidateRegistry(ctx); err != nil {
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	loaded, err := hclgraph.NewLoader(reg).Load(ctx, cfg.GraphPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}
	logger.Info("Graph loaded.", "nodes", loaded.Graph.Len(), "files", len(loaded.Files))

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		loaded:   loaded,
		metrics:  metrics.New(),
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Loaded returns the loaded graph and its node behaviors.
func (a *App) Loaded() *hclgraph.Loaded {
	return a.loaded
}

// Metrics returns the collectors fed by the scheduler.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vk/blockflow/internal/ctxlog"
	"github.com/vk/blockflow/internal/hcl"
	"github.com/vk/blockflow/internal/metrics"
	"github.com/vk/blockflow/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx    context.Context
	outW   io.Writer
	logger *slog.Logger
	config *Config

	registry *registry.Registry
	hclCodec *hcl.Codec

	promRegistry *prometheus.Registry
	metrics      *metrics.Collector
	httpServer   *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and registry. The
// given modules replace the compiled-in ones when non-empty. Dag files
// under cfg.DagPaths are registered after the modules, so a file may
// override a built-in dag.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	reg.SetLogger(logger)
	if len(modules) == 0 {
		modules = coreModules(outW)
	}
	reg.Load(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules))

	if err := reg.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid block registrations: %w", err)
	}
	logger.Debug("Registry validation passed.")

	promRegistry := prometheus.NewRegistry()
	a := &App{
		ctx:          ctx,
		outW:         outW,
		logger:       logger,
		config:       cfg,
		registry:     reg,
		hclCodec:     hcl.NewCodec(),
		promRegistry: promRegistry,
		metrics:      metrics.New(promRegistry),
	}

	if err := a.loadDagFiles(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Metrics returns the collector attached to every run.
func (a *App) Metrics() *metrics.Collector {
	return a.metrics
}

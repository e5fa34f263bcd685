package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/verigate/verigate/internal/config"
	"github.com/verigate/verigate/internal/ctxlog"
	"github.com/verigate/verigate/internal/engine"
	"github.com/verigate/verigate/internal/registry"
	"github.com/verigate/verigate/internal/runstore"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	cfg        *Config
	registry   *registry.Registry
	model      *config.Model
	engine     *engine.Engine
	httpServer *http.Server
}

// New is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// Configuration that cannot load or fails registry validation is a fatal
// startup error and panics; the entrypoint recovers it into a clean exit.
func New(outW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.With(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	var paths []string
	paths = append(paths, cfg.WorkflowPaths...)
	if cfg.ActionsPath != "" {
		paths = append(paths, cfg.ActionsPath)
	}

	model, converter, err := loader.Load(ctx, paths...)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Configuration loaded and translated into unified model.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go action modules registered.", "count", len(modules))

	reg.PopulateDefinitionsFromModel(model)
	if err := reg.Validate(ctx); err != nil {
		// A mismatch between compiled handlers and manifests is a programmer
		// error, not a user error.
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	eng := engine.New(reg, converter, nil, engine.Options{
		Workers:       cfg.Workers,
		KeepWorkspace: cfg.KeepWorkspace,
	})

	return &App{
		outW:     outW,
		logger:   logger,
		cfg:      cfg,
		registry: reg,
		model:    model,
		engine:   eng,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Model returns the loaded configuration model. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}

// Store exposes the recorded runs for tests and the status endpoint.
func (a *App) Store() *runstore.Store {
	return a.engine.Store()
}

// Package app initializes and holds long-lived application services, acting
// as the dependency container commands run against.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jamscout/jamscout/internal/config"
	"github.com/jamscout/jamscout/internal/logging"
	"github.com/jamscout/jamscout/internal/store"
	"github.com/jamscout/jamscout/internal/store/postgres"
)

// App holds the shared, long-lived services for the application. It is
// initialized once at startup and injected into the command context.
type App struct {
	cfg    config.Config
	logger *zap.Logger
	store  store.Store
}

// NewApp loads configuration, builds the logger, connects to Postgres, and
// ensures the schema exists. It fails fast when any service cannot start.
func NewApp(ctx context.Context, cfgPath string, verbose bool) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development, verbose)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	st, err := postgres.New(ctx, postgres.Config{
		DSN:             cfg.Database.URL,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
	})
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := st.Init(ctx); err != nil {
		st.Close()
		_ = logger.Sync()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	logger.Debug("application services initialized")
	return &App{cfg: cfg, logger: logger, store: st}, nil
}

// GetConfig returns the loaded configuration.
func (a *App) GetConfig() config.Config {
	return a.cfg
}

// GetLogger returns the shared zap logger instance.
func (a *App) GetLogger() *zap.Logger {
	return a.logger
}

// GetStore exposes the jam store.
func (a *App) GetStore() store.Store {
	return a.store
}

// Close gracefully shuts down all services in the App container. It is
// called by a Cobra hook after the command finishes execution.
func (a *App) Close() {
	a.store.Close()

	// Flushing the logger is best-effort; stderr may not support Sync.
	_ = a.logger.Sync()
}

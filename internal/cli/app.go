package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapaccel/internal/backend"
	"github.com/leapstack-labs/leapaccel/internal/catalog"
	"github.com/leapstack-labs/leapaccel/internal/config"
	"github.com/leapstack-labs/leapaccel/pkg/accel"
	"github.com/leapstack-labs/leapaccel/pkg/adapter"
)

// app bundles the wired service and everything that needs closing.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *catalog.SQLiteStore
	svc    *accel.Service

	closers []func() error
}

// newApp loads config, opens the catalog, and assembles the service.
// Backend engine connections are only established when withBackends is set;
// catalog-only commands stay independent of engine availability.
func newApp(cmd *cobra.Command, withBackends bool) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Verbose)

	store := catalog.NewSQLiteStore(logger)
	if err := store.Open(cfg.CatalogPath); err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate catalog: %w", err)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		closers: []func() error{store.Close},
	}

	opts := accel.Options{
		Catalog:     store,
		Features:    cfg.Features,
		Scheduler:   cfg.Scheduler,
		Detector:    cfg.Detector,
		Observatory: cfg.Observatory,
		Logger:      logger,
	}

	if withBackends {
		oltp, err := a.connect(cmd.Context(), cfg.Engines.OLTP)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect transactional engine: %w", err)
		}
		olap, err := a.connect(cmd.Context(), cfg.Engines.OLAP)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect analytical engine: %w", err)
		}
		opts.OLTP = backend.NewOLTP(oltp, logger)
		opts.OLAP = backend.NewOLAP(olap, logger)
	}

	a.svc = accel.New(opts)
	return a, nil
}

// connect creates and connects an adapter for the target, registering it
// for cleanup.
func (a *app) connect(ctx context.Context, target adapter.Config) (adapter.Adapter, error) {
	db, err := adapter.New(target, a.logger)
	if err != nil {
		return nil, err
	}
	if err := db.Connect(ctx, target); err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)
	return db, nil
}

// Close releases all resources in reverse acquisition order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("error during shutdown", slog.Any("error", err))
		}
	}
}

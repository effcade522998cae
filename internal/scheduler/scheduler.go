// Package scheduler triggers one-off and periodic refreshes of catalog
// records, dispatching to the backend that owns each view and recording
// every outcome.
//
// A failed or slow refresh of one view never delays or fails the others:
// each record in a sweep is independently fault-isolated, and backend
// errors are absorbed into catalog state and counters rather than
// propagated.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/leapstack-labs/leapaccel/internal/backend"
	"github.com/leapstack-labs/leapaccel/internal/config"
	"github.com/leapstack-labs/leapaccel/internal/observe"
	"github.com/leapstack-labs/leapaccel/pkg/core"
)

// Catalog is the catalog surface the scheduler needs. Only the scheduler
// may call MarkRefreshed.
type Catalog interface {
	Get(ctx context.Context, tenantID, id string) (*core.MaterializedView, error)
	MarkRefreshed(ctx context.Context, tenantID, id string, status core.RefreshStatus) error
	ListAllEnabled(ctx context.Context) ([]*core.MaterializedView, error)
}

// OLTPRefresher is the transactional refresh primitive.
type OLTPRefresher interface {
	Refresh(ctx context.Context, viewName, definitionSQL string) error
}

// OLAPRefresher is the analytical refresh primitive.
type OLAPRefresher interface {
	RefreshMaterializedView(ctx context.Context, targetDatabase, viewName, definitionSQL string) error
}

// Compile-time checks that the production executors satisfy the
// scheduler-side contracts.
var (
	_ OLTPRefresher = (backend.OLTPExecutor)(nil)
	_ OLAPRefresher = (backend.OLAPExecutor)(nil)
)

// Refresher refreshes materialized views on demand and on a fixed interval.
type Refresher struct {
	catalog  Catalog
	oltp     OLTPRefresher
	olap     OLAPRefresher
	features config.Features
	obs      *observe.Observatory
	logger   *slog.Logger

	interval    time.Duration
	timeout     time.Duration
	parallelism int

	// sf collapses concurrent refreshes of the same record so a manual
	// RefreshOnce racing the sweep runs the backend call once. This is a
	// strengthening beyond the minimum contract; refresh stays idempotent
	// either way.
	sf singleflight.Group

	startOnce sync.Once
	stopOnce  sync.Once
	running   atomic.Bool
	stopCh    chan struct{}
	done      chan struct{}
}

// New creates a Refresher. If logger is nil, a discard logger is used.
func New(catalog Catalog, oltp OLTPRefresher, olap OLAPRefresher, features config.Features, cfg config.SchedulerConfig, obs *observe.Observatory, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	parallelism := cfg.Parallelism
	if parallelism <= 0 {
		parallelism = 4
	}
	return &Refresher{
		catalog:     catalog,
		oltp:        oltp,
		olap:        olap,
		features:    features,
		obs:         obs,
		logger:      logger,
		interval:    interval,
		timeout:     timeout,
		parallelism: parallelism,
		stopCh:      make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// RefreshOnce refreshes a single record and records the outcome.
//
// Not-found propagates to the caller. Backend failures, including timeouts,
// do not: they are converted into lastRefreshStatus=failed plus a counter
// increment, and the returned status is core.RefreshFailed with a nil error.
func (r *Refresher) RefreshOnce(ctx context.Context, tenantID, id string) (core.RefreshStatus, error) {
	v, err, _ := r.sf.Do(tenantID+"/"+id, func() (interface{}, error) {
		return r.refresh(ctx, tenantID, id)
	})
	if err != nil {
		return "", err
	}
	return v.(core.RefreshStatus), nil
}

func (r *Refresher) refresh(ctx context.Context, tenantID, id string) (core.RefreshStatus, error) {
	mv, err := r.catalog.Get(ctx, tenantID, id)
	if err != nil {
		return "", err
	}

	// Analytical refresh is only legal while cross-engine serving is on;
	// there is no fallback recompute on the transactional engine.
	if mv.Engine == core.EngineOLAP && !r.features.CrossEngine {
		r.logger.Warn("analytical refresh rejected: cross-engine serving disabled",
			slog.String("tenant", tenantID), slog.String("view", id))
		return r.record(ctx, mv, fmt.Errorf("cross-engine serving disabled"))
	}

	rctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var refreshErr error
	switch mv.Engine {
	case core.EngineOLTP:
		refreshErr = r.oltp.Refresh(rctx, mv.RelationName(), mv.DefinitionSQL)
	case core.EngineOLAP:
		refreshErr = r.olap.RefreshMaterializedView(rctx, mv.TargetDatabase, mv.RelationName(), mv.DefinitionSQL)
	default:
		refreshErr = fmt.Errorf("unknown engine %q", mv.Engine)
	}

	return r.record(ctx, mv, refreshErr)
}

// record converts a backend outcome into catalog state and counters.
func (r *Refresher) record(ctx context.Context, mv *core.MaterializedView, refreshErr error) (core.RefreshStatus, error) {
	status := core.RefreshSuccess
	if refreshErr != nil {
		status = core.RefreshFailed
		r.logger.Warn("refresh failed",
			slog.String("tenant", mv.TenantID), slog.String("view", mv.ID),
			slog.String("engine", string(mv.Engine)), slog.Any("error", refreshErr))
	}

	r.obs.RecordRefresh(mv.Engine, refreshErr == nil)

	if err := r.catalog.MarkRefreshed(ctx, mv.TenantID, mv.ID, status); err != nil {
		return status, fmt.Errorf("failed to record refresh outcome: %w", err)
	}
	return status, nil
}

// Start begins the periodic sweep. It is a no-op unless the auto-refresh
// toggle is enabled. Start returns immediately; the sweep runs until Stop
// is called or ctx is cancelled.
func (r *Refresher) Start(ctx context.Context) {
	if !r.features.AutoRefresh {
		r.logger.Debug("auto-refresh disabled, scheduler not started")
		return
	}

	r.startOnce.Do(func() {
		r.running.Store(true)
		go r.run(ctx)
	})
}

// Stop halts the periodic sweep and waits for an in-flight sweep to finish.
// Safe to call more than once, and safe even if Start was never called.
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})
	if r.running.Load() {
		<-r.done
	}
}

func (r *Refresher) run(ctx context.Context) {
	defer close(r.done)

	r.logger.Info("refresh scheduler started", slog.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresh scheduler stopped", slog.String("cause", "context cancelled"))
			return
		case <-r.stopCh:
			r.logger.Info("refresh scheduler stopped")
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep refreshes every enabled record across tenants. Each record is
// refreshed independently; one failure never halts the sweep.
func (r *Refresher) Sweep(ctx context.Context) {
	views, err := r.catalog.ListAllEnabled(ctx)
	if err != nil {
		r.logger.Error("sweep aborted: cannot list enabled views", slog.Any("error", err))
		return
	}
	if len(views) == 0 {
		return
	}

	r.logger.Debug("sweep started", slog.Int("views", len(views)))

	var g errgroup.Group
	g.SetLimit(r.parallelism)
	for _, mv := range views {
		g.Go(func() error {
			if _, err := r.RefreshOnce(ctx, mv.TenantID, mv.ID); err != nil {
				// Catalog-level trouble for one record; the rest of the
				// sweep proceeds.
				r.logger.Warn("sweep refresh error",
					slog.String("tenant", mv.TenantID), slog.String("view", mv.ID), slog.Any("error", err))
			}
			return nil
		})
	}
	_ = g.Wait()
}

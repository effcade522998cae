// Package accel composes the query-acceleration layer behind a single
// service facade: engine selection, signature-based rewrite, the
// materialized-view catalog, scheduled refresh, workload detection, and the
// performance observatory.
//
// Request-path calls (ChooseEngine, TryRewriteWithMV, catalog CRUD) run on
// the caller's goroutine; the refresh scheduler is the only background task.
package accel

import (
	"context"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapaccel/internal/catalog"
	"github.com/leapstack-labs/leapaccel/internal/config"
	"github.com/leapstack-labs/leapaccel/internal/detector"
	"github.com/leapstack-labs/leapaccel/internal/observe"
	"github.com/leapstack-labs/leapaccel/internal/rewrite"
	"github.com/leapstack-labs/leapaccel/internal/scheduler"
	"github.com/leapstack-labs/leapaccel/internal/selector"
	"github.com/leapstack-labs/leapaccel/internal/signature"
	"github.com/leapstack-labs/leapaccel/pkg/core"
)

// Options wires a Service. Catalog is required; OLTP and OLAP may be nil
// when no refresh traffic is expected (RefreshOnce will then fail cleanly
// through the backend error path).
type Options struct {
	Catalog     catalog.Store
	OLTP        scheduler.OLTPRefresher
	OLAP        scheduler.OLAPRefresher
	Features    config.Features
	Scheduler   config.SchedulerConfig
	Detector    config.DetectorConfig
	Observatory config.ObservatoryConfig
	Logger      *slog.Logger
}

// Service is the acceleration layer's public surface, consumed by the CLI
// and by embedding callers such as an HTTP layer or a query-execution
// controller. Tenant identity is the caller's responsibility and is passed
// explicitly on every tenant-scoped call.
type Service struct {
	store         catalog.Store
	rewriter      *rewrite.Rewriter
	refresher     *scheduler.Refresher
	detector      *detector.Detector
	obs           *observe.Observatory
	slowThreshold time.Duration
	logger        *slog.Logger
}

// New assembles a Service from its parts.
func New(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	obs := observe.NewWithCapacity(logger, opts.Observatory.SampleCapacity)

	return &Service{
		store:         opts.Catalog,
		rewriter:      rewrite.New(opts.Catalog, opts.Features, obs, logger),
		refresher:     scheduler.New(opts.Catalog, opts.OLTP, opts.OLAP, opts.Features, opts.Scheduler, obs, logger),
		detector:      detector.New(obs, opts.Features, opts.Detector, logger),
		obs:           obs,
		slowThreshold: opts.Observatory.SlowQueryThreshold,
		logger:        logger,
	}
}

// ChooseEngine classifies a statement as transactional or analytical.
// Pure and side-effect free.
func (s *Service) ChooseEngine(sqlText string, preferOLAP bool) core.EngineKind {
	return selector.Choose(sqlText, preferOLAP)
}

// Signature precomputes a statement's catalog fingerprint.
func (s *Service) Signature(sqlText string) string {
	return signature.Of(sqlText)
}

// TryRewriteWithMV attempts to serve the statement from a materialized view.
func (s *Service) TryRewriteWithMV(ctx context.Context, tenantID, sqlText string) rewrite.Result {
	return s.rewriter.TryRewrite(ctx, tenantID, sqlText)
}

// Catalog exposes the full catalog store for CRUD callers.
func (s *Service) Catalog() catalog.Store {
	return s.store
}

// RefreshOnce refreshes a single view and records the outcome.
func (s *Service) RefreshOnce(ctx context.Context, tenantID, id string) (core.RefreshStatus, error) {
	return s.refresher.RefreshOnce(ctx, tenantID, id)
}

// StartScheduler begins the periodic refresh sweep; a no-op unless the
// auto-refresh toggle is enabled.
func (s *Service) StartScheduler(ctx context.Context) {
	s.refresher.Start(ctx)
}

// StopScheduler halts the periodic sweep.
func (s *Service) StopScheduler() {
	s.refresher.Stop()
}

// Sweep runs one refresh pass over all enabled views, independent of the
// periodic scheduler.
func (s *Service) Sweep(ctx context.Context) {
	s.refresher.Sweep(ctx)
}

// SuggestFromRecentWorkload proposes view candidates from the tenant's slow
// queries inside the window.
func (s *Service) SuggestFromRecentWorkload(tenantID string, since time.Time) []detector.Candidate {
	return s.detector.Suggest(tenantID, since)
}

// RecordSuggested counts detector proposals for visibility.
func (s *Service) RecordSuggested(n int) {
	s.detector.RecordSuggested(n)
}

// RecordSlowQuery feeds one observed query into the observatory. Queries
// faster than the configured slow-query threshold are ignored.
func (s *Service) RecordSlowQuery(tenantID, sqlText string, duration time.Duration) {
	if duration < s.slowThreshold {
		return
	}
	s.obs.RecordSlowQuery(tenantID, signature.Of(sqlText), sqlText, duration)
}

// MVStats returns a snapshot of refresh, rewrite, and detector counters,
// partitioned by engine.
func (s *Service) MVStats() observe.Stats {
	return s.obs.Snapshot()
}

// Observatory exposes the underlying observatory, mainly for tests that
// assert counter deltas.
func (s *Service) Observatory() *observe.Observatory {
	return s.obs
}

// Package rewrite decides whether an incoming query can be served from a
// materialized view instead of being recomputed.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapaccel/internal/config"
	"github.com/leapstack-labs/leapaccel/internal/observe"
	"github.com/leapstack-labs/leapaccel/internal/selector"
	"github.com/leapstack-labs/leapaccel/internal/signature"
	"github.com/leapstack-labs/leapaccel/pkg/core"
)

// Reason explains a rewrite decision that did not use a view.
type Reason string

const (
	// ReasonDisabled: the feature toggles keep the rewrite path off; the
	// catalog is never touched.
	ReasonDisabled Reason = "disabled"

	// ReasonNoMatch: no enabled, successfully refreshed record matches the
	// query's signature.
	ReasonNoMatch Reason = "no_match"

	// ReasonCrossEngineDisabled: an analytical view matches but may not
	// answer a transactional-path request while cross-engine serving is off.
	ReasonCrossEngineDisabled Reason = "cross_engine_disabled"
)

// Result is the outcome of a rewrite attempt. When Used is true, SQL is the
// substitution-ready statement and Engine names the backend it must run on.
// All outcomes are non-fatal; on Used=false the request continues
// unaccelerated.
type Result struct {
	Used   bool
	SQL    string
	Engine core.EngineKind
	Reason Reason
}

// CatalogReader is the read-only catalog surface the rewriter needs.
type CatalogReader interface {
	FindBySignature(ctx context.Context, tenantID, sig string) (*core.MaterializedView, error)
}

// Rewriter matches queries against the catalog by signature.
// Safe for unbounded concurrent use.
type Rewriter struct {
	catalog  CatalogReader
	features config.Features
	obs      *observe.Observatory
	logger   *slog.Logger
}

// New creates a Rewriter. If logger is nil, a discard logger is used.
func New(catalog CatalogReader, features config.Features, obs *observe.Observatory, logger *slog.Logger) *Rewriter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Rewriter{
		catalog:  catalog,
		features: features,
		obs:      obs,
		logger:   logger,
	}
}

// TryRewrite attempts to substitute the statement with a read from a
// materialized view belonging to the tenant.
func (r *Rewriter) TryRewrite(ctx context.Context, tenantID, sqlText string) Result {
	if !r.features.MVEnabled || !r.features.RewriteEnabled {
		r.obs.RecordRewrite(core.EngineOLTP, false)
		return Result{Reason: ReasonDisabled}
	}

	sig := signature.Of(sqlText)
	mv, err := r.catalog.FindBySignature(ctx, tenantID, sig)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			// Catalog trouble never fails the request; it runs unaccelerated.
			r.logger.Warn("catalog lookup failed", slog.String("tenant", tenantID), slog.Any("error", err))
		}
		r.obs.RecordRewrite(core.EngineOLTP, false)
		return Result{Reason: ReasonNoMatch}
	}

	if mv.Engine == core.EngineOLAP && !r.features.CrossEngine {
		r.obs.RecordRewrite(core.EngineOLAP, false)
		return Result{Reason: ReasonCrossEngineDisabled}
	}

	r.obs.RecordRewrite(mv.Engine, true)
	r.logger.Debug("query rewritten to materialized view",
		slog.String("tenant", tenantID), slog.String("view", mv.ID), slog.String("engine", string(mv.Engine)))

	return Result{
		Used:   true,
		SQL:    servingStatement(mv),
		Engine: mv.Engine,
	}
}

// servingStatement builds the statement that reads the precomputed relation.
// Analytical views carry the engine hint so the downstream executor routes
// them to the analytical backend; transactional views never do.
func servingStatement(mv *core.MaterializedView) string {
	stmt := fmt.Sprintf("SELECT * FROM %s", mv.QualifiedRelation())
	if mv.Engine == core.EngineOLAP {
		return selector.OLAPHint + " " + stmt
	}
	return stmt
}

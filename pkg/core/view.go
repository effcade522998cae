package core

import (
	"strings"
	"time"
)

// RefreshStatus is the outcome of the most recent refresh of a
// materialized view.
type RefreshStatus string

const (
	RefreshNever   RefreshStatus = "never"
	RefreshSuccess RefreshStatus = "success"
	RefreshFailed  RefreshStatus = "failed"
)

// MaterializedView is a catalog record describing a precomputed result set
// that can substitute for recomputing its definition query.
type MaterializedView struct {
	ID       string
	TenantID string
	Name     string

	// DefinitionSQL is the query the view precomputes.
	DefinitionSQL string

	// Signature is the normalized fingerprint of DefinitionSQL. It is a pure
	// function of the definition text; engine and target database never
	// participate in it.
	Signature string

	// Engine is the backend that owns and serves this view.
	Engine EngineKind

	// TargetDatabase is the logical analytical database holding the view.
	// Required when Engine is olap, meaningless otherwise.
	TargetDatabase string

	// Enabled gates whether the rewrite path may use this view.
	Enabled bool

	// Proposed marks records created by the workload detector that have not
	// been approved by an operator yet.
	Proposed bool

	LastRefreshStatus RefreshStatus
	LastRefreshedAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the cross-field invariants of the record.
func (v *MaterializedView) Validate() error {
	if !v.Engine.Valid() {
		return &ValidationError{Field: "engine", Reason: "must be one of: oltp, olap"}
	}
	if v.DefinitionSQL == "" {
		return &ValidationError{Field: "definition_sql", Reason: "must not be empty"}
	}
	if v.Engine == EngineOLAP && v.TargetDatabase == "" {
		return &ValidationError{Field: "target_database", Reason: "required when engine is olap"}
	}
	return nil
}

// Servable reports whether the rewrite path may select this view: it must be
// enabled and its last refresh must have succeeded.
func (v *MaterializedView) Servable() bool {
	return v.Enabled && v.LastRefreshStatus == RefreshSuccess
}

// RelationName is the physical table backing this view on its engine.
func (v *MaterializedView) RelationName() string {
	return "mv_" + strings.ReplaceAll(v.ID, "-", "_")
}

// QualifiedRelation is the relation name as addressed from the serving
// engine, including the analytical target database for olap views.
func (v *MaterializedView) QualifiedRelation() string {
	if v.Engine == EngineOLAP && v.TargetDatabase != "" {
		return v.TargetDatabase + "." + v.RelationName()
	}
	return v.RelationName()
}

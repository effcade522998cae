// Package catalog is the persistent registry of materialized-view
// definitions. Every operation is tenant-scoped: tenantID is a mandatory
// partition key and no call ever crosses tenants, with the single exception
// of ListAllEnabled, which exists for the refresh sweep.
package catalog

import (
	"context"

	"github.com/leapstack-labs/leapaccel/pkg/core"
)

// CreateInput is the caller-supplied part of a new catalog record.
type CreateInput struct {
	Name          string
	DefinitionSQL string

	// Engine is the raw engine string; empty defaults to oltp, anything
	// outside {oltp, olap} fails validation.
	Engine string

	TargetDatabase string
	Enabled        bool
	Proposed       bool
}

// Patch carries a partial update; nil fields are left untouched.
// Changing DefinitionSQL recomputes the record's signature.
type Patch struct {
	Name           *string
	DefinitionSQL  *string
	Engine         *string
	TargetDatabase *string
	Enabled        *bool
	Proposed       *bool
}

// Filter narrows List results. Nil fields pass all records through.
type Filter struct {
	Enabled  *bool
	Proposed *bool
}

// Store is the catalog contract consumed by the rewrite engine, the refresh
// scheduler, and external CRUD callers.
type Store interface {
	Create(ctx context.Context, tenantID string, in CreateInput) (*core.MaterializedView, error)
	Get(ctx context.Context, tenantID, id string) (*core.MaterializedView, error)
	List(ctx context.Context, tenantID string, f Filter) ([]*core.MaterializedView, error)
	Update(ctx context.Context, tenantID, id string, p Patch) (*core.MaterializedView, error)
	Delete(ctx context.Context, tenantID, id string) error

	// MarkRefreshed records a refresh outcome: status and timestamp are
	// written atomically. Reserved for the scheduler.
	MarkRefreshed(ctx context.Context, tenantID, id string, status core.RefreshStatus) error

	// FindBySignature returns the tenant's servable record (enabled, last
	// refresh succeeded) matching the signature, or core.ErrNotFound.
	FindBySignature(ctx context.Context, tenantID, sig string) (*core.MaterializedView, error)

	// Approve clears the proposed flag on a detector-created record.
	Approve(ctx context.Context, tenantID, id string) (*core.MaterializedView, error)

	// ListAllEnabled returns enabled records across all tenants.
	// Scheduler-only path.
	ListAllEnabled(ctx context.Context) ([]*core.MaterializedView, error)

	CountByTenant(ctx context.Context, tenantID string) (int64, error)

	// Signature exposes the normalizer so callers can precompute a
	// fingerprint without creating a record.
	Signature(sqlText string) string

	Close() error
}

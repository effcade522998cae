// Package backend wraps the database adapters with the two refresh
// primitives the scheduler dispatches to: recompute-and-swap on the
// transactional engine and target-database materialization on the
// analytical engine.
package backend

import (
	"context"

	"github.com/leapstack-labs/leapaccel/pkg/adapter"
)

// OLTPExecutor is the transactional engine surface consumed by the
// scheduler and the query path.
type OLTPExecutor interface {
	// Execute runs a statement, bounded by the context deadline.
	Execute(ctx context.Context, sqlText string, args ...any) (*adapter.Rows, error)

	// Refresh recomputes the relation backing a view from its definition.
	Refresh(ctx context.Context, viewName, definitionSQL string) error
}

// OLAPExecutor is the analytical engine surface. It must only be invoked
// while cross-engine serving is enabled; the scheduler enforces that.
type OLAPExecutor interface {
	Execute(ctx context.Context, sqlText string, args ...any) (*adapter.Rows, error)

	// RefreshMaterializedView rebuilds the view's relation inside the given
	// logical target database.
	RefreshMaterializedView(ctx context.Context, targetDatabase, viewName, definitionSQL string) error
}

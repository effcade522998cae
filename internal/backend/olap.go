package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapaccel/pkg/adapter"
)

// OLAP executes against the analytical engine through its adapter.
type OLAP struct {
	db     adapter.Adapter
	logger *slog.Logger
}

// NewOLAP wraps a connected adapter. If logger is nil, a discard logger
// is used.
func NewOLAP(db adapter.Adapter, logger *slog.Logger) *OLAP {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &OLAP{db: db, logger: logger}
}

// Execute runs a statement, bounded by the context deadline.
func (o *OLAP) Execute(ctx context.Context, sqlText string, args ...any) (*adapter.Rows, error) {
	return o.db.Query(ctx, sqlText, args...)
}

// RefreshMaterializedView rebuilds the view's relation inside the logical
// target database, creating the target schema on first use.
func (o *OLAP) RefreshMaterializedView(ctx context.Context, targetDatabase, viewName, definitionSQL string) error {
	if targetDatabase == "" {
		return fmt.Errorf("target database is required for analytical refresh")
	}

	_ = o.db.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", targetDatabase))

	qualified := targetDatabase + "." + viewName
	if err := o.db.Exec(ctx, fmt.Sprintf("CREATE OR REPLACE TABLE %s AS %s", qualified, definitionSQL)); err != nil {
		return fmt.Errorf("failed to materialize %s: %w", qualified, err)
	}

	o.logger.Debug("materialized analytical view",
		slog.String("view", viewName), slog.String("target_database", targetDatabase))
	return nil
}

var _ OLAPExecutor = (*OLAP)(nil)

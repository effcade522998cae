package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapaccel/pkg/adapter"
)

// OLTP executes against the transactional engine through its adapter.
type OLTP struct {
	db     adapter.Adapter
	logger *slog.Logger
}

// NewOLTP wraps a connected adapter. If logger is nil, a discard logger
// is used.
func NewOLTP(db adapter.Adapter, logger *slog.Logger) *OLTP {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &OLTP{db: db, logger: logger}
}

// Execute runs a statement, bounded by the context deadline.
func (o *OLTP) Execute(ctx context.Context, sqlText string, args ...any) (*adapter.Rows, error) {
	return o.db.Query(ctx, sqlText, args...)
}

// Refresh rebuilds the relation backing a view. A native materialized view
// is refreshed in place; otherwise the relation is recomputed into a swap
// table and renamed over the old one so readers never see a half-built
// relation under the final name.
func (o *OLTP) Refresh(ctx context.Context, viewName, definitionSQL string) error {
	if err := o.db.Exec(ctx, fmt.Sprintf("REFRESH MATERIALIZED VIEW %s", viewName)); err == nil {
		o.logger.Debug("refreshed native materialized view", slog.String("view", viewName))
		return nil
	}

	swap := viewName + "_swap"
	_ = o.db.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", swap))

	if err := o.db.Exec(ctx, fmt.Sprintf("CREATE TABLE %s AS %s", swap, definitionSQL)); err != nil {
		return fmt.Errorf("failed to recompute %s: %w", viewName, err)
	}

	_ = o.db.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", viewName))
	if err := o.db.Exec(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s", swap, viewName)); err != nil {
		return fmt.Errorf("failed to swap %s into place: %w", viewName, err)
	}

	o.logger.Debug("recomputed view relation", slog.String("view", viewName))
	return nil
}

var _ OLTPExecutor = (*OLTP)(nil)

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/leapstack-labs/leapaccel/internal/signature"
	"github.com/leapstack-labs/leapaccel/pkg/core"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite catalog store instance.
// If logger is nil, a discard logger is used.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Signature exposes the normalizer used for record fingerprints.
func (s *SQLiteStore) Signature(sqlText string) string {
	return signature.Of(sqlText)
}

const viewColumns = `id, tenant_id, name, definition_sql, signature, engine,
	target_database, enabled, proposed, last_refresh_status, last_refreshed_at,
	created_at, updated_at`

// Create validates and persists a new record, returning it with its
// generated id and signature. Nothing is written on validation failure.
func (s *SQLiteStore) Create(ctx context.Context, tenantID string, in CreateInput) (*core.MaterializedView, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	engine, err := core.ParseEngineKind(in.Engine)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	v := &core.MaterializedView{
		ID:                uuid.New().String(),
		TenantID:          tenantID,
		Name:              in.Name,
		DefinitionSQL:     in.DefinitionSQL,
		Signature:         signature.Of(in.DefinitionSQL),
		Engine:            engine,
		TargetDatabase:    in.TargetDatabase,
		Enabled:           in.Enabled,
		Proposed:          in.Proposed,
		LastRefreshStatus: core.RefreshNever,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}

	s.logger.Debug("creating materialized view",
		slog.String("id", v.ID), slog.String("tenant", tenantID), slog.String("engine", string(engine)))

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO materialized_views
		 (id, tenant_id, name, definition_sql, signature, engine, target_database,
		  enabled, proposed, last_refresh_status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.TenantID, v.Name, v.DefinitionSQL, v.Signature, string(v.Engine),
		v.TargetDatabase, v.Enabled, v.Proposed, string(v.LastRefreshStatus),
		v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create materialized view: %w", err)
	}

	return v, nil
}

// Get retrieves a record by id within the tenant.
func (s *SQLiteStore) Get(ctx context.Context, tenantID, id string) (*core.MaterializedView, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+viewColumns+` FROM materialized_views WHERE tenant_id = ? AND id = ?`,
		tenantID, id,
	)
	v, err := scanView(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("materialized view %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get materialized view: %w", err)
	}
	return v, nil
}

// List returns the tenant's records matching the filter.
// Insertion order is not guaranteed.
func (s *SQLiteStore) List(ctx context.Context, tenantID string, f Filter) ([]*core.MaterializedView, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	query := `SELECT ` + viewColumns + ` FROM materialized_views WHERE tenant_id = ?`
	args := []any{tenantID}
	if f.Enabled != nil {
		query += ` AND enabled = ?`
		args = append(args, *f.Enabled)
	}
	if f.Proposed != nil {
		query += ` AND proposed = ?`
		args = append(args, *f.Proposed)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list materialized views: %w", err)
	}
	defer rows.Close()

	return collectViews(rows)
}

// Update merges the patch into the existing record. The signature is
// recomputed when the definition changes; the merged record is validated
// before anything is written.
func (s *SQLiteStore) Update(ctx context.Context, tenantID, id string, p Patch) (*core.MaterializedView, error) {
	v, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if p.Name != nil {
		v.Name = *p.Name
	}
	if p.DefinitionSQL != nil {
		v.DefinitionSQL = *p.DefinitionSQL
		v.Signature = signature.Of(*p.DefinitionSQL)
	}
	if p.Engine != nil {
		engine, err := core.ParseEngineKind(*p.Engine)
		if err != nil {
			return nil, err
		}
		v.Engine = engine
	}
	if p.TargetDatabase != nil {
		v.TargetDatabase = *p.TargetDatabase
	}
	if p.Enabled != nil {
		v.Enabled = *p.Enabled
	}
	if p.Proposed != nil {
		v.Proposed = *p.Proposed
	}
	v.UpdatedAt = time.Now().UTC()

	if err := v.Validate(); err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE materialized_views
		 SET name = ?, definition_sql = ?, signature = ?, engine = ?,
		     target_database = ?, enabled = ?, proposed = ?, updated_at = ?
		 WHERE tenant_id = ? AND id = ?`,
		v.Name, v.DefinitionSQL, v.Signature, string(v.Engine),
		v.TargetDatabase, v.Enabled, v.Proposed, v.UpdatedAt,
		tenantID, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update materialized view: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, fmt.Errorf("materialized view %s: %w", id, core.ErrNotFound)
	}

	return v, nil
}

// Delete removes the record. A second call for the same id reports
// core.ErrNotFound, not success.
func (s *SQLiteStore) Delete(ctx context.Context, tenantID, id string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM materialized_views WHERE tenant_id = ? AND id = ?`,
		tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete materialized view: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("materialized view %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// MarkRefreshed sets the refresh status and timestamp in a single statement
// so concurrent writers can never interleave the two.
func (s *SQLiteStore) MarkRefreshed(ctx context.Context, tenantID, id string, status core.RefreshStatus) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE materialized_views
		 SET last_refresh_status = ?, last_refreshed_at = ?, updated_at = ?
		 WHERE tenant_id = ? AND id = ?`,
		string(status), now, now, tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark refreshed: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("materialized view %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// FindBySignature returns the tenant's servable record for the signature.
func (s *SQLiteStore) FindBySignature(ctx context.Context, tenantID, sig string) (*core.MaterializedView, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+viewColumns+` FROM materialized_views
		 WHERE tenant_id = ? AND signature = ? AND enabled = 1 AND last_refresh_status = ?
		 LIMIT 1`,
		tenantID, sig, string(core.RefreshSuccess),
	)
	v, err := scanView(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find by signature: %w", err)
	}
	return v, nil
}

// Approve clears the proposed flag on a detector-created record.
func (s *SQLiteStore) Approve(ctx context.Context, tenantID, id string) (*core.MaterializedView, error) {
	proposed := false
	return s.Update(ctx, tenantID, id, Patch{Proposed: &proposed})
}

// ListAllEnabled returns enabled records across all tenants, for the
// refresh sweep only.
func (s *SQLiteStore) ListAllEnabled(ctx context.Context) ([]*core.MaterializedView, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+viewColumns+` FROM materialized_views WHERE enabled = 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled views: %w", err)
	}
	defer rows.Close()

	return collectViews(rows)
}

// CountByTenant returns the number of records for a tenant.
func (s *SQLiteStore) CountByTenant(ctx context.Context, tenantID string) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}

	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM materialized_views WHERE tenant_id = ?`, tenantID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count materialized views: %w", err)
	}
	return count, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanView(r rowScanner) (*core.MaterializedView, error) {
	v := &core.MaterializedView{}
	var (
		engine        string
		status        string
		targetDB      sql.NullString
		lastRefreshed sql.NullTime
	)
	err := r.Scan(&v.ID, &v.TenantID, &v.Name, &v.DefinitionSQL, &v.Signature,
		&engine, &targetDB, &v.Enabled, &v.Proposed, &status, &lastRefreshed,
		&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	v.Engine = core.EngineKind(engine)
	v.LastRefreshStatus = core.RefreshStatus(status)
	if targetDB.Valid {
		v.TargetDatabase = targetDB.String
	}
	if lastRefreshed.Valid {
		t := lastRefreshed.Time
		v.LastRefreshedAt = &t
	}
	return v, nil
}

func collectViews(rows *sql.Rows) ([]*core.MaterializedView, error) {
	var views []*core.MaterializedView
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan materialized view: %w", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// Ensure SQLiteStore implements the Store interface.
var _ Store = (*SQLiteStore)(nil)

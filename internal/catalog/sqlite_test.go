package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapaccel/internal/testutil"
	"github.com/leapstack-labs/leapaccel/pkg/core"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s := NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, s.Open(":memory:"))
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateDefaultsAndSignature(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v, err := s.Create(ctx, "t1", CreateInput{
		Name:          "daily_orders",
		DefinitionSQL: "select day, count(*) from orders group by day",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "t1", v.TenantID)
	assert.Equal(t, core.EngineOLTP, v.Engine, "engine defaults to oltp")
	assert.False(t, v.Enabled)
	assert.False(t, v.Proposed)
	assert.Equal(t, core.RefreshNever, v.LastRefreshStatus)
	assert.Equal(t, s.Signature(v.DefinitionSQL), v.Signature)
	assert.Nil(t, v.LastRefreshedAt)

	got, err := s.Get(ctx, "t1", v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.ID, got.ID)
	assert.Equal(t, v.Signature, got.Signature)
}

func TestCreateRejectsInvalidEngine(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "t1", CreateInput{
		DefinitionSQL: "select 1",
		Engine:        "nope",
	})
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))

	// Nothing persisted.
	count, err := s.CountByTenant(ctx, "t1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreateRequiresTargetDatabaseForOLAP(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "t1", CreateInput{
		DefinitionSQL: "select a, sum(b) from t group by a",
		Engine:        "olap",
	})
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))

	v, err := s.Create(ctx, "t1", CreateInput{
		DefinitionSQL:  "select a, sum(b) from t group by a",
		Engine:         "olap",
		TargetDatabase: "analytics",
	})
	require.NoError(t, err)
	assert.Equal(t, "analytics", v.TargetDatabase)
}

func TestSignatureIsEngineInvariant(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	def := "select region, sum(amount) from orders group by region"
	a, err := s.Create(ctx, "t1", CreateInput{DefinitionSQL: def, Engine: "oltp"})
	require.NoError(t, err)
	b, err := s.Create(ctx, "t1", CreateInput{DefinitionSQL: def, Engine: "olap", TargetDatabase: "analytics"})
	require.NoError(t, err)

	assert.Equal(t, a.Signature, b.Signature)
}

func TestListFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "t1", CreateInput{DefinitionSQL: "select 1", Enabled: true})
	require.NoError(t, err)
	_, err = s.Create(ctx, "t1", CreateInput{DefinitionSQL: "select 2", Proposed: true})
	require.NoError(t, err)
	_, err = s.Create(ctx, "t1", CreateInput{DefinitionSQL: "select 3"})
	require.NoError(t, err)
	// Another tenant's record never shows up.
	_, err = s.Create(ctx, "t2", CreateInput{DefinitionSQL: "select 4", Enabled: true})
	require.NoError(t, err)

	all, err := s.List(ctx, "t1", Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	enabled := true
	got, err := s.List(ctx, "t1", Filter{Enabled: &enabled})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Enabled)

	proposed := true
	got, err = s.List(ctx, "t1", Filter{Proposed: &proposed})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Proposed)

	notEnabled := false
	got, err = s.List(ctx, "t1", Filter{Enabled: &notEnabled})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestUpdateRecomputesSignature(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v, err := s.Create(ctx, "t1", CreateInput{DefinitionSQL: "select 1"})
	require.NoError(t, err)
	oldSig := v.Signature

	newDef := "select a, count(*) from t group by a"
	updated, err := s.Update(ctx, "t1", v.ID, Patch{DefinitionSQL: &newDef})
	require.NoError(t, err)
	assert.NotEqual(t, oldSig, updated.Signature)
	assert.Equal(t, s.Signature(newDef), updated.Signature)

	name := "renamed"
	enabled := true
	updated, err = s.Update(ctx, "t1", v.ID, Patch{Name: &name, Enabled: &enabled})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.True(t, updated.Enabled)
	assert.Equal(t, s.Signature(newDef), updated.Signature, "signature untouched when definition unchanged")
}

func TestUpdateValidatesMergedRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v, err := s.Create(ctx, "t1", CreateInput{DefinitionSQL: "select 1"})
	require.NoError(t, err)

	// Switching to olap without a target database must fail and leave the
	// record untouched.
	olap := "olap"
	_, err = s.Update(ctx, "t1", v.ID, Patch{Engine: &olap})
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))

	got, err := s.Get(ctx, "t1", v.ID)
	require.NoError(t, err)
	assert.Equal(t, core.EngineOLTP, got.Engine)

	target := "analytics"
	updated, err := s.Update(ctx, "t1", v.ID, Patch{Engine: &olap, TargetDatabase: &target})
	require.NoError(t, err)
	assert.Equal(t, core.EngineOLAP, updated.Engine)
}

func TestDeleteIsNotFoundOnSecondCall(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v, err := s.Create(ctx, "t1", CreateInput{DefinitionSQL: "select 1"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "t1", v.ID))
	assert.ErrorIs(t, s.Delete(ctx, "t1", v.ID), core.ErrNotFound)
}

func TestNotFoundSignals(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "t1", "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.False(t, core.IsValidation(err))

	name := "x"
	_, err = s.Update(ctx, "t1", "missing", Patch{Name: &name})
	assert.ErrorIs(t, err, core.ErrNotFound)

	err = s.MarkRefreshed(ctx, "t1", "missing", core.RefreshSuccess)
	assert.ErrorIs(t, err, core.ErrNotFound)

	// Wrong tenant is indistinguishable from a missing id.
	v, err := s.Create(ctx, "t1", CreateInput{DefinitionSQL: "select 1"})
	require.NoError(t, err)
	_, err = s.Get(ctx, "t2", v.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestMarkRefreshed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v, err := s.Create(ctx, "t1", CreateInput{DefinitionSQL: "select 1"})
	require.NoError(t, err)

	require.NoError(t, s.MarkRefreshed(ctx, "t1", v.ID, core.RefreshSuccess))
	got, err := s.Get(ctx, "t1", v.ID)
	require.NoError(t, err)
	assert.Equal(t, core.RefreshSuccess, got.LastRefreshStatus)
	require.NotNil(t, got.LastRefreshedAt)

	require.NoError(t, s.MarkRefreshed(ctx, "t1", v.ID, core.RefreshFailed))
	got, err = s.Get(ctx, "t1", v.ID)
	require.NoError(t, err)
	assert.Equal(t, core.RefreshFailed, got.LastRefreshStatus)
}

func TestFindBySignatureRequiresServable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	def := "select a, count(*) from t group by a"
	v, err := s.Create(ctx, "t1", CreateInput{DefinitionSQL: def, Enabled: true})
	require.NoError(t, err)
	sig := s.Signature(def)

	// Enabled but never refreshed: no match.
	_, err = s.FindBySignature(ctx, "t1", sig)
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, s.MarkRefreshed(ctx, "t1", v.ID, core.RefreshSuccess))
	got, err := s.FindBySignature(ctx, "t1", sig)
	require.NoError(t, err)
	assert.Equal(t, v.ID, got.ID)

	// Other tenants never see it.
	_, err = s.FindBySignature(ctx, "t2", sig)
	assert.ErrorIs(t, err, core.ErrNotFound)

	// A failed refresh takes it back out of rotation.
	require.NoError(t, s.MarkRefreshed(ctx, "t1", v.ID, core.RefreshFailed))
	_, err = s.FindBySignature(ctx, "t1", sig)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestApprove(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v, err := s.Create(ctx, "t1", CreateInput{DefinitionSQL: "select 1", Proposed: true})
	require.NoError(t, err)

	approved, err := s.Approve(ctx, "t1", v.ID)
	require.NoError(t, err)
	assert.False(t, approved.Proposed)
}

func TestListAllEnabledCrossesTenants(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "t1", CreateInput{DefinitionSQL: "select 1", Enabled: true})
	require.NoError(t, err)
	_, err = s.Create(ctx, "t2", CreateInput{DefinitionSQL: "select 2", Enabled: true})
	require.NoError(t, err)
	_, err = s.Create(ctx, "t3", CreateInput{DefinitionSQL: "select 3"})
	require.NoError(t, err)

	views, err := s.ListAllEnabled(ctx)
	require.NoError(t, err)
	assert.Len(t, views, 2)
}

func TestMigrationVersion(t *testing.T) {
	s := newTestStore(t)
	version, err := s.MigrationVersion()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, version, int64(1))
}

package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEngineKind(t *testing.T) {
	tests := []struct {
		in      string
		want    EngineKind
		wantErr bool
	}{
		{in: "", want: EngineOLTP},
		{in: "oltp", want: EngineOLTP},
		{in: "olap", want: EngineOLAP},
		{in: "OLAP", wantErr: true},
		{in: "mysql", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("input "+tt.in, func(t *testing.T) {
			got, err := ParseEngineKind(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngineKindValid(t *testing.T) {
	assert.True(t, EngineOLTP.Valid())
	assert.True(t, EngineOLAP.Valid())
	assert.False(t, EngineKind("").Valid())
	assert.False(t, EngineKind("other").Valid())
}

func TestMaterializedViewValidate(t *testing.T) {
	tests := []struct {
		name      string
		view      MaterializedView
		wantField string
	}{
		{
			name: "valid oltp",
			view: MaterializedView{Engine: EngineOLTP, DefinitionSQL: "select 1"},
		},
		{
			name: "valid olap",
			view: MaterializedView{Engine: EngineOLAP, DefinitionSQL: "select 1", TargetDatabase: "analytics"},
		},
		{
			name:      "invalid engine",
			view:      MaterializedView{Engine: "x", DefinitionSQL: "select 1"},
			wantField: "engine",
		},
		{
			name:      "empty definition",
			view:      MaterializedView{Engine: EngineOLTP},
			wantField: "definition_sql",
		},
		{
			name:      "olap without target database",
			view:      MaterializedView{Engine: EngineOLAP, DefinitionSQL: "select 1"},
			wantField: "target_database",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.view.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}
}

func TestServable(t *testing.T) {
	v := MaterializedView{Enabled: true, LastRefreshStatus: RefreshSuccess}
	assert.True(t, v.Servable())

	v.Enabled = false
	assert.False(t, v.Servable())

	v.Enabled = true
	v.LastRefreshStatus = RefreshFailed
	assert.False(t, v.Servable())

	v.LastRefreshStatus = RefreshNever
	assert.False(t, v.Servable())
}

func TestRelationName(t *testing.T) {
	v := MaterializedView{ID: "0aa64be3-9a2f-4c91-8d35-123456789abc"}
	assert.Equal(t, "mv_0aa64be3_9a2f_4c91_8d35_123456789abc", v.RelationName())
}

func TestQualifiedRelation(t *testing.T) {
	oltp := MaterializedView{ID: "abc", Engine: EngineOLTP}
	assert.Equal(t, "mv_abc", oltp.QualifiedRelation())

	olap := MaterializedView{ID: "abc", Engine: EngineOLAP, TargetDatabase: "analytics"}
	assert.Equal(t, "analytics.mv_abc", olap.QualifiedRelation())
}

func TestIsValidation(t *testing.T) {
	err := &ValidationError{Field: "engine", Reason: "bad"}
	assert.True(t, IsValidation(err))
	assert.True(t, IsValidation(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsValidation(ErrNotFound))
	assert.False(t, IsValidation(nil))
}

package adapter

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownAdapterError_Error(t *testing.T) {
	err := &UnknownAdapterError{
		Type:      "fake_db",
		Available: []string{"duckdb", "postgres"},
	}

	msg := err.Error()

	// Check that error message contains important info
	assert.NotEmpty(t, msg, "error message should not be empty")

	// Should mention the type
	assert.Contains(t, msg, "fake_db", "error should mention the unknown type 'fake_db'")

	// Should hint about config
	assert.Contains(t, msg, "leapaccel.yaml", "error should mention config file")
}

func TestRegister(t *testing.T) {
	// Register a mock adapter
	Register("test_adapter_internal", func(_ *slog.Logger) Adapter { return nil })

	assert.True(t, IsRegistered("test_adapter_internal"), "test_adapter_internal should be registered after Register()")

	factory, ok := Get("test_adapter_internal")
	assert.True(t, ok, "Get(test_adapter_internal) should return true after Register()")
	assert.NotNil(t, factory, "Get(test_adapter_internal) should return non-nil factory")
}

func TestNew_EmptyType(t *testing.T) {
	cfg := Config{
		Type: "",
	}

	_, err := New(cfg, nil)
	require.Error(t, err, "New with empty type should fail")
	assert.Equal(t, "adapter type not specified", err.Error(), "error message")
}

func TestNew_UnknownType(t *testing.T) {
	cfg := Config{
		Type: "definitely_not_registered",
	}

	_, err := New(cfg, nil)
	require.Error(t, err)

	var unknownErr *UnknownAdapterError
	assert.ErrorAs(t, err, &unknownErr)
}

func TestList_Sorted(t *testing.T) {
	Register("zzz_test", func(_ *slog.Logger) Adapter { return nil })
	Register("aaa_test", func(_ *slog.Logger) Adapter { return nil })

	names := List()
	assert.IsIncreasing(t, names, "List() should return sorted names")
}

func TestParseQualifiedName(t *testing.T) {
	tests := []struct {
		table      string
		defSchema  string
		wantSchema string
		wantName   string
	}{
		{table: "users", defSchema: "public", wantSchema: "public", wantName: "users"},
		{table: "analytics.mv_abc", defSchema: "public", wantSchema: "analytics", wantName: "mv_abc"},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			schema, name := ParseQualifiedName(tt.table, tt.defSchema)
			assert.Equal(t, tt.wantSchema, schema)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

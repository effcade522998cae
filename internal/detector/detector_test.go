package detector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapaccel/internal/config"
	"github.com/leapstack-labs/leapaccel/internal/observe"
	"github.com/leapstack-labs/leapaccel/internal/signature"
	"github.com/leapstack-labs/leapaccel/pkg/core"
)

func record(obs *observe.Observatory, tenantID, sql string, times int) {
	for i := 0; i < times; i++ {
		obs.RecordSlowQuery(tenantID, signature.Of(sql), sql, 2*time.Second)
	}
}

func newDetector(obs *observe.Observatory, autoDetect bool, minOccurrences int) *Detector {
	return New(obs, config.Features{AutoDetect: autoDetect},
		config.DetectorConfig{MinOccurrences: minOccurrences}, nil)
}

func TestSuggestDisabledByToggle(t *testing.T) {
	obs := observe.New(nil)
	record(obs, "t1", "select a, count(*) from t group by a", 5)

	d := newDetector(obs, false, 2)
	assert.Nil(t, d.Suggest("t1", time.Time{}))
}

func TestSuggestRequiresRecurrence(t *testing.T) {
	obs := observe.New(nil)
	record(obs, "t1", "select a, count(*) from t group by a", 1)

	d := newDetector(obs, true, 2)
	assert.Empty(t, d.Suggest("t1", time.Time{}))

	record(obs, "t1", "select a, count(*) from t group by a", 1)
	got := d.Suggest("t1", time.Time{})
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Occurrences)
}

func TestSuggestSkipsTransactionalQueries(t *testing.T) {
	obs := observe.New(nil)
	// A slow point lookup recurs, but it is not analytical; nothing to
	// materialize.
	record(obs, "t1", "select * from users where id = 42", 10)

	d := newDetector(obs, true, 2)
	assert.Empty(t, d.Suggest("t1", time.Time{}))
}

func TestSuggestCandidateShape(t *testing.T) {
	obs := observe.New(nil)
	sql := "select region, sum(amount) from orders group by region"
	record(obs, "t1", sql, 3)

	d := newDetector(obs, true, 2)
	got := d.Suggest("t1", time.Time{})
	require.Len(t, got, 1)

	c := got[0]
	assert.Equal(t, sql, c.DefinitionSQL)
	assert.Equal(t, core.EngineOLAP, c.Engine)
	assert.Equal(t, signature.Of(sql), c.Hash)
	assert.Equal(t, "auto_"+c.Hash[:8], c.Name)
	assert.Equal(t, 3, c.Occurrences)
}

func TestSuggestDeduplicatesByNormalizedHash(t *testing.T) {
	obs := observe.New(nil)
	// Same query in two spellings; normalization collapses them into one
	// candidate with the combined count.
	record(obs, "t1", "select a, count(*) from t group by a", 1)
	record(obs, "t1", "SELECT a, COUNT(*) FROM t GROUP BY a;", 2)

	d := newDetector(obs, true, 2)
	got := d.Suggest("t1", time.Time{})
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Occurrences)
}

func TestSuggestOrdersByOccurrences(t *testing.T) {
	obs := observe.New(nil)
	record(obs, "t1", "select a, count(*) from t group by a", 2)
	record(obs, "t1", "select b, sum(x) from u group by b", 4)

	d := newDetector(obs, true, 2)
	got := d.Suggest("t1", time.Time{})
	require.Len(t, got, 2)
	assert.Equal(t, 4, got[0].Occurrences)
	assert.Equal(t, 2, got[1].Occurrences)
}

func TestSuggestIsTenantScoped(t *testing.T) {
	obs := observe.New(nil)
	record(obs, "t1", "select a, count(*) from t group by a", 3)

	d := newDetector(obs, true, 2)
	assert.Empty(t, d.Suggest("t2", time.Time{}))
}

func TestSuggestHonorsWindow(t *testing.T) {
	obs := observe.New(nil)
	record(obs, "t1", "select a, count(*) from t group by a", 3)

	d := newDetector(obs, true, 2)
	assert.Empty(t, d.Suggest("t1", time.Now().Add(time.Hour)))
}

func TestRecordSuggested(t *testing.T) {
	obs := observe.New(nil)
	d := newDetector(obs, true, 2)

	d.RecordSuggested(3)
	assert.Equal(t, uint64(3), obs.Snapshot().Suggested)
}

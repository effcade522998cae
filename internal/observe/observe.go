// Package observe holds the process-wide performance counters and the rolling
// slow-query log that feed operational dashboards and the workload detector.
//
// All process-wide mutable state of the acceleration layer lives behind the
// Observatory so tests can assert counter deltas via Snapshot and Reset
// without cross-test interference.
package observe

import (
	"log/slog"
	"sync"
	"time"

	"github.com/leapstack-labs/leapaccel/pkg/core"
)

// DefaultSampleCapacity bounds the slow-query log when no capacity is given.
const DefaultSampleCapacity = 1024

// EngineStats are the monotonic per-engine counters. They live for the
// process lifetime and are never persisted.
type EngineStats struct {
	RefreshSuccess  uint64
	RefreshFailed   uint64
	RewriteUsed     uint64
	RewriteBypassed uint64
}

// SlowSample is one observed slow query, retained for a rolling window and
// evicted oldest-first.
type SlowSample struct {
	TenantID string
	Hash     string
	SQL      string
	Duration time.Duration
	At       time.Time
}

// Stats is a point-in-time copy of all counters. Both engines are always
// present in ByEngine.
type Stats struct {
	Suggested uint64
	ByEngine  map[core.EngineKind]EngineStats
}

// Observatory records refresh outcomes, rewrite usage, detector activity,
// and slow-query samples. Safe for concurrent use.
type Observatory struct {
	mu        sync.Mutex
	engines   map[core.EngineKind]*EngineStats
	suggested uint64
	samples   []SlowSample
	capacity  int
	logger    *slog.Logger
}

// New creates an Observatory with the default slow-query log capacity.
func New(logger *slog.Logger) *Observatory {
	return NewWithCapacity(logger, DefaultSampleCapacity)
}

// NewWithCapacity creates an Observatory whose slow-query log holds at most
// capacity samples.
func NewWithCapacity(logger *slog.Logger, capacity int) *Observatory {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if capacity <= 0 {
		capacity = DefaultSampleCapacity
	}
	return &Observatory{
		engines: map[core.EngineKind]*EngineStats{
			core.EngineOLTP: {},
			core.EngineOLAP: {},
		},
		capacity: capacity,
		logger:   logger,
	}
}

// RecordRefresh counts one refresh outcome for the given engine.
func (o *Observatory) RecordRefresh(engine core.EngineKind, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := o.stats(engine)
	if ok {
		s.RefreshSuccess++
	} else {
		s.RefreshFailed++
	}
}

// RecordRewrite counts one rewrite decision for the given engine. used=false
// covers bypass, no-match, and disabled outcomes alike.
func (o *Observatory) RecordRewrite(engine core.EngineKind, used bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := o.stats(engine)
	if used {
		s.RewriteUsed++
	} else {
		s.RewriteBypassed++
	}
}

// RecordSuggested counts n detector proposals.
func (o *Observatory) RecordSuggested(n int) {
	if n <= 0 {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.suggested += uint64(n)
}

// RecordSlowQuery appends a slow-query sample, evicting the oldest entries
// once the log is full.
func (o *Observatory) RecordSlowQuery(tenantID, hash, sqlText string, duration time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.samples = append(o.samples, SlowSample{
		TenantID: tenantID,
		Hash:     hash,
		SQL:      sqlText,
		Duration: duration,
		At:       time.Now().UTC(),
	})
	if overflow := len(o.samples) - o.capacity; overflow > 0 {
		o.samples = append(o.samples[:0:0], o.samples[overflow:]...)
	}
}

// SamplesSince returns copies of the tenant's slow-query samples observed
// at or after since.
func (o *Observatory) SamplesSince(tenantID string, since time.Time) []SlowSample {
	o.mu.Lock()
	defer o.mu.Unlock()

	var out []SlowSample
	for _, s := range o.samples {
		if s.TenantID == tenantID && !s.At.Before(since) {
			out = append(out, s)
		}
	}
	return out
}

// Snapshot returns a copy of all counters. Mutating the returned value has
// no effect on the Observatory.
func (o *Observatory) Snapshot() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()

	byEngine := make(map[core.EngineKind]EngineStats, len(o.engines))
	for k, v := range o.engines {
		byEngine[k] = *v
	}
	return Stats{
		Suggested: o.suggested,
		ByEngine:  byEngine,
	}
}

// Reset zeroes all counters and drops all samples.
func (o *Observatory) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	for k := range o.engines {
		o.engines[k] = &EngineStats{}
	}
	o.suggested = 0
	o.samples = nil
}

// stats returns the counter block for an engine, allocating one for unknown
// kinds so a bad caller cannot panic the counter path.
func (o *Observatory) stats(engine core.EngineKind) *EngineStats {
	s, ok := o.engines[engine]
	if !ok {
		s = &EngineStats{}
		o.engines[engine] = s
	}
	return s
}

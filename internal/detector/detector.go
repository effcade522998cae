// Package detector inspects the rolling slow-query log and proposes new
// materialized-view candidates for operator review.
//
// The detector only identifies candidates; persisting them as
// proposed/disabled catalog records is the caller's write.
package detector

import (
	"log/slog"
	"sort"
	"time"

	"github.com/leapstack-labs/leapaccel/internal/config"
	"github.com/leapstack-labs/leapaccel/internal/observe"
	"github.com/leapstack-labs/leapaccel/internal/selector"
	"github.com/leapstack-labs/leapaccel/pkg/core"
)

// Candidate is a proposed materialized view derived from recurring slow
// analytical queries. Candidates are meant to be created with
// Proposed=true, Enabled=false, pending review.
type Candidate struct {
	Name          string
	DefinitionSQL string
	Engine        core.EngineKind
	Hash          string
	Occurrences   int
}

// Detector scans observed workload for acceleration opportunities.
type Detector struct {
	obs            *observe.Observatory
	features       config.Features
	minOccurrences int
	logger         *slog.Logger
}

// New creates a Detector. If logger is nil, a discard logger is used.
func New(obs *observe.Observatory, features config.Features, cfg config.DetectorConfig, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	min := cfg.MinOccurrences
	if min <= 0 {
		min = 2
	}
	return &Detector{
		obs:            obs,
		features:       features,
		minOccurrences: min,
		logger:         logger,
	}
}

// Suggest returns candidates from the tenant's slow queries observed at or
// after since. It returns nothing unless the auto-detect toggle is enabled.
//
// A query becomes a candidate when it recurs at least the configured number
// of times inside the window and classifies as analytical. Deduplication is
// by normalized query hash.
func (d *Detector) Suggest(tenantID string, since time.Time) []Candidate {
	if !d.features.AutoDetect {
		return nil
	}

	samples := d.obs.SamplesSince(tenantID, since)
	if len(samples) == 0 {
		return nil
	}

	type bucket struct {
		sql   string
		count int
	}
	byHash := make(map[string]*bucket)
	for _, s := range samples {
		b, ok := byHash[s.Hash]
		if !ok {
			b = &bucket{sql: s.SQL}
			byHash[s.Hash] = b
		}
		b.count++
	}

	var out []Candidate
	for hash, b := range byHash {
		if b.count < d.minOccurrences {
			continue
		}
		if selector.Choose(b.sql, false) != core.EngineOLAP {
			continue
		}
		out = append(out, Candidate{
			Name:          "auto_" + shortHash(hash),
			DefinitionSQL: b.sql,
			Engine:        core.EngineOLAP,
			Hash:          hash,
			Occurrences:   b.count,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Occurrences != out[j].Occurrences {
			return out[i].Occurrences > out[j].Occurrences
		}
		return out[i].Hash < out[j].Hash
	})

	if len(out) > 0 {
		d.logger.Debug("workload candidates found",
			slog.String("tenant", tenantID), slog.Int("count", len(out)))
	}
	return out
}

// RecordSuggested increments the detector-activity counter.
func (d *Detector) RecordSuggested(n int) {
	d.obs.RecordSuggested(n)
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

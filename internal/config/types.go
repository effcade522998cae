// Package config provides the typed configuration of the acceleration layer:
// feature toggles, engine targets, scheduler and detector tuning. It is
// decoupled from CLI concerns so embedding callers can load it directly.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/leapstack-labs/leapaccel/pkg/adapter"
	"github.com/leapstack-labs/leapaccel/pkg/core"
)

// SchedulerConfig tunes the background refresh sweep.
type SchedulerConfig struct {
	// Interval between sweeps.
	Interval time.Duration `koanf:"interval"`

	// Timeout bounds every backend refresh call.
	Timeout time.Duration `koanf:"timeout"`

	// Parallelism bounds concurrent refreshes within one sweep.
	Parallelism int `koanf:"parallelism"`
}

// DetectorConfig tunes workload-based view proposals.
type DetectorConfig struct {
	// MinOccurrences is how often a slow query must recur inside the window
	// before it becomes a candidate.
	MinOccurrences int `koanf:"min_occurrences"`

	// Window is the default lookback when the caller does not supply one.
	Window time.Duration `koanf:"window"`
}

// ObservatoryConfig tunes slow-query sampling.
type ObservatoryConfig struct {
	// SlowQueryThreshold is the duration above which a query is sampled.
	SlowQueryThreshold time.Duration `koanf:"slow_query_threshold"`

	// SampleCapacity bounds the slow-query log.
	SampleCapacity int `koanf:"sample_capacity"`
}

// EnginesConfig holds the connection targets of both backends.
type EnginesConfig struct {
	OLTP core.AdapterConfig `koanf:"oltp"`
	OLAP core.AdapterConfig `koanf:"olap"`
}

// Config is the full configuration of the acceleration layer.
type Config struct {
	// CatalogPath is the SQLite file holding the view catalog.
	// ":memory:" keeps it in-process.
	CatalogPath string `koanf:"catalog_path"`

	Features    Features          `koanf:"features"`
	Scheduler   SchedulerConfig   `koanf:"scheduler"`
	Detector    DetectorConfig    `koanf:"detector"`
	Observatory ObservatoryConfig `koanf:"observatory"`
	Engines     EnginesConfig     `koanf:"engines"`

	Verbose bool `koanf:"verbose"`
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.CatalogPath == "" {
		return fmt.Errorf("catalog_path is required")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be positive")
	}
	if c.Scheduler.Timeout <= 0 {
		return fmt.Errorf("scheduler.timeout must be positive")
	}
	if err := validateEngine("engines.oltp", c.Engines.OLTP); err != nil {
		return err
	}
	if err := validateEngine("engines.olap", c.Engines.OLAP); err != nil {
		return err
	}
	return nil
}

// validateEngine checks a backend target against the adapter registry, the
// single source of truth for which engine types are available.
func validateEngine(key string, cfg core.AdapterConfig) error {
	if cfg.Type == "" {
		return fmt.Errorf("%s.type is required", key)
	}
	if !adapter.IsRegistered(strings.ToLower(cfg.Type)) {
		return fmt.Errorf("%s: %w", key, &adapter.UnknownAdapterError{
			Type:      cfg.Type,
			Available: adapter.List(),
		})
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/leapaccel/pkg/core"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "leapaccel.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "leapaccel.yml"

// envPrefix is the prefix for environment overrides. A double underscore
// separates nesting levels: LEAPACCEL_FEATURES__MV_ENABLED=true maps to
// features.mv_enabled.
const envPrefix = "LEAPACCEL_"

// Defaults applied before any file, env, or flag source.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"catalog_path":                     ".leapaccel/catalog.db",
		"verbose":                          false,
		"features.mv_enabled":              false,
		"features.rewrite_enabled":         false,
		"features.cross_engine_enabled":    false,
		"features.auto_refresh_enabled":    false,
		"features.auto_detect_enabled":     false,
		"scheduler.interval":               time.Minute,
		"scheduler.timeout":                30 * time.Second,
		"scheduler.parallelism":            4,
		"detector.min_occurrences":         2,
		"detector.window":                  time.Hour,
		"observatory.slow_query_threshold": 500 * time.Millisecond,
		"observatory.sample_capacity":      1024,
		"engines.oltp.type":                "postgres",
		"engines.olap.type":                "duckdb",
	}
}

// Load reads configuration with precedence (highest to lowest):
// flags > environment > config file > defaults.
// cfgFile may be empty; leapaccel.yaml / leapaccel.yml in the working
// directory are tried in that order. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// LEAPACCEL_SCHEDULER__INTERVAL -> scheduler.interval
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			// --catalog-path -> catalog_path
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	expandEngineEnvVars(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// findConfigFile finds the config file to use.
// Priority: explicit path > leapaccel.yaml > leapaccel.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// FindProjectRoot walks up from startDir to find a directory containing a
// leapaccel config file. Returns empty string if not found.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for {
		for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

var envVarRe = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns with environment variable values.
func expandEnvVars(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-1]
		if val := os.Getenv(name); val != "" {
			return val
		}
		return match
	})
}

// expandEngineEnvVars expands environment variables in sensitive target
// fields so credentials never need to live in the config file.
func expandEngineEnvVars(cfg *Config) {
	for _, target := range []*core.AdapterConfig{&cfg.Engines.OLTP, &cfg.Engines.OLAP} {
		target.Host = expandEnvVars(target.Host)
		target.Username = expandEnvVars(target.Username)
		target.Password = expandEnvVars(target.Password)
		target.Database = expandEnvVars(target.Database)
	}
}

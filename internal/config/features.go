package config

import "strconv"

// Features is the immutable toggle set gating the acceleration layer.
// Every component receives its copy at construction; there are no ambient
// global lookups, which keeps the gating logic directly testable.
//
// All toggles default to false.
type Features struct {
	// MVEnabled is the master switch for the whole layer.
	MVEnabled bool `koanf:"mv_enabled"`

	// RewriteEnabled gates query substitution through catalog entries.
	RewriteEnabled bool `koanf:"rewrite_enabled"`

	// CrossEngine allows serving and refreshing analytical views from the
	// transactional request path.
	CrossEngine bool `koanf:"cross_engine_enabled"`

	// AutoRefresh enables the periodic background refresh sweep.
	AutoRefresh bool `koanf:"auto_refresh_enabled"`

	// AutoDetect enables workload-based view proposals.
	AutoDetect bool `koanf:"auto_detect_enabled"`
}

// FeaturesFromStrings builds a Features value from string-encoded toggles
// ("true"/"false"), the form external callers and environment variables use.
// Missing keys and unparseable values are treated as false.
func FeaturesFromStrings(m map[string]string) Features {
	b := func(key string) bool {
		v, err := strconv.ParseBool(m[key])
		return err == nil && v
	}
	return Features{
		MVEnabled:      b("mv_enabled"),
		RewriteEnabled: b("rewrite_enabled"),
		CrossEngine:    b("cross_engine_enabled"),
		AutoRefresh:    b("auto_refresh_enabled"),
		AutoDetect:     b("auto_detect_enabled"),
	}
}

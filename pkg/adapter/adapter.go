// Package adapter provides the database adapter contract and a name-keyed
// registry of implementations. Concrete adapters live in pkg/adapters/
// subdirectories and register themselves in their init() functions.
package adapter

import (
	"github.com/leapstack-labs/leapaccel/pkg/core"
)

// Type aliases so callers can stay on this package without importing core
// for adapter plumbing.
type (
	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Rows is an alias for core.Rows.
	Rows = core.Rows
)

// Adapter is the interface all database adapters implement.
type Adapter = core.Adapter

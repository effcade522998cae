// Package core defines the shared types of the LeapAccel query-acceleration
// engine: engine kinds, the materialized-view record, adapter contracts, and
// the error taxonomy used across packages.
//
// Packages under internal/ depend on core; core depends on nothing but the
// standard library.
package core

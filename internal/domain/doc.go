// Package domain contains the core types of the stepper driver: the
// shared motor state, the GPIO level enum with the board's polarity
// convention, the full-step phase table, and the sentinel errors
// returned by the public API.
//
// The package has no dependencies on infrastructure; everything here
// is plain data and invariants.
package domain

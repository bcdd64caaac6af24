// Package nutrition computes daily calorie and macro targets from a body
// profile, reconciles a day's meals against those targets, and spreads a
// cheat meal's excess calories over the following days.
//
// Everything here is pure arithmetic on values: no I/O, no shared state.
// An Engine is immutable once built and may be shared across goroutines.
package nutrition

import "errors"

var (
	// ErrInvalidProfile is returned for out-of-range or unrecognized profile fields.
	ErrInvalidProfile = errors.New("invalid profile")
	// ErrUnsafeTarget is returned when a calorie target would fall below the safety floor.
	ErrUnsafeTarget = errors.New("unsafe calorie target")
	// ErrInvalidInput is returned for malformed meal data or call arguments.
	ErrInvalidInput = errors.New("invalid input")
	// ErrExcessTooLarge is returned when a banking window cannot absorb an excess under its daily cap.
	ErrExcessTooLarge = errors.New("excess too large to bank")
	// ErrInvalidConfig is returned by NewEngine for an inconsistent Config.
	ErrInvalidConfig = errors.New("invalid nutrition config")
)

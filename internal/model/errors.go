package model

import "github.com/rotisserie/eris"

// Error classes shared across the pipeline. Callers wrap them with eris and
// test with eris.Is.
var (
	// ErrNotFound marks a missing file, sheet or record. Anchors are not
	// reported this way; they use (Position, bool).
	ErrNotFound = eris.New("not found")

	// ErrValidation marks a broken cross-field invariant. It aborts a run
	// before any document mutation.
	ErrValidation = eris.New("validation failed")

	// ErrProvider marks a completion call that failed after all allowed
	// attempts.
	ErrProvider = eris.New("provider error")
)

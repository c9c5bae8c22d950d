package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	// ErrScoring marks an internal fault during candidate scoring. These
	// indicate a logic or data bug, are never retried, and propagate to
	// the caller with full context.
	ErrScoring = errors.New("scoring fault")
)

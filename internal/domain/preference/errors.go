package preference

import "errors"

// Sentinel kinds for preference errors.
var (
	// ErrInvalidFeedback marks feedback rejected at the boundary; the
	// profile is left unchanged.
	ErrInvalidFeedback = errors.New("invalid feedback")
)

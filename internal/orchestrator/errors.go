package orchestrator

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrEmptyWardrobe      = errors.New("wardrobe has no eligible items")
	ErrTimeout            = errors.New("planning run timed out")
	ErrScoring            = errors.New("candidate scoring failed")
	ErrContextUnavailable = errors.New("planning context unavailable")
	ErrInvalidFeedback    = errors.New("invalid feedback")
	ErrNoCandidates       = errors.New("no viable outfit candidates")
)

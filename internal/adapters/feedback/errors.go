package feedback

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrDuplicate   = errors.New("duplicate feedback event")
	ErrBacklogFull = errors.New("feedback backlog full")
)

package calendar

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrRead = errors.New("calendar read failed")
)

package weather

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNoAPIKey = errors.New("weather api key not configured")
	ErrFetch    = errors.New("weather fetch failed")
)

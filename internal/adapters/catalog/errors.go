package catalog

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidItem = errors.New("invalid wardrobe item")
	ErrStore       = errors.New("catalog store failed")
)

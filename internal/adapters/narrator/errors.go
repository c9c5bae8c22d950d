package narrator

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNoAPIKey = errors.New("narrator api key not configured")
	ErrNarrate  = errors.New("narration failed")
)

package dedup

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from
// callers.
var (
	ErrNotInitialized = errors.New("engine has no strategy; call Initialize first")
	ErrAlreadyRunning = errors.New("engine already running")
)

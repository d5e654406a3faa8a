package registry

import "errors"

// Sentinel kinds for registry lookups. Both are misconfiguration errors:
// fatal at initialization time, never during capture.
var (
	ErrBackendNotFound  = errors.New("capture backend not registered")
	ErrStrategyNotFound = errors.New("dedup strategy not registered")
)

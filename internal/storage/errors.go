package storage

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from
// callers.
var (
	ErrClosed       = errors.New("store is closed")
	ErrDuplicateSeq = errors.New("sequence number already persisted for session")
	ErrNotFound     = errors.New("slide not found")
)

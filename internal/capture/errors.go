package capture

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from
// callers.
var (
	// ErrBackendUnavailable means the backend cannot initialize. Fatal to
	// starting a session; recoverable by operator reconfiguration.
	ErrBackendUnavailable = errors.New("capture backend unavailable")

	// ErrNoMonitor means the requested monitor does not exist. Distinct
	// from a failed grab.
	ErrNoMonitor = errors.New("no such monitor")

	// ErrAlreadyRunning is returned by Start on a loop that is not idle.
	ErrAlreadyRunning = errors.New("capture loop already running")

	// ErrExhausted means a finite frame source has no frames left.
	ErrExhausted = errors.New("frame source exhausted")
)

// CaptureError is a transient single-tick capture failure. The loop logs
// it, publishes a capture-failed event and continues to the next tick.
type CaptureError struct {
	Backend   string
	MonitorID int
	Err       error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture failed on backend %q monitor %d: %v", e.Backend, e.MonitorID, e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

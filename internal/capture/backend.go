// Package capture provides the capture backend contract and the capture
// loop that drives frame acquisition at a fixed cadence.
package capture

import (
	"context"

	"github.com/snapdeck/snapdeck/internal/domain/model"
)

// Monitor describes one attachable display surface.
type Monitor struct {
	ID     int
	X      int
	Y      int
	Width  int
	Height int
}

// Config carries backend-specific settings.
type Config map[string]any

// Backend produces raw frames on demand. Implementations wrap a platform
// screen-grab API or a synthetic source; the pipeline only sees this
// contract.
type Backend interface {
	// Name returns the registry name of the backend.
	Name() string

	// Initialize prepares backend resources. Failure is fatal to starting
	// a session.
	Initialize(ctx context.Context, cfg Config) error

	// Monitors lists the capturable displays.
	Monitors(ctx context.Context) ([]Monitor, error)

	// Capture grabs one frame from the given monitor. Errors are typed:
	// ErrNoMonitor for an unknown monitor, *CaptureError for a failed grab.
	Capture(ctx context.Context, monitorID int) (*model.RawFrame, error)

	// Cleanup releases backend resources.
	Cleanup() error
}

package model

import (
	"image"
	"time"

	"github.com/google/uuid"
)

// RawFrame is one screen capture at a point in time. Ownership transfers
// from the capture backend to the capture loop, then to the deduplication
// engine; a unique frame is handed to storage, a duplicate is discarded.
type RawFrame struct {
	Image      image.Image
	CapturedAt time.Time
	MonitorID  int
	Width      int
	Height     int
	FrameID    uuid.UUID
	Metadata   map[string]string
}

// NewRawFrame wraps a decoded image as a frame, filling in dimensions,
// frame id and capture time.
func NewRawFrame(img image.Image, monitorID int) *RawFrame {
	f := &RawFrame{
		Image:      img,
		CapturedAt: time.Now(),
		MonitorID:  monitorID,
		FrameID:    uuid.New(),
		Metadata:   map[string]string{},
	}
	if img != nil {
		b := img.Bounds()
		f.Width = b.Dx()
		f.Height = b.Dy()
	}
	return f
}

// Valid reports whether the frame carries a usable pixel buffer. A nil or
// zero-area image must be rejected before any comparison.
func (f *RawFrame) Valid() bool {
	if f == nil || f.Image == nil {
		return false
	}
	b := f.Image.Bounds()
	return b.Dx() > 0 && b.Dy() > 0
}

// ComparisonResult is produced fresh per comparison. It is never persisted;
// it only decides routing and feeds statistics. Scores are meaningful within
// a single strategy (1.0 = identical) but not comparable across strategies.
type ComparisonResult struct {
	IsDuplicate     bool
	SimilarityScore float64
	StrategyName    string
	Elapsed         time.Duration
}

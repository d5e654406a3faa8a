package capture

import (
	"context"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/snapdeck/snapdeck/internal/domain/model"
)

const (
	syntheticWidth  = 800
	syntheticHeight = 600
)

// Synthetic generates frames in memory. It backs tests and demo runs:
// the frame sequence and per-call failures are scriptable, and with no
// script it produces a deterministic pattern that changes every call.
type Synthetic struct {
	mu       sync.Mutex
	frames   []image.Image
	repeat   bool
	failAt   map[int]error
	delay    time.Duration
	calls    int
	width    int
	height   int
	monitors []Monitor
}

// SyntheticOption configures a Synthetic backend.
type SyntheticOption func(*Synthetic)

// WithFrameSequence scripts the frames returned by successive Capture
// calls. After the sequence is exhausted the last frame repeats.
func WithFrameSequence(frames ...image.Image) SyntheticOption {
	return func(s *Synthetic) {
		s.frames = frames
		s.repeat = true
	}
}

// WithFiniteSequence scripts the frames and makes the source finite:
// Capture returns ErrExhausted once the sequence ends.
func WithFiniteSequence(frames ...image.Image) SyntheticOption {
	return func(s *Synthetic) {
		s.frames = frames
		s.repeat = false
	}
}

// WithFailureAt injects a capture error on the n-th Capture call
// (1-based).
func WithFailureAt(call int, err error) SyntheticOption {
	return func(s *Synthetic) {
		s.failAt[call] = err
	}
}

// WithCaptureDelay makes every Capture call block for d before returning.
func WithCaptureDelay(d time.Duration) SyntheticOption {
	return func(s *Synthetic) {
		s.delay = d
	}
}

// NewSynthetic creates a synthetic backend.
func NewSynthetic(opts ...SyntheticOption) *Synthetic {
	s := &Synthetic{
		failAt: map[int]error{},
		width:  syntheticWidth,
		height: syntheticHeight,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the registry name of the backend.
func (s *Synthetic) Name() string { return "synthetic" }

// Initialize reads optional width/height from the config map.
func (s *Synthetic) Initialize(_ context.Context, cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := intFromConfig(cfg, "width"); ok && w > 0 {
		s.width = w
	}
	if h, ok := intFromConfig(cfg, "height"); ok && h > 0 {
		s.height = h
	}
	s.monitors = []Monitor{{ID: 1, Width: s.width, Height: s.height}}
	s.calls = 0
	return nil
}

// Monitors lists the single synthetic display.
func (s *Synthetic) Monitors(_ context.Context) ([]Monitor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.monitors == nil {
		s.monitors = []Monitor{{ID: 1, Width: s.width, Height: s.height}}
	}
	out := make([]Monitor, len(s.monitors))
	copy(out, s.monitors)
	return out, nil
}

// Capture returns the next scripted frame, or a generated pattern when no
// sequence was scripted.
func (s *Synthetic) Capture(ctx context.Context, monitorID int) (*model.RawFrame, error) {
	s.mu.Lock()
	if monitorID != 1 {
		s.mu.Unlock()
		return nil, ErrNoMonitor
	}
	s.calls++
	call := s.calls
	delay := s.delay
	var img image.Image
	var failErr error
	if err, ok := s.failAt[call]; ok {
		failErr = err
	} else if len(s.frames) > 0 {
		idx := call - 1
		if idx >= len(s.frames) {
			if !s.repeat {
				s.mu.Unlock()
				return nil, &CaptureError{Backend: s.Name(), MonitorID: monitorID, Err: ErrExhausted}
			}
			idx = len(s.frames) - 1
		}
		img = s.frames[idx]
	} else {
		img = s.generate(call)
	}
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, &CaptureError{Backend: s.Name(), MonitorID: monitorID, Err: ctx.Err()}
		}
	}
	if failErr != nil {
		return nil, &CaptureError{Backend: s.Name(), MonitorID: monitorID, Err: failErr}
	}

	frame := model.NewRawFrame(img, monitorID)
	frame.Metadata["backend"] = s.Name()
	return frame, nil
}

// Cleanup releases nothing; the synthetic backend holds no resources.
func (s *Synthetic) Cleanup() error { return nil }

// Calls returns the number of Capture invocations so far.
func (s *Synthetic) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// generate produces a solid fill whose color varies with the call index,
// so consecutive default frames are never identical.
func (s *Synthetic) generate(call int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	c := color.RGBA{R: uint8(call * 37), G: uint8(call * 59), B: uint8(call * 83), A: 255}
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

func intFromConfig(cfg Config, key string) (int, bool) {
	switch v := cfg[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

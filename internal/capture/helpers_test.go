package capture_test

import (
	"context"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/snapdeck/snapdeck/internal/domain/model"
	"github.com/snapdeck/snapdeck/internal/eventbus"
	"github.com/snapdeck/snapdeck/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// waitFor polls cond until it holds or the timeout elapses.
func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

// recorder collects published events per kind for assertions.
type recorder struct {
	mu     sync.Mutex
	events []model.Event
}

func (r *recorder) subscribe(bus *eventbus.Bus, kinds ...model.Kind) {
	for _, kind := range kinds {
		bus.Subscribe(kind, r.handle)
	}
}

func (r *recorder) handle(_ context.Context, e model.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) count(kind model.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func (r *recorder) ofKind(kind model.Kind) []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Event
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

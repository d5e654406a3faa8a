package capture

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/snapdeck/snapdeck/internal/domain/model"
)

// Directory plays back image files from a directory in lexical order,
// simulating a presentation without a live screen. Useful for replaying
// recorded decks and for end-to-end runs on headless machines.
type Directory struct {
	mu    sync.Mutex
	path  string
	loop  bool
	files []string
	next  int
}

// NewDirectory creates a directory playback backend. Path and loop mode
// come from the capture config at Initialize time.
func NewDirectory() *Directory {
	return &Directory{}
}

// Name returns the registry name of the backend.
func (d *Directory) Name() string { return "directory" }

// Initialize scans the configured directory for PNG and JPEG files.
func (d *Directory) Initialize(_ context.Context, cfg Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	path, _ := cfg["path"].(string)
	if path == "" {
		return fmt.Errorf("%w: directory backend requires a path", ErrBackendUnavailable)
	}
	if loop, ok := cfg["loop"].(bool); ok {
		d.loop = loop
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	var files []string
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(ent.Name())) {
		case ".png", ".jpg", ".jpeg":
			files = append(files, filepath.Join(path, ent.Name()))
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no image files in %s", ErrBackendUnavailable, path)
	}
	sort.Strings(files)

	d.path = path
	d.files = files
	d.next = 0
	return nil
}

// Monitors reports a single virtual display sized like the first image.
func (d *Directory) Monitors(_ context.Context) ([]Monitor, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.files) == 0 {
		return nil, ErrNoMonitor
	}
	img, _, err := decodeFile(d.files[0])
	if err != nil {
		return nil, &CaptureError{Backend: d.Name(), MonitorID: 1, Err: err}
	}
	b := img.Bounds()
	return []Monitor{{ID: 1, Width: b.Dx(), Height: b.Dy()}}, nil
}

// Capture decodes the next file in order. When the directory is exhausted
// it either wraps around (loop mode) or fails with ErrExhausted.
func (d *Directory) Capture(_ context.Context, monitorID int) (*model.RawFrame, error) {
	d.mu.Lock()
	if monitorID != 1 {
		d.mu.Unlock()
		return nil, ErrNoMonitor
	}
	if d.next >= len(d.files) {
		if !d.loop {
			d.mu.Unlock()
			return nil, &CaptureError{Backend: d.Name(), MonitorID: monitorID, Err: ErrExhausted}
		}
		d.next = 0
	}
	file := d.files[d.next]
	d.next++
	d.mu.Unlock()

	img, format, err := decodeFile(file)
	if err != nil {
		return nil, &CaptureError{Backend: d.Name(), MonitorID: monitorID, Err: err}
	}
	frame := model.NewRawFrame(img, monitorID)
	frame.Metadata["backend"] = d.Name()
	frame.Metadata["file"] = filepath.Base(file)
	frame.Metadata["format"] = format
	return frame, nil
}

// Cleanup releases nothing; files are opened per capture.
func (d *Directory) Cleanup() error { return nil }

func decodeFile(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	return image.Decode(f)
}

// Package storage persists unique frames as slides: image bytes in a
// filesystem store, metadata rows in SQLite. It implements the contract
// the pipeline requires of a storage coordinator.
package storage

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FileStore writes slide images under root/<session-id>/slide-NNNN.png.
// Writes go to a temp file first and are renamed into place, so a partial
// write never appears as a slide.
type FileStore struct {
	root string
}

// NewFileStore creates the store, making the root directory if needed.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create slide root: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Write encodes the image as PNG and returns the final path.
func (fs *FileStore) Write(sessionID uuid.UUID, seq int64, img image.Image) (string, error) {
	dir := filepath.Join(fs.root, sessionID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}

	final := filepath.Join(dir, fmt.Sprintf("slide-%04d.png", seq))
	tmp, err := os.CreateTemp(dir, "slide-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp slide: %w", err)
	}
	tmpName := tmp.Name()

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("encode slide: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close temp slide: %w", err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("publish slide: %w", err)
	}
	return final, nil
}

// Root returns the store root directory.
func (fs *FileStore) Root() string { return fs.root }

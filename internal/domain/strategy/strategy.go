// Package strategy implements the interchangeable duplicate-detection
// algorithms used by the deduplication engine. Scores are meaningful
// within one strategy (1.0 = identical) but never comparable across
// strategies.
package strategy

import (
	"image"
	"image/draw"

	"github.com/snapdeck/snapdeck/internal/domain/model"
)

// Config carries strategy-specific settings.
type Config map[string]any

// Strategy compares a captured frame against the last retained frame and
// classifies it as duplicate or unique.
type Strategy interface {
	// Name returns the registry name of the strategy.
	Name() string

	// Configure validates and applies strategy settings. A misconfigured
	// strategy must fail here, before any capture begins.
	Configure(cfg Config) error

	// Compare produces a fresh ComparisonResult for current against
	// previous. Both frames are guaranteed valid by the engine.
	Compare(current, previous *model.RawFrame) (model.ComparisonResult, error)
}

// rgbaPixels normalizes an image to a tightly packed RGBA buffer so that
// logically identical frames hash identically regardless of their source
// representation or stride.
func rgbaPixels(img image.Image) []byte {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba.Pix
}

func floatFromConfig(cfg Config, key string, def float64) (float64, bool) {
	v, ok := cfg[key]
	if !ok {
		return def, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return def, false
	}
}

func intFromConfig(cfg Config, key string, def int) (int, bool) {
	v, ok := cfg[key]
	if !ok {
		return def, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return def, false
	}
}

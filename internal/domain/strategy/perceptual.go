package strategy

import (
	"fmt"
	"image"
	"math"
	"math/bits"
	"sort"
	"time"

	"github.com/snapdeck/snapdeck/internal/domain/model"
)

// PerceptualName is the registry name of the perceptual strategy.
const PerceptualName = "perceptual"

const (
	defaultThreshold = 0.95
	defaultHashSize  = 8

	// The sample grid is 4x the hash size per axis, so the DCT keeps a
	// genuine low-frequency block.
	sampleFactor = 4
)

// Perceptual detects duplicates through a fixed-length visual fingerprint:
// the frame is downsampled to grayscale, transformed with a 2D DCT, and
// the low-frequency block is thresholded at its median into a bit vector.
// Similarity is 1 - hamming/bits. Tolerant of cursor movement, minor
// animation and partial redraws.
type Perceptual struct {
	threshold float64
	hashSize  int
}

// NewPerceptual creates a perceptual strategy with the default threshold
// and hash size.
func NewPerceptual() *Perceptual {
	return &Perceptual{
		threshold: defaultThreshold,
		hashSize:  defaultHashSize,
	}
}

// Name returns the registry name of the strategy.
func (p *Perceptual) Name() string { return PerceptualName }

// Configure applies threshold and hash size settings. The threshold is the
// operator's 0-100% tolerance control mapped to (0, 1]; the hash size is
// restricted to 8 (64 bits) or 16 (256 bits).
func (p *Perceptual) Configure(cfg Config) error {
	if t, set := floatFromConfig(cfg, "threshold", p.threshold); set {
		if t <= 0 || t > 1 {
			return fmt.Errorf("%w: got %v", ErrInvalidThreshold, t)
		}
		p.threshold = t
	}
	if hs, set := intFromConfig(cfg, "hash_size", p.hashSize); set {
		if hs != 8 && hs != 16 {
			return fmt.Errorf("%w: got %d", ErrInvalidHashSize, hs)
		}
		p.hashSize = hs
	}
	return nil
}

// Threshold returns the configured duplicate threshold.
func (p *Perceptual) Threshold() float64 { return p.threshold }

// Compare fingerprints both frames and classifies by normalized Hamming
// similarity against the threshold.
func (p *Perceptual) Compare(current, previous *model.RawFrame) (model.ComparisonResult, error) {
	if current == nil || previous == nil {
		return model.ComparisonResult{}, ErrNilFrame
	}
	start := time.Now()

	cur := p.fingerprint(current.Image)
	prev := p.fingerprint(previous.Image)

	totalBits := p.hashSize * p.hashSize
	distance := hamming(cur, prev)
	score := 1.0 - float64(distance)/float64(totalBits)

	return model.ComparisonResult{
		IsDuplicate:     score >= p.threshold,
		SimilarityScore: score,
		StrategyName:    p.Name(),
		Elapsed:         time.Since(start),
	}, nil
}

// fingerprint computes the DCT bit vector for one image.
func (p *Perceptual) fingerprint(img image.Image) []uint64 {
	n := p.hashSize * sampleFactor
	gray := downsampleGray(img, n)
	coeffs := dct2d(gray, n)

	// Low-frequency block, top-left of the coefficient matrix. The DC
	// term is excluded from the median so flat images do not bias it.
	block := make([]float64, 0, p.hashSize*p.hashSize)
	for y := 0; y < p.hashSize; y++ {
		for x := 0; x < p.hashSize; x++ {
			block = append(block, coeffs[y*n+x])
		}
	}
	med := median(block[1:])

	words := make([]uint64, (len(block)+63)/64)
	for i, c := range block {
		if c > med {
			words[i/64] |= 1 << uint(i%64)
		}
	}
	return words
}

// downsampleGray shrinks the image to an n by n grayscale grid with box
// averaging, so single-pixel changes wash out before the transform.
func downsampleGray(img image.Image, n int) []float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]float64, n*n)

	for ty := 0; ty < n; ty++ {
		y0 := b.Min.Y + ty*h/n
		y1 := b.Min.Y + (ty+1)*h/n
		if y1 <= y0 {
			y1 = y0 + 1
		}
		for tx := 0; tx < n; tx++ {
			x0 := b.Min.X + tx*w/n
			x1 := b.Min.X + (tx+1)*w/n
			if x1 <= x0 {
				x1 = x0 + 1
			}
			var sum float64
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					r, g, bl, _ := img.At(x, y).RGBA()
					// ITU-R BT.601 luminance over 16-bit channels.
					sum += 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(bl)
				}
			}
			out[ty*n+tx] = sum / float64((y1-y0)*(x1-x0)) / 257.0
		}
	}
	return out
}

// dct2d applies a separable DCT-II over an n by n grid.
func dct2d(grid []float64, n int) []float64 {
	cosines := make([]float64, n*n)
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			cosines[k*n+i] = math.Cos(math.Pi * float64(k) * (2*float64(i) + 1) / (2 * float64(n)))
		}
	}

	rows := make([]float64, n*n)
	for y := 0; y < n; y++ {
		for k := 0; k < n; k++ {
			var sum float64
			for x := 0; x < n; x++ {
				sum += grid[y*n+x] * cosines[k*n+x]
			}
			rows[y*n+k] = sum
		}
	}

	out := make([]float64, n*n)
	for x := 0; x < n; x++ {
		for k := 0; k < n; k++ {
			var sum float64
			for y := 0; y < n; y++ {
				sum += rows[y*n+x] * cosines[k*n+y]
			}
			out[k*n+x] = sum
		}
	}
	return out
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func hamming(a, b []uint64) int {
	var d int
	for i := range a {
		d += bits.OnesCount64(a[i] ^ b[i])
	}
	return d
}

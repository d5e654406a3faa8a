package strategy

import (
	"bytes"
	"crypto/md5"  //nolint:gosec // digest selects a frame fingerprint, not a security boundary
	"crypto/sha1" //nolint:gosec // digest selects a frame fingerprint, not a security boundary
	"crypto/sha256"
	"fmt"
	"hash"
	"time"

	"github.com/snapdeck/snapdeck/internal/domain/model"
)

// ExactName is the registry name of the exact strategy. The original
// deployment registered it as "hash"; both names resolve to it.
const ExactName = "exact"

const defaultAlgorithm = "sha256"

// Exact detects duplicates by content-hash equality over the raw pixels.
// The score is binary: 1.0 on a digest match, 0.0 otherwise. O(pixels)
// per call, no tolerance for any change.
type Exact struct {
	algorithm string
}

// NewExact creates an exact strategy with the default digest.
func NewExact() *Exact {
	return &Exact{algorithm: defaultAlgorithm}
}

// Name returns the registry name of the strategy.
func (e *Exact) Name() string { return ExactName }

// Configure selects the digest algorithm: md5, sha1 or sha256.
func (e *Exact) Configure(cfg Config) error {
	alg, set := cfg["hash_algorithm"].(string)
	if !set {
		return nil
	}
	switch alg {
	case "md5", "sha1", "sha256":
		e.algorithm = alg
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAlgorithm, alg)
	}
}

// Compare hashes both frames' normalized pixels and reports equality.
func (e *Exact) Compare(current, previous *model.RawFrame) (model.ComparisonResult, error) {
	if current == nil || previous == nil {
		return model.ComparisonResult{}, ErrNilFrame
	}
	start := time.Now()

	cur := e.digest(current)
	prev := e.digest(previous)
	dup := bytes.Equal(cur, prev)

	score := 0.0
	if dup {
		score = 1.0
	}
	return model.ComparisonResult{
		IsDuplicate:     dup,
		SimilarityScore: score,
		StrategyName:    e.Name(),
		Elapsed:         time.Since(start),
	}, nil
}

func (e *Exact) digest(f *model.RawFrame) []byte {
	h := e.newHash()
	h.Write(rgbaPixels(f.Image))
	return h.Sum(nil)
}

func (e *Exact) newHash() hash.Hash {
	switch e.algorithm {
	case "md5":
		return md5.New() //nolint:gosec // frame fingerprint only
	case "sha1":
		return sha1.New() //nolint:gosec // frame fingerprint only
	default:
		return sha256.New()
	}
}

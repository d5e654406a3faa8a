package strategy

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from
// callers.
var (
	ErrInvalidThreshold = errors.New("similarity threshold must be in (0, 1]")
	ErrInvalidHashSize  = errors.New("perceptual hash size must be 8 or 16")
	ErrUnknownAlgorithm = errors.New("unknown hash algorithm")
	ErrUnknownStage     = errors.New("unknown hybrid stage")
	ErrInvalidStages    = errors.New("hybrid stages must run exact before perceptual")
	ErrNilFrame         = errors.New("comparison requires two frames")
)

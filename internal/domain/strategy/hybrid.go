package strategy

import (
	"fmt"
	"time"

	"github.com/snapdeck/snapdeck/internal/domain/model"
)

// HybridName is the registry name of the hybrid strategy.
const HybridName = "hybrid"

// Hybrid runs the exact strategy first and falls through to the
// perceptual strategy only when exact reports non-duplicate. The ordering
// is fixed: exact is cheap and catches the common "nothing changed" case
// without the cost of the perceptual transform.
type Hybrid struct {
	fast Strategy
	slow Strategy
}

// NewHybrid creates a hybrid strategy over fresh exact and perceptual
// stages.
func NewHybrid() *Hybrid {
	return &Hybrid{fast: NewExact(), slow: NewPerceptual()}
}

// NewHybridStages builds a hybrid over explicit stage implementations.
// The first stage must be the cheap exact check.
func NewHybridStages(fast, slow Strategy) *Hybrid {
	return &Hybrid{fast: fast, slow: slow}
}

// Name returns the registry name of the strategy.
func (h *Hybrid) Name() string { return HybridName }

// Configure validates the optional stage list and forwards the remaining
// settings to both stages. Only the exact-then-perceptual ordering is
// accepted; "hash" is an alias for "exact".
func (h *Hybrid) Configure(cfg Config) error {
	if raw, set := cfg["stages"]; set {
		stages, err := normalizeStages(raw)
		if err != nil {
			return err
		}
		if len(stages) != 2 || stages[0] != ExactName || stages[1] != PerceptualName {
			return fmt.Errorf("%w: got %v", ErrInvalidStages, stages)
		}
	}
	if err := h.fast.Configure(cfg); err != nil {
		return err
	}
	return h.slow.Configure(cfg)
}

// Compare short-circuits on an exact match; otherwise the perceptual
// stage decides.
func (h *Hybrid) Compare(current, previous *model.RawFrame) (model.ComparisonResult, error) {
	start := time.Now()

	res, err := h.fast.Compare(current, previous)
	if err != nil {
		return model.ComparisonResult{}, err
	}
	if !res.IsDuplicate {
		res, err = h.slow.Compare(current, previous)
		if err != nil {
			return model.ComparisonResult{}, err
		}
	}

	res.StrategyName = h.Name()
	res.Elapsed = time.Since(start)
	return res, nil
}

func normalizeStages(raw any) ([]string, error) {
	var items []any
	switch v := raw.(type) {
	case []string:
		for _, s := range v {
			items = append(items, s)
		}
	case []any:
		items = v
	default:
		return nil, fmt.Errorf("%w: stages must be a list", ErrUnknownStage)
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %v", ErrUnknownStage, item)
		}
		switch s {
		case ExactName, "hash":
			out = append(out, ExactName)
		case PerceptualName:
			out = append(out, PerceptualName)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownStage, s)
		}
	}
	return out, nil
}

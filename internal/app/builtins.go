package app

import (
	"github.com/snapdeck/snapdeck/internal/capture"
	"github.com/snapdeck/snapdeck/internal/domain/strategy"
	"github.com/snapdeck/snapdeck/internal/registry"
)

// RegisterBuiltins performs the explicit startup registration step: every
// backend and strategy shipped with the pipeline gets a name here, once,
// before the pipeline starts. "hash" is kept as an alias of "exact" for
// configs written against the original naming.
func RegisterBuiltins(reg *registry.Registry) {
	reg.RegisterBackend("synthetic", func() capture.Backend { return capture.NewSynthetic() })
	reg.RegisterBackend("directory", func() capture.Backend { return capture.NewDirectory() })

	reg.RegisterStrategy(strategy.ExactName, func() strategy.Strategy { return strategy.NewExact() })
	reg.RegisterStrategy("hash", func() strategy.Strategy { return strategy.NewExact() })
	reg.RegisterStrategy(strategy.PerceptualName, func() strategy.Strategy { return strategy.NewPerceptual() })
	reg.RegisterStrategy(strategy.HybridName, func() strategy.Strategy { return strategy.NewHybrid() })
}

package registry_test

import (
	"errors"
	"testing"

	"github.com/snapdeck/snapdeck/internal/capture"
	"github.com/snapdeck/snapdeck/internal/domain/model"
	"github.com/snapdeck/snapdeck/internal/domain/strategy"
	"github.com/snapdeck/snapdeck/internal/registry"
	. "github.com/smartystreets/goconvey/convey"
)

type stubStrategy struct {
	name string
}

func (s *stubStrategy) Name() string                  { return s.name }
func (s *stubStrategy) Configure(strategy.Config) error { return nil }
func (s *stubStrategy) Compare(_, _ *model.RawFrame) (model.ComparisonResult, error) {
	return model.ComparisonResult{StrategyName: s.name}, nil
}

func TestRegistryBackends(t *testing.T) {
	Convey("Given an empty registry", t, func() {
		reg := registry.New()

		Convey("When looking up an unregistered backend", func() {
			_, err := reg.Backend("missing")

			Convey("Then it reports ErrBackendNotFound", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, registry.ErrBackendNotFound), ShouldBeTrue)
			})
		})

		Convey("When backends are registered", func() {
			reg.RegisterBackend("synthetic", func() capture.Backend { return capture.NewSynthetic() })
			reg.RegisterBackend("directory", func() capture.Backend { return capture.NewDirectory() })

			Convey("Then lookups return a working factory", func() {
				factory, err := reg.Backend("synthetic")
				So(err, ShouldBeNil)
				backend := factory()
				So(backend, ShouldNotBeNil)
				So(backend.Name(), ShouldEqual, "synthetic")
			})

			Convey("And the listing preserves registration order", func() {
				So(reg.ListBackends(), ShouldResemble, []string{"synthetic", "directory"})
			})
		})
	})
}

func TestRegistryStrategies(t *testing.T) {
	Convey("Given an empty registry", t, func() {
		reg := registry.New()

		Convey("When looking up an unregistered strategy", func() {
			_, err := reg.Strategy("nonexistent")

			Convey("Then it reports ErrStrategyNotFound", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, registry.ErrStrategyNotFound), ShouldBeTrue)
				So(errors.Is(err, registry.ErrBackendNotFound), ShouldBeFalse)
			})
		})

		Convey("When strategies are registered", func() {
			reg.RegisterStrategy("exact", func() strategy.Strategy { return strategy.NewExact() })
			reg.RegisterStrategy("perceptual", func() strategy.Strategy { return strategy.NewPerceptual() })

			Convey("Then lookups return a working factory", func() {
				factory, err := reg.Strategy("exact")
				So(err, ShouldBeNil)
				So(factory().Name(), ShouldEqual, strategy.ExactName)
			})

			Convey("And the listing preserves registration order", func() {
				So(reg.ListStrategies(), ShouldResemble, []string{"exact", "perceptual"})
			})
		})
	})
}

func TestRegistryReRegistration(t *testing.T) {
	Convey("Given a registry with a strategy registered under a name", t, func() {
		reg := registry.New()
		reg.RegisterStrategy("custom", func() strategy.Strategy { return &stubStrategy{name: "original"} })
		reg.RegisterStrategy("other", func() strategy.Strategy { return &stubStrategy{name: "other"} })

		Convey("When the name is registered again", func() {
			reg.RegisterStrategy("custom", func() strategy.Strategy { return &stubStrategy{name: "replacement"} })

			Convey("Then the last registration wins", func() {
				factory, err := reg.Strategy("custom")
				So(err, ShouldBeNil)
				So(factory().Name(), ShouldEqual, "replacement")
			})

			Convey("And the name keeps its original listing position", func() {
				So(reg.ListStrategies(), ShouldResemble, []string{"custom", "other"})
			})
		})
	})
}

func TestRegistryReset(t *testing.T) {
	Convey("Given a populated registry", t, func() {
		reg := registry.New()
		reg.RegisterBackend("synthetic", func() capture.Backend { return capture.NewSynthetic() })
		reg.RegisterStrategy("exact", func() strategy.Strategy { return strategy.NewExact() })

		Convey("When it is reset", func() {
			reg.Reset()

			Convey("Then all registrations are gone", func() {
				So(reg.ListBackends(), ShouldBeEmpty)
				So(reg.ListStrategies(), ShouldBeEmpty)
				_, err := reg.Backend("synthetic")
				So(errors.Is(err, registry.ErrBackendNotFound), ShouldBeTrue)
			})
		})
	})
}

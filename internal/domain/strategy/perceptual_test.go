package strategy_test

import (
	"errors"
	"fmt"
	"image/color"
	"testing"

	"github.com/snapdeck/snapdeck/internal/domain/strategy"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPerceptualCompare(t *testing.T) {
	Convey("Given a perceptual strategy with defaults", t, func() {
		s := strategy.NewPerceptual()
		base := gradient(320, 240)

		Convey("When comparing identical frames", func() {
			res, err := s.Compare(frameOf(clone(base)), frameOf(clone(base)))

			Convey("Then the score is exactly 1 and they are duplicates", func() {
				So(err, ShouldBeNil)
				So(res.SimilarityScore, ShouldEqual, 1.0)
				So(res.IsDuplicate, ShouldBeTrue)
				So(res.StrategyName, ShouldEqual, strategy.PerceptualName)
			})
		})

		Convey("When comparing a frame against a small change and against its inverse", func() {
			small := clone(base)
			// A cursor-sized blotch; box averaging should mostly wash it out.
			for y := 100; y < 110; y++ {
				for x := 100; x < 110; x++ {
					small.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
				}
			}
			inverted := invert(base)

			smallRes, err := s.Compare(frameOf(base), frameOf(small))
			So(err, ShouldBeNil)
			invRes, err := s.Compare(frameOf(base), frameOf(inverted))
			So(err, ShouldBeNil)

			Convey("Then the small change scores higher than the inversion", func() {
				So(smallRes.SimilarityScore, ShouldBeGreaterThan, invRes.SimilarityScore)
			})

			Convey("And the inversion is nowhere near identical", func() {
				So(invRes.SimilarityScore, ShouldBeLessThan, 1.0)
				So(invRes.IsDuplicate, ShouldBeFalse)
			})
		})

		Convey("When a frame is nil", func() {
			_, err := s.Compare(nil, frameOf(base))

			Convey("Then it reports ErrNilFrame", func() {
				So(errors.Is(err, strategy.ErrNilFrame), ShouldBeTrue)
			})
		})
	})
}

func TestPerceptualConfigure(t *testing.T) {
	Convey("Given a perceptual strategy", t, func() {
		Convey("When configured with a valid threshold and hash size", func() {
			s := strategy.NewPerceptual()
			err := s.Configure(strategy.Config{"threshold": 0.8, "hash_size": 16})

			Convey("Then the settings apply", func() {
				So(err, ShouldBeNil)
				So(s.Threshold(), ShouldEqual, 0.8)
			})
		})

		Convey("When the threshold is out of range", func() {
			for _, bad := range []float64{0, -0.5, 1.5} {
				s := strategy.NewPerceptual()
				err := s.Configure(strategy.Config{"threshold": bad})
				So(errors.Is(err, strategy.ErrInvalidThreshold), ShouldBeTrue)
			}
		})

		Convey("When the hash size is unsupported", func() {
			for _, bad := range []int{0, 4, 12, 32} {
				s := strategy.NewPerceptual()
				err := s.Configure(strategy.Config{"hash_size": bad})
				So(errors.Is(err, strategy.ErrInvalidHashSize), ShouldBeTrue)
			}
		})

		Convey("When the config is empty", func() {
			s := strategy.NewPerceptual()

			Convey("Then the defaults survive", func() {
				So(s.Configure(strategy.Config{}), ShouldBeNil)
				So(s.Threshold(), ShouldEqual, 0.95)
			})
		})
	})
}

func TestPerceptualHashSizes(t *testing.T) {
	Convey("Given both supported hash sizes", t, func() {
		base := gradient(160, 120)

		for _, hs := range []int{8, 16} {
			s := strategy.NewPerceptual()
			So(s.Configure(strategy.Config{"hash_size": hs}), ShouldBeNil)

			Convey(fmt.Sprintf("Then identical frames still score 1 at size %d", hs), func() {
				res, err := s.Compare(frameOf(clone(base)), frameOf(clone(base)))
				So(err, ShouldBeNil)
				So(res.SimilarityScore, ShouldEqual, 1.0)
			})
		}
	})
}

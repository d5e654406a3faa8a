package strategy_test

import (
	"errors"
	"image/color"
	"sync/atomic"
	"testing"

	"github.com/snapdeck/snapdeck/internal/domain/model"
	"github.com/snapdeck/snapdeck/internal/domain/strategy"
	. "github.com/smartystreets/goconvey/convey"
)

// countingStage wraps a fixed comparison result and counts invocations, so
// the short-circuit behavior is observable.
type countingStage struct {
	name   string
	result model.ComparisonResult
	err    error
	calls  atomic.Int64
}

func (c *countingStage) Name() string                    { return c.name }
func (c *countingStage) Configure(strategy.Config) error { return nil }
func (c *countingStage) Compare(_, _ *model.RawFrame) (model.ComparisonResult, error) {
	c.calls.Add(1)
	return c.result, c.err
}

func TestHybridShortCircuit(t *testing.T) {
	Convey("Given a hybrid strategy over counting stages", t, func() {
		cur, prev := frameOf(gradient(32, 32)), frameOf(gradient(32, 32))

		Convey("When the exact stage reports a duplicate", func() {
			fast := &countingStage{name: "exact", result: model.ComparisonResult{IsDuplicate: true, SimilarityScore: 1.0}}
			slow := &countingStage{name: "perceptual"}
			h := strategy.NewHybridStages(fast, slow)

			res, err := h.Compare(cur, prev)

			Convey("Then the perceptual stage never runs", func() {
				So(err, ShouldBeNil)
				So(res.IsDuplicate, ShouldBeTrue)
				So(fast.calls.Load(), ShouldEqual, 1)
				So(slow.calls.Load(), ShouldEqual, 0)
			})

			Convey("And the result is attributed to the hybrid", func() {
				So(res.StrategyName, ShouldEqual, strategy.HybridName)
			})
		})

		Convey("When the exact stage misses", func() {
			fast := &countingStage{name: "exact", result: model.ComparisonResult{IsDuplicate: false}}
			slow := &countingStage{name: "perceptual", result: model.ComparisonResult{IsDuplicate: true, SimilarityScore: 0.97}}
			h := strategy.NewHybridStages(fast, slow)

			res, err := h.Compare(cur, prev)

			Convey("Then the perceptual stage decides", func() {
				So(err, ShouldBeNil)
				So(res.IsDuplicate, ShouldBeTrue)
				So(res.SimilarityScore, ShouldEqual, 0.97)
				So(fast.calls.Load(), ShouldEqual, 1)
				So(slow.calls.Load(), ShouldEqual, 1)
			})
		})

		Convey("When a stage fails", func() {
			fast := &countingStage{name: "exact", err: errors.New("stage broken")}
			slow := &countingStage{name: "perceptual"}
			h := strategy.NewHybridStages(fast, slow)

			_, err := h.Compare(cur, prev)

			Convey("Then the error surfaces and the next stage never runs", func() {
				So(err, ShouldNotBeNil)
				So(slow.calls.Load(), ShouldEqual, 0)
			})
		})
	})
}

func TestHybridRealStages(t *testing.T) {
	Convey("Given a hybrid over real exact and perceptual stages", t, func() {
		h := strategy.NewHybrid()
		base := gradient(320, 240)

		Convey("When frames are byte-identical", func() {
			res, err := h.Compare(frameOf(clone(base)), frameOf(clone(base)))

			Convey("Then the exact stage already settles it", func() {
				So(err, ShouldBeNil)
				So(res.IsDuplicate, ShouldBeTrue)
				So(res.SimilarityScore, ShouldEqual, 1.0)
			})
		})

		Convey("When frames differ only by a cursor-sized blotch", func() {
			small := clone(base)
			for y := 50; y < 58; y++ {
				for x := 50; x < 58; x++ {
					small.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
				}
			}
			res, err := h.Compare(frameOf(base), frameOf(small))

			Convey("Then the perceptual stage classifies them as duplicates", func() {
				So(err, ShouldBeNil)
				So(res.IsDuplicate, ShouldBeTrue)
				So(res.StrategyName, ShouldEqual, strategy.HybridName)
			})
		})
	})
}

func TestHybridConfigure(t *testing.T) {
	Convey("Given a hybrid strategy", t, func() {
		Convey("When the stage list matches the fixed ordering", func() {
			So(strategy.NewHybrid().Configure(strategy.Config{
				"stages": []string{"exact", "perceptual"},
			}), ShouldBeNil)
		})

		Convey("When the stage list uses the hash alias", func() {
			So(strategy.NewHybrid().Configure(strategy.Config{
				"stages": []any{"hash", "perceptual"},
			}), ShouldBeNil)
		})

		Convey("When the stage ordering is reversed", func() {
			err := strategy.NewHybrid().Configure(strategy.Config{
				"stages": []string{"perceptual", "exact"},
			})
			So(errors.Is(err, strategy.ErrInvalidStages), ShouldBeTrue)
		})

		Convey("When the stage list names an unknown strategy", func() {
			err := strategy.NewHybrid().Configure(strategy.Config{
				"stages": []string{"exact", "neural"},
			})
			So(errors.Is(err, strategy.ErrUnknownStage), ShouldBeTrue)
		})

		Convey("When stages is not a list", func() {
			err := strategy.NewHybrid().Configure(strategy.Config{"stages": "exact"})
			So(errors.Is(err, strategy.ErrUnknownStage), ShouldBeTrue)
		})

		Convey("When stage settings are forwarded", func() {
			Convey("Then an invalid threshold is rejected by the perceptual stage", func() {
				err := strategy.NewHybrid().Configure(strategy.Config{"threshold": 2.0})
				So(errors.Is(err, strategy.ErrInvalidThreshold), ShouldBeTrue)
			})

			Convey("And an invalid digest is rejected by the exact stage", func() {
				err := strategy.NewHybrid().Configure(strategy.Config{"hash_algorithm": "crc32"})
				So(errors.Is(err, strategy.ErrUnknownAlgorithm), ShouldBeTrue)
			})
		})
	})
}

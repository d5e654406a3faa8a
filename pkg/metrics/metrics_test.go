package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/snapdeck/snapdeck/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGlobalManager(t *testing.T) {
	Convey("Given the package-level metrics manager", t, func() {
		Convey("When recording across every pipeline concern", func() {
			So(func() {
				metrics.RecordFrameCaptured()
				metrics.RecordCaptureFailure()
				metrics.RecordCaptureEscalation()
				metrics.RecordCaptureLatency(12.5)
				metrics.RecordFrameDuplicate()
				metrics.RecordFrameUnique()
				metrics.RecordFrameInvalid()
				metrics.RecordComparisonLatency("exact", 0.3)
				metrics.RecordComparisonLatency("perceptual", 4.1)
				metrics.UpdateEngineQueueDepth(3)
				metrics.RecordEventPublished("frame-captured")
				metrics.RecordHandlerPanic("frame-captured")
				metrics.RecordSlideStored()
				metrics.RecordStorageError()
				metrics.RecordStoreLatency(8.0)
				metrics.UpdateSessionsActive(1)
				metrics.UpdateSystemMemoryUsage(1 << 20)
				metrics.UpdateSystemGoroutineCount(42)
				metrics.RecordSystemGCPauseTime(0.7)
			}, ShouldNotPanic)

			Convey("Then the registry gathers the families", func() {
				families, err := metrics.GetRegistry().Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)

				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["snapdeck_pipeline_frames_captured_total"], ShouldBeTrue)
				So(names["snapdeck_pipeline_frames_unique_total"], ShouldBeTrue)
				So(names["snapdeck_pipeline_slides_stored_total"], ShouldBeTrue)
			})
		})
	})
}

func TestNewManagerOptions(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		reg := prometheus.NewRegistry()
		m := metrics.NewManager(
			metrics.WithNamespace("testspace"),
			metrics.WithSubsystem("unit"),
			metrics.WithPrometheusRegistry(reg),
		)

		Convey("Then it registers its collectors there", func() {
			So(m, ShouldNotBeNil)
			families, err := reg.Gather()
			So(err, ShouldBeNil)
			// Gauges register eagerly even before any observation.
			So(families, ShouldNotBeNil)
		})
	})
}

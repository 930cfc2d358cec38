package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/okian/tokenrain/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("Given a metrics manager on a private registry", t, func() {
		reg := prometheus.NewRegistry()
		m := metrics.NewManager(metrics.WithPrometheusRegistry(reg))

		Convey("Then construction registers all collectors without panics", func() {
			So(m, ShouldNotBeNil)
			families, err := reg.Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})

		Convey("When constructing with custom namespace and subsystem", func() {
			reg2 := prometheus.NewRegistry()
			m2 := metrics.NewManager(
				metrics.WithPrometheusRegistry(reg2),
				metrics.WithNamespace("custom"),
				metrics.WithSubsystem("pipeline"),
			)

			Convey("Then metric names carry the custom prefix", func() {
				So(m2, ShouldNotBeNil)
				families, err := reg2.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "custom_pipeline_events_seen_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})

	Convey("Given the global recording helpers", t, func() {
		Convey("Then they record without panicking", func() {
			So(func() {
				metrics.RecordEventSeen()
				metrics.RecordEventDuplicate()
				metrics.RecordEventSampledOut()
				metrics.RecordTokenSpawned("favorable")
				metrics.RecordTapScored()
				metrics.RecordMiss()
				metrics.RecordSessionEnded("miss_limit", 7)
				metrics.UpdateActiveTokens(3)
				metrics.UpdateSessionStatus(1)
				metrics.RecordHTTPRequest("state", "GET", "200")
				metrics.RecordHTTPRequestDuration("state", "GET", "200", 1.5)
			}, ShouldNotPanic)
		})

		Convey("Then the exposition registry is available", func() {
			So(metrics.GetRegistry(), ShouldNotBeNil)
		})
	})
}

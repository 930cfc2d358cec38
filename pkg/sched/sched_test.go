package sched_test

import (
	"testing"
	"time"

	"github.com/okian/tokenrain/pkg/sched"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManualScheduler(t *testing.T) {
	Convey("Given a manual scheduler", t, func() {
		m := sched.NewManual()

		Convey("When a callback is scheduled", func() {
			fired := 0
			m.AfterFunc(100*time.Millisecond, func() { fired++ })

			Convey("Then it does not fire before its deadline", func() {
				m.Advance(99 * time.Millisecond)
				So(fired, ShouldEqual, 0)
				So(m.Pending(), ShouldEqual, 1)
			})

			Convey("Then it fires exactly once at the deadline", func() {
				m.Advance(100 * time.Millisecond)
				So(fired, ShouldEqual, 1)
				m.Advance(time.Hour)
				So(fired, ShouldEqual, 1)
				So(m.Pending(), ShouldEqual, 0)
			})
		})

		Convey("When a callback is stopped before firing", func() {
			fired := 0
			timer := m.AfterFunc(50*time.Millisecond, func() { fired++ })
			stopped := timer.Stop()

			Convey("Then Stop reports success and the callback never runs", func() {
				So(stopped, ShouldBeTrue)
				m.Advance(time.Second)
				So(fired, ShouldEqual, 0)
			})

			Convey("Then a second Stop reports failure", func() {
				So(timer.Stop(), ShouldBeFalse)
			})
		})

		Convey("When Stop races a fired timer", func() {
			fired := 0
			timer := m.AfterFunc(10*time.Millisecond, func() { fired++ })
			m.Advance(10 * time.Millisecond)

			Convey("Then Stop after firing reports failure", func() {
				So(fired, ShouldEqual, 1)
				So(timer.Stop(), ShouldBeFalse)
			})
		})

		Convey("When multiple callbacks share one advance", func() {
			var order []string
			m.AfterFunc(30*time.Millisecond, func() { order = append(order, "late") })
			m.AfterFunc(10*time.Millisecond, func() { order = append(order, "early") })
			m.Advance(time.Second)

			Convey("Then they fire in deadline order", func() {
				So(order, ShouldResemble, []string{"early", "late"})
			})
		})

		Convey("When a callback schedules another timer", func() {
			fired := 0
			m.AfterFunc(10*time.Millisecond, func() {
				m.AfterFunc(10*time.Millisecond, func() { fired++ })
			})
			m.Advance(20 * time.Millisecond)

			Convey("Then the chained timer fires within the same advance", func() {
				So(fired, ShouldEqual, 1)
			})
		})
	})
}

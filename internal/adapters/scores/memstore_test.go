package scores_test

import (
	"context"
	"testing"

	"github.com/okian/tokenrain/internal/adapters/scores"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemStore(t *testing.T) {
	Convey("Given an empty high-score store", t, func() {
		ctx := context.Background()
		s := scores.NewMemStore()

		Convey("When the first run is recorded", func() {
			improved, err := s.RecordRun(ctx, "ada", 12)

			Convey("Then it becomes the player's best", func() {
				So(err, ShouldBeNil)
				So(improved, ShouldBeTrue)
				So(s.Count(ctx), ShouldEqual, 1)
			})
		})

		Convey("When a worse run follows a better one", func() {
			s.RecordRun(ctx, "ada", 12)
			improved, err := s.RecordRun(ctx, "ada", 5)

			Convey("Then the best is kept and runs counted", func() {
				So(err, ShouldBeNil)
				So(improved, ShouldBeFalse)
				entry, err := s.Rank(ctx, "ada")
				So(err, ShouldBeNil)
				So(entry.Score, ShouldEqual, 12)
				So(entry.Runs, ShouldEqual, 2)
			})
		})

		Convey("When several players have recorded runs", func() {
			s.RecordRun(ctx, "ada", 12)
			s.RecordRun(ctx, "bob", 30)
			s.RecordRun(ctx, "cleo", 12)

			Convey("Then TopN orders by score with earlier runs winning ties", func() {
				top, err := s.TopN(ctx, 10)
				So(err, ShouldBeNil)
				So(top, ShouldHaveLength, 3)
				So(top[0].Player, ShouldEqual, "bob")
				So(top[1].Player, ShouldEqual, "ada")
				So(top[2].Player, ShouldEqual, "cleo")
				So(top[0].Rank, ShouldEqual, 1)
				So(top[2].Rank, ShouldEqual, 3)
			})

			Convey("Then TopN truncates to the requested size", func() {
				top, err := s.TopN(ctx, 2)
				So(err, ShouldBeNil)
				So(top, ShouldHaveLength, 2)
			})

			Convey("Then Rank agrees with the ordering", func() {
				entry, err := s.Rank(ctx, "cleo")
				So(err, ShouldBeNil)
				So(entry.Rank, ShouldEqual, 3)
			})
		})

		Convey("When querying an unknown player", func() {
			_, err := s.Rank(ctx, "ghost")

			Convey("Then ErrNotFound is returned", func() {
				So(err, ShouldEqual, scores.ErrNotFound)
			})
		})

		Convey("When inputs are invalid", func() {
			Convey("Then a blank player name is refused", func() {
				_, err := s.RecordRun(ctx, "  ", 3)
				So(err, ShouldEqual, scores.ErrNoPlayer)
			})

			Convey("Then a non-positive limit is refused", func() {
				_, err := s.TopN(ctx, 0)
				So(err, ShouldEqual, scores.ErrInvalidLimit)
			})

			Convey("Then a negative score clamps to zero", func() {
				_, err := s.RecordRun(ctx, "ada", -4)
				So(err, ShouldBeNil)
				entry, err := s.Rank(ctx, "ada")
				So(err, ShouldBeNil)
				So(entry.Score, ShouldEqual, 0)
			})
		})
	})
}

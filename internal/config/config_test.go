package config

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNewDefaults(t *testing.T) {
	Convey("Given a default Config", t, func() {
		cfg := New()

		Convey("Then the gameplay defaults are in place", func() {
			So(cfg.Addr, ShouldEqual, ":8090")
			So(cfg.FeedURL, ShouldEqual, "ws://127.0.0.1:9345/shreds")
			So(cfg.FavorableContract, ShouldEqual, DefaultFavorableContract)
			So(cfg.HazardContract, ShouldEqual, DefaultHazardContract)
			So(cfg.MissTimeoutMS, ShouldEqual, 4500)
			So(cfg.TokenLifetimeMS, ShouldEqual, 5000)
			So(cfg.MaxMisses, ShouldEqual, 10)
			So(cfg.DifficultyThresholds, ShouldResemble, []int{25, 50})
			So(cfg.DifficultyModuli, ShouldResemble, []int{3, 2, 1})
		})

		Convey("Then the defaults validate cleanly", func() {
			So(cfg.Validate(), ShouldBeNil)
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given a valid base Config", t, func() {
		base := New()

		Convey("When addr is empty", func() {
			cfg := *base
			cfg.Addr = ""
			So(cfg.Validate(), ShouldWrap, ErrInvalidConfig)
		})

		Convey("When feed_url is empty", func() {
			cfg := *base
			cfg.FeedURL = ""
			So(cfg.Validate(), ShouldWrap, ErrInvalidConfig)
		})

		Convey("When max_misses is zero", func() {
			cfg := *base
			cfg.MaxMisses = 0
			So(cfg.Validate(), ShouldWrap, ErrInvalidConfig)
		})

		Convey("When the miss deadline reaches the token lifetime", func() {
			cfg := *base
			cfg.MissTimeoutMS = cfg.TokenLifetimeMS
			So(cfg.Validate(), ShouldWrap, ErrInvalidConfig)
		})

		Convey("When both contracts are the same address in mixed case", func() {
			cfg := *base
			cfg.HazardContract = "0xa0b86991C6218B36C1D19D4A2E9EB0CE3606EB48"
			So(cfg.Validate(), ShouldWrap, ErrInvalidConfig)
		})

		Convey("When the bracket shape is off by one", func() {
			cfg := *base
			cfg.DifficultyModuli = []int{3, 2}
			So(cfg.Validate(), ShouldWrap, ErrInvalidConfig)
		})

		Convey("When a modulus is below one", func() {
			cfg := *base
			cfg.DifficultyModuli = []int{3, 0, 1}
			So(cfg.Validate(), ShouldWrap, ErrInvalidConfig)
		})

		Convey("When the thresholds are out of order", func() {
			cfg := *base
			cfg.DifficultyThresholds = []int{50, 25}
			So(cfg.Validate(), ShouldWrap, ErrInvalidConfig)
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given environment overrides", t, func() {
		t.Setenv("TOKENRAIN_ADDR", ":9999")
		t.Setenv("TOKENRAIN_MAX_MISSES", "3")

		Convey("When loading", func() {
			cfg, err := Load()

			Convey("Then the overrides land on top of the defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":9999")
				So(cfg.MaxMisses, ShouldEqual, 3)
				So(cfg.FeedURL, ShouldEqual, "ws://127.0.0.1:9345/shreds")
			})
		})
	})

	Convey("Given a config file that does not exist", t, func() {
		t.Setenv("TOKENRAIN_CONFIG", "/nonexistent/tokenrain.yaml")

		Convey("When loading", func() {
			_, err := Load()

			Convey("Then a load error is reported", func() {
				So(err, ShouldWrap, ErrLoadConfig)
			})
		})
	})

	Convey("Given an environment override that breaks an invariant", t, func() {
		// t.Setenv cleanups run at the end of the test, not per Convey block,
		// so the nonexistent config path from the block above is still set here.
		t.Setenv("TOKENRAIN_CONFIG", "")
		t.Setenv("TOKENRAIN_MISS_TIMEOUT_MS", "6000")

		Convey("When loading", func() {
			_, err := Load()

			Convey("Then validation rejects it", func() {
				So(err, ShouldWrap, ErrInvalidConfig)
			})
		})
	})
}

package model_test

import (
	"testing"

	"github.com/okian/tokenrain/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRawTransferEventKey(t *testing.T) {
	Convey("Given a raw transfer event", t, func() {
		e := model.RawTransferEvent{
			TxID:      "0xABCDEF",
			Signature: "0xDDF252AD",
			Address:   "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
			Kind:      model.KindFavorable,
		}

		Convey("When deriving the event key", func() {
			key := e.Key()

			Convey("Then it combines tx id and signature, lowercased", func() {
				So(key, ShouldEqual, "0xabcdef:0xddf252ad")
			})
		})

		Convey("When the same transfer is redelivered with different casing", func() {
			redelivered := e
			redelivered.TxID = "0xabcdef"
			redelivered.Signature = "0xddf252ad"
			redelivered.Slot = e.Slot + 3

			Convey("Then both deliveries produce the same key", func() {
				So(redelivered.Key(), ShouldEqual, e.Key())
			})
		})

		Convey("When a different transfer arrives", func() {
			other := e
			other.TxID = "0x123456"

			Convey("Then the keys differ", func() {
				So(other.Key(), ShouldNotEqual, e.Key())
			})
		})
	})
}

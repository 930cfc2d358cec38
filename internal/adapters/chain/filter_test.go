package chain_test

import (
	"os"
	"testing"

	"github.com/okian/tokenrain/internal/adapters/chain"
	"github.com/okian/tokenrain/internal/domain/model"
	"github.com/okian/tokenrain/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const (
	usdc = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	usdt = "0xdAC17F958D2ee523a2206206994597C13D831ec7"

	// Keccak256("Transfer(address,address,uint256)")
	transferTopic = "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"
	otherTopic    = "0x8c5be1e5ebec7d5bd14f71427d1e84f3dd0314c0f7b2291e5b200ac8c7c3b925"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	os.Exit(m.Run())
}

func TestFilter(t *testing.T) {
	Convey("Given a filter over the two game contracts", t, func() {
		f, err := chain.NewFilter(usdc, usdt)
		So(err, ShouldBeNil)

		Convey("When a shred carries matching transfer logs", func() {
			shred := chain.ShredNotification{
				Slot: 42,
				Transactions: []chain.TransactionRecord{
					{
						TxID: "0xabc",
						Logs: []chain.LogEntry{
							{Address: usdc, Topics: []string{transferTopic}},
							{Address: usdt, Topics: []string{transferTopic}},
						},
					},
				},
			}
			events := f.Extract(shred)

			Convey("Then one event per matching log is produced with mapped kinds", func() {
				So(events, ShouldHaveLength, 2)
				So(events[0].Kind, ShouldEqual, model.KindFavorable)
				So(events[1].Kind, ShouldEqual, model.KindHazard)
				So(events[0].TxID, ShouldEqual, "0xabc")
				So(events[0].Slot, ShouldEqual, 42)
			})

			Convey("Then both events share the tx but have kind-distinct addresses", func() {
				So(events[0].Address, ShouldNotEqual, events[1].Address)
				So(events[0].Key(), ShouldEqual, events[1].Key())
			})
		})

		Convey("When addresses differ only in casing", func() {
			shred := chain.ShredNotification{
				Transactions: []chain.TransactionRecord{
					{
						TxID: "0xdef",
						Logs: []chain.LogEntry{
							{Address: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", Topics: []string{transferTopic}},
						},
					},
				},
			}
			events := f.Extract(shred)

			Convey("Then matching is case-insensitive", func() {
				So(events, ShouldHaveLength, 1)
				So(events[0].Kind, ShouldEqual, model.KindFavorable)
			})
		})

		Convey("When a shred carries non-matching or malformed entries", func() {
			shred := chain.ShredNotification{
				Transactions: []chain.TransactionRecord{
					{TxID: "0x1", Logs: []chain.LogEntry{{Address: usdc, Topics: []string{otherTopic}}}},
					{TxID: "0x2", Logs: []chain.LogEntry{{Address: "0x00000000000000000000000000000000deadbeef", Topics: []string{transferTopic}}}},
					{TxID: "0x3", Logs: []chain.LogEntry{{Address: usdc, Topics: nil}}},
					{TxID: "0x4", Logs: []chain.LogEntry{{Address: "not-hex", Topics: []string{transferTopic}}}},
					{TxID: "", Logs: []chain.LogEntry{{Address: usdc, Topics: []string{transferTopic}}}},
				},
			}

			Convey("Then all are silently dropped", func() {
				So(f.Extract(shred), ShouldBeEmpty)
			})
		})

		Convey("When a shred has no transactions", func() {
			Convey("Then extraction yields nothing", func() {
				So(f.Extract(chain.ShredNotification{Slot: 7}), ShouldBeEmpty)
			})
		})
	})

	Convey("Given invalid filter configuration", t, func() {
		Convey("When an address is not hex", func() {
			_, err := chain.NewFilter("nope", usdt)
			So(err, ShouldNotBeNil)
		})

		Convey("When both contracts are the same", func() {
			_, err := chain.NewFilter(usdc, usdc)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestNewWSSource(t *testing.T) {
	Convey("Given websocket source construction", t, func() {
		f, err := chain.NewFilter(usdc, usdt)
		So(err, ShouldBeNil)

		Convey("When the endpoint scheme is not ws/wss", func() {
			_, err := chain.NewWSSource("http://feed.example", f)

			Convey("Then construction fails", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When the endpoint is a websocket URL", func() {
			src, err := chain.NewWSSource("wss://feed.example/shreds", f)

			Convey("Then construction succeeds", func() {
				So(err, ShouldBeNil)
				So(src, ShouldNotBeNil)
			})
		})
	})
}

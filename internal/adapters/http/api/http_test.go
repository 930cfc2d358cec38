package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/tokenrain/internal/adapters/http/api"
	"github.com/okian/tokenrain/internal/adapters/scores"
	"github.com/okian/tokenrain/internal/app"
	"github.com/okian/tokenrain/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// stubDeps implements api.Dependencies with canned behavior.
type stubDeps struct {
	snap       model.Snapshot
	startErr   error
	resetErr   error
	tapOutcome model.Outcome
	lastPlayer string
	lastTap    string
	entries    []scores.Entry
}

func (s *stubDeps) Snapshot(context.Context) model.Snapshot { return s.snap }

func (s *stubDeps) StartGame(_ context.Context, player string) (model.Snapshot, error) {
	s.lastPlayer = player
	if s.startErr != nil {
		return model.Snapshot{}, s.startErr
	}
	return s.snap, nil
}

func (s *stubDeps) ResetGame(context.Context) (model.Snapshot, error) {
	if s.resetErr != nil {
		return model.Snapshot{}, s.resetErr
	}
	return s.snap, nil
}

func (s *stubDeps) Tap(_ context.Context, tokenID string) (model.Outcome, model.Snapshot) {
	s.lastTap = tokenID
	return s.tapOutcome, s.snap
}

func (s *stubDeps) HighScores(_ context.Context, n int) ([]scores.Entry, error) {
	if n > len(s.entries) {
		n = len(s.entries)
	}
	return s.entries[:n], nil
}

func (s *stubDeps) Stats(context.Context) map[string]interface{} {
	return map[string]interface{}{"status": s.snap.Status}
}

func newMux(deps *stubDeps) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, 100).Register(context.Background(), mux)
	return mux
}

func TestStateEndpoint(t *testing.T) {
	Convey("Given the game API", t, func() {
		deps := &stubDeps{snap: model.Snapshot{Status: "playing", Score: 5, Misses: 2}}
		mux := newMux(deps)

		Convey("When GET /state is requested", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/state", nil))

			Convey("Then the snapshot is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var snap model.Snapshot
				So(json.Unmarshal(rec.Body.Bytes(), &snap), ShouldBeNil)
				So(snap.Status, ShouldEqual, "playing")
				So(snap.Score, ShouldEqual, 5)
			})
		})

		Convey("When /state is posted to", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/state", nil))

			Convey("Then it is not found", func() {
				So(rec.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestSessionEndpoints(t *testing.T) {
	Convey("Given the game API", t, func() {
		deps := &stubDeps{snap: model.Snapshot{Status: "playing"}}
		mux := newMux(deps)

		Convey("When starting with a player name", func() {
			body := strings.NewReader(`{"player":"ada"}`)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/session/start", body))

			Convey("Then the name is forwarded and the snapshot returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.lastPlayer, ShouldEqual, "ada")
			})
		})

		Convey("When starting with no body", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/session/start", nil))

			Convey("Then the default player applies", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.lastPlayer, ShouldBeEmpty)
			})
		})

		Convey("When starting with a malformed body", func() {
			body := strings.NewReader(`{"player":`)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/session/start", body))

			Convey("Then it is rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When a session is already playing", func() {
			deps.startErr = app.ErrNotIdle
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/session/start", nil))

			Convey("Then the conflict is reported", func() {
				So(rec.Code, ShouldEqual, http.StatusConflict)
			})
		})

		Convey("When resetting with nothing to reset", func() {
			deps.resetErr = app.ErrNotResettable
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/session/reset", nil))

			Convey("Then the conflict is reported", func() {
				So(rec.Code, ShouldEqual, http.StatusConflict)
			})
		})

		Convey("When resetting a finished session", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/session/reset", nil))

			Convey("Then the fresh snapshot is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestTapEndpoint(t *testing.T) {
	Convey("Given the game API", t, func() {
		deps := &stubDeps{snap: model.Snapshot{Status: "playing"}, tapOutcome: model.OutcomeScored}
		mux := newMux(deps)

		Convey("When tapping a token", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tap/0xabc:0xsig", nil))

			Convey("Then the outcome and snapshot are returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.lastTap, ShouldEqual, "0xabc:0xsig")
				var resp struct {
					Outcome model.Outcome `json:"outcome"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Outcome, ShouldEqual, model.OutcomeScored)
			})
		})

		Convey("When the token id is missing", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tap/", nil))

			Convey("Then it is rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestHighScoresEndpoint(t *testing.T) {
	Convey("Given the game API with recorded runs", t, func() {
		deps := &stubDeps{entries: []scores.Entry{
			{Rank: 1, Player: "ada", Score: 40, Runs: 3},
			{Rank: 2, Player: "bob", Score: 12, Runs: 1},
		}}
		mux := newMux(deps)

		Convey("When requesting the board with a limit", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/highscores?limit=1", nil))

			Convey("Then the limited board is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var entries []scores.Entry
				So(json.Unmarshal(rec.Body.Bytes(), &entries), ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
				So(entries[0].Player, ShouldEqual, "ada")
			})
		})

		Convey("When the limit is not a positive integer", func() {
			for _, q := range []string{"limit=0", "limit=-3", "limit=abc"} {
				rec := httptest.NewRecorder()
				mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/highscores?"+q, nil))
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("When the limit exceeds the cap", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/highscores?limit=1000", nil))

			Convey("Then it is rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestStatsEndpoint(t *testing.T) {
	Convey("Given the game API", t, func() {
		deps := &stubDeps{snap: model.Snapshot{Status: "idle"}}
		mux := newMux(deps)

		Convey("When GET /stats is requested", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

			Convey("Then the stats document is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var stats map[string]interface{}
				So(json.Unmarshal(rec.Body.Bytes(), &stats), ShouldBeNil)
				So(stats["status"], ShouldEqual, "idle")
			})
		})
	})
}

// Package api declares HTTP contracts and route registration helpers. This is
// the boundary the rendering collaborator talks to: it reads frame snapshots
// and submits taps and session commands; everything visual stays on its side.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/tokenrain/internal/adapters/scores"
	"github.com/okian/tokenrain/internal/domain/model"
)

// Dependencies required by HTTP handlers. An interface bundle keeps the
// handler layer loosely coupled to the app controller.
type Dependencies interface {
	Snapshot(ctx context.Context) model.Snapshot
	StartGame(ctx context.Context, player string) (model.Snapshot, error)
	ResetGame(ctx context.Context) (model.Snapshot, error)
	Tap(ctx context.Context, tokenID string) (model.Outcome, model.Snapshot)
	HighScores(ctx context.Context, n int) ([]scores.Entry, error)
	Stats(ctx context.Context) map[string]interface{}
}

// Entry mirrors the read shape returned by high-score queries.
type Entry = scores.Entry

// Server wires HTTP routes for the game API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	stateHandler      *StateHandler
	sessionHandler    *SessionHandler
	tapHandler        *TapHandler
	highscoresHandler *HighScoresHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, maxHighScoreLimit int) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(deps),
		stateHandler:      NewStateHandler(deps),
		sessionHandler:    NewSessionHandler(deps),
		tapHandler:        NewTapHandler(deps),
		highscoresHandler: NewHighScoresHandler(deps, maxHighScoreLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/state", MetricsMiddleware(s.stateHandler.HandleGetState, "state"))
	mux.HandleFunc("/session/start", MetricsMiddleware(s.sessionHandler.HandleStart, "session_start"))
	mux.HandleFunc("/session/reset", MetricsMiddleware(s.sessionHandler.HandleReset, "session_reset"))
	mux.HandleFunc("/tap/", MetricsMiddleware(s.tapHandler.HandleTap, "tap"))
	mux.HandleFunc("/highscores", MetricsMiddleware(s.highscoresHandler.HandleGetHighScores, "highscores"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

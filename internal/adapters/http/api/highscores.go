// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"
)

// defaultHighScoreLimit applies when no limit query is given.
const defaultHighScoreLimit = 10

// HighScoresHandler serves the best-run table.
type HighScoresHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewHighScoresHandler creates a new high-scores handler.
func NewHighScoresHandler(deps Dependencies, maxLimit int) *HighScoresHandler {
	if maxLimit <= 0 {
		maxLimit = defaultHighScoreLimit
	}
	return &HighScoresHandler{deps: deps, maxLimit: maxLimit}
}

// HandleGetHighScores handles GET /highscores?limit=N requests.
func (h *HighScoresHandler) HandleGetHighScores(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_highscores"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	n := defaultHighScoreLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		n = parsed
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}

	entries, err := h.deps.HighScores(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/tokenrain/internal/app"
)

// startRequest is the optional POST /session/start body.
type startRequest struct {
	Player string `json:"player"`
}

// SessionHandler handles session start/reset commands.
type SessionHandler struct {
	deps Dependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps Dependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

// HandleStart handles POST /session/start requests.
func (h *SessionHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	const op = "api.session_start"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	snap, err := h.deps.StartGame(r.Context(), req.Player)
	if err != nil {
		if errors.Is(err, app.ErrNotIdle) {
			writeError(w, http.StatusConflict, "already_playing", WrapKind(op, ErrConflict, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleReset handles POST /session/reset requests.
func (h *SessionHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	const op = "api.session_reset"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	snap, err := h.deps.ResetGame(r.Context())
	if err != nil {
		if errors.Is(err, app.ErrNotResettable) {
			writeError(w, http.StatusConflict, "nothing_to_reset", WrapKind(op, ErrConflict, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"

	"github.com/okian/tokenrain/internal/domain/model"
)

// tapResponse reports the resolution outcome alongside the fresh snapshot.
type tapResponse struct {
	Outcome model.Outcome  `json:"outcome"`
	State   model.Snapshot `json:"state"`
}

// TapHandler handles player tap input.
type TapHandler struct {
	deps Dependencies
}

// NewTapHandler creates a new tap handler.
func NewTapHandler(deps Dependencies) *TapHandler {
	return &TapHandler{deps: deps}
}

// HandleTap handles POST /tap/{tokenID} requests. Taps on unknown or
// already-resolved tokens are valid no-ops, reported as outcome "none".
func (h *TapHandler) HandleTap(w http.ResponseWriter, r *http.Request) {
	const op = "api.tap"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	tokenID := strings.TrimPrefix(r.URL.Path, "/tap/")
	if tokenID == "" || strings.Contains(tokenID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	outcome, snap := h.deps.Tap(r.Context(), tokenID)
	writeJSON(w, http.StatusOK, tapResponse{Outcome: outcome, State: snap})
}

// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// Kind identifies the gameplay role of a token.
type Kind string

// Token kinds. Favorable tokens score when tapped; tapping a Hazard ends the
// session immediately.
const (
	KindFavorable Kind = "favorable"
	KindHazard    Kind = "hazard"
)

// Outcome is the result of resolving a token.
type Outcome string

// Resolution outcomes produced by the lifecycle layer.
const (
	OutcomeScored    Outcome = "scored"    // favorable token tapped in time
	OutcomeDetonated Outcome = "detonated" // hazard token tapped
	OutcomeMissed    Outcome = "missed"    // favorable token deadline elapsed
	OutcomeExpired   Outcome = "expired"   // hazard token deadline elapsed, no effect
	OutcomeNone      Outcome = "none"      // token already resolved, no-op
)

// RawTransferEvent is one transfer notification as delivered by the chain
// subscriber, after log filtering but before deduplication. The transport may
// redeliver the same logical transfer any number of times.
type RawTransferEvent struct {
	TxID      string    // transaction identifier
	Signature string    // event signature topic, hex
	Address   string    // emitting contract address, hex
	Kind      Kind      // mapped from the contract address
	Slot      uint64    // shred slot the notification arrived in
	TS        time.Time // arrival timestamp
}

// Key derives the deduplication identity for the event. Two deliveries of the
// same logical transfer always produce the same key.
func (e RawTransferEvent) Key() string {
	return strings.ToLower(e.TxID) + ":" + strings.ToLower(e.Signature)
}

// Position is a presentational coordinate pair. The core passes it through
// unchanged; only the rendering side interprets it.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Token is the core gameplay entity, 1:1 with the deduplicated event that
// spawned it.
type Token struct {
	ID      string    `json:"id"` // equals the originating event key
	Kind    Kind      `json:"kind"`
	Spawn   Position  `json:"spawn"`
	Target  Position  `json:"target"`
	Spawned time.Time `json:"spawned"`

	// Gen is the session generation the token was spawned under. Outcome
	// handlers compare it against the live generation so a resolution racing
	// a session restart cannot land on the new session.
	Gen uint64 `json:"-"`
}

// Snapshot is the per-frame view the rendering collaborator reads.
type Snapshot struct {
	SessionID    string  `json:"session_id"`
	Status       string  `json:"status"`
	Score        int     `json:"score"`
	Misses       int     `json:"misses"`
	ActiveTokens []Token `json:"active_tokens"`
}

// Package session owns the {status, score, misses} triple and the
// idle/playing/game-over transitions derived from token outcomes. All
// mutations pass through one mutex-guarded machine so tap handlers and timer
// callbacks never race the counters.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/okian/tokenrain/internal/domain/model"
	"github.com/okian/tokenrain/pkg/logger"
	"github.com/okian/tokenrain/pkg/metrics"
)

// Status is the session state.
type Status string

// Session states. GameOver is terminal until an explicit reset.
const (
	StatusIdle     Status = "idle"
	StatusPlaying  Status = "playing"
	StatusGameOver Status = "game_over"
)

// EndCause describes why a session ended.
type EndCause string

// Session end causes.
const (
	CauseDetonated EndCause = "detonated"
	CauseMissLimit EndCause = "miss_limit"
	CauseReset     EndCause = "reset"
)

// DefaultMaxMisses is the miss count that ends a session.
const DefaultMaxMisses = 10

// Transition reports the state after applying one outcome.
type Transition struct {
	Status Status
	Score  int
	Misses int
	Ended  bool     // true when this outcome ended the session
	Cause  EndCause // set only when Ended
}

// State is a read-only view of the machine.
type State struct {
	ID     string
	Status Status
	Score  int
	Misses int
}

// Machine is the score/session state machine.
type Machine struct {
	mu        sync.Mutex
	id        string
	status    Status
	score     int
	misses    int
	maxMisses int
	log       logger.Logger
}

// Option applies a configuration option to the Machine.
type Option func(*Machine)

// WithMaxMisses sets the miss limit that forces game over.
func WithMaxMisses(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.maxMisses = n
		}
	}
}

// WithLogger sets a custom logger for the machine.
func WithLogger(l logger.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.log = l
		}
	}
}

// NewMachine creates an idle machine with configuration options.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{
		status:    StatusIdle,
		maxMisses: DefaultMaxMisses,
		log:       logger.Get().Named("session"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start transitions Idle -> Playing, minting a fresh session id and zeroed
// counters. Returns the session id and false if the machine is not idle.
func (m *Machine) Start(ctx context.Context) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != StatusIdle {
		m.log.Warn(ctx, "start refused", logger.String("status", string(m.status)))
		return "", false
	}

	m.id = uuid.NewString()
	m.status = StatusPlaying
	m.score = 0
	m.misses = 0

	metrics.RecordSessionStarted()
	metrics.UpdateSessionStatus(statusCode(m.status))
	m.log.Info(ctx, "session started", logger.String("session", m.id))
	return m.id, true
}

// Reset transitions GameOver -> Idle. A playing session may also be abandoned
// this way; in that case the end cause is recorded as a reset.
func (m *Machine) Reset(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.status {
	case StatusGameOver:
	case StatusPlaying:
		metrics.RecordSessionEnded(string(CauseReset), m.score)
	default:
		return false
	}

	m.log.Info(ctx, "session reset", logger.String("session", m.id))
	m.id = ""
	m.status = StatusIdle
	m.score = 0
	m.misses = 0
	metrics.UpdateSessionStatus(statusCode(m.status))
	return true
}

// Apply folds one resolution outcome into the session state. Outcomes arriving
// outside Playing are ignored; a stale timer must never mutate a fresh session.
func (m *Machine) Apply(ctx context.Context, outcome model.Outcome) Transition {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != StatusPlaying {
		return m.transitionLocked(false, "")
	}

	switch outcome {
	case model.OutcomeScored:
		m.score++
		metrics.RecordTapScored()
		return m.transitionLocked(false, "")

	case model.OutcomeDetonated:
		metrics.RecordHazardDetonated()
		return m.endLocked(ctx, CauseDetonated)

	case model.OutcomeMissed:
		if m.misses >= m.maxMisses {
			// The limit transition already ran; clamp and report the fault.
			m.log.Error(ctx, "miss past limit ignored",
				logger.Int("misses", m.misses), logger.Int("max", m.maxMisses))
			return m.transitionLocked(false, "")
		}
		m.misses++
		metrics.RecordMiss()
		if m.misses >= m.maxMisses {
			return m.endLocked(ctx, CauseMissLimit)
		}
		return m.transitionLocked(false, "")

	case model.OutcomeExpired, model.OutcomeNone:
		return m.transitionLocked(false, "")

	default:
		m.log.Warn(ctx, "unknown outcome ignored", logger.String("outcome", string(outcome)))
		return m.transitionLocked(false, "")
	}
}

// Snapshot returns the current state.
func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return State{ID: m.id, Status: m.status, Score: m.score, Misses: m.misses}
}

// endLocked performs the Playing -> GameOver transition. Must be called with
// m.mu held.
func (m *Machine) endLocked(ctx context.Context, cause EndCause) Transition {
	m.status = StatusGameOver
	metrics.RecordSessionEnded(string(cause), m.score)
	metrics.UpdateSessionStatus(statusCode(m.status))
	m.log.Info(ctx, "session over",
		logger.String("session", m.id),
		logger.String("cause", string(cause)),
		logger.Int("score", m.score),
		logger.Int("misses", m.misses),
	)
	return m.transitionLocked(true, cause)
}

func (m *Machine) transitionLocked(ended bool, cause EndCause) Transition {
	return Transition{Status: m.status, Score: m.score, Misses: m.misses, Ended: ended, Cause: cause}
}

func statusCode(s Status) int {
	switch s {
	case StatusPlaying:
		return 1
	case StatusGameOver:
		return 2
	default:
		return 0
	}
}

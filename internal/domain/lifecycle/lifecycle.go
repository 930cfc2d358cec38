// Package lifecycle owns the set of in-flight tokens. Every spawned token is
// resolved exactly once, by whichever of tap or miss deadline happens first;
// the loser of that race is a no-op.
package lifecycle

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/tokenrain/internal/domain/model"
	"github.com/okian/tokenrain/pkg/logger"
	"github.com/okian/tokenrain/pkg/metrics"
	"github.com/okian/tokenrain/pkg/sched"
)

// Default timing configuration. The miss deadline fires before the token's
// on-screen lifetime ends so the miss registers while the token is still
// visible.
const (
	DefaultMissTimeout   = 4500 * time.Millisecond
	DefaultTokenLifetime = 5000 * time.Millisecond

	defaultViewportW = 1280.0
	defaultViewportH = 720.0
)

// TimeoutHandler receives the outcome of a miss deadline firing. It is called
// from the scheduler's goroutine, never with the manager's lock held.
type TimeoutHandler func(token model.Token, outcome model.Outcome)

// Positioner computes presentational spawn and target positions for a token.
// The coordinates are opaque to the lifecycle logic.
type Positioner func(kind model.Kind) (spawn, target model.Position)

// Manager tracks active tokens and arbitrates the tap/timeout race.
type Manager interface {
	// Spawn constructs an active token for a sampled event key and arms its
	// miss deadline. The token is stamped with gen, the caller's session
	// generation, so outcome handlers can reject resolutions that outlive
	// their session. Returns the token and true, or a zero token and false if
	// the key is already in flight.
	Spawn(ctx context.Context, key string, kind model.Kind, gen uint64) (model.Token, bool)

	// ResolveByTap resolves a token in response to a player tap. Returns
	// OutcomeScored or OutcomeDetonated for an active token, OutcomeNone for
	// an unknown or already-resolved id.
	ResolveByTap(ctx context.Context, tokenID string) (model.Token, model.Outcome)

	// Active returns a snapshot of the in-flight tokens.
	Active(ctx context.Context) []model.Token

	// CancelAll stops every outstanding deadline and clears the active set
	// without producing outcomes. Used on game over and reset.
	CancelAll(ctx context.Context)

	// Count returns the number of in-flight tokens.
	Count(ctx context.Context) int
}

type entry struct {
	token model.Token
	timer sched.Timer
}

// manager implements Manager over a mutex-guarded active set.
type manager struct {
	mu     sync.Mutex
	active map[string]*entry

	scheduler   sched.Scheduler
	missTimeout time.Duration
	onTimeout   TimeoutHandler
	position    Positioner
	log         logger.Logger
}

// NewManager creates a lifecycle manager with configuration options.
func NewManager(opts ...Option) Manager {
	m := &manager{
		active:      make(map[string]*entry),
		scheduler:   sched.New(),
		missTimeout: DefaultMissTimeout,
		onTimeout:   func(model.Token, model.Outcome) {},
		position:    randomPositioner(defaultViewportW, defaultViewportH),
		log:         logger.Get().Named("lifecycle"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *manager) Spawn(ctx context.Context, key string, kind model.Kind, gen uint64) (model.Token, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.active[key]; exists {
		// Dedupe runs upstream, so a live duplicate means a logic fault.
		// Clamp by ignoring rather than disturbing the in-flight token.
		m.log.Warn(ctx, "spawn for key already in flight", logger.String("key", key))
		return model.Token{}, false
	}

	spawn, target := m.position(kind)
	token := model.Token{
		ID:      key,
		Kind:    kind,
		Spawn:   spawn,
		Target:  target,
		Spawned: time.Now(),
		Gen:     gen,
	}

	e := &entry{token: token}
	e.timer = m.scheduler.AfterFunc(m.missTimeout, func() {
		m.deadlineFired(ctx, key)
	})
	m.active[key] = e

	metrics.RecordTokenSpawned(string(kind))
	metrics.UpdateActiveTokens(len(m.active))
	return token, true
}

func (m *manager) ResolveByTap(ctx context.Context, tokenID string) (model.Token, model.Outcome) {
	m.mu.Lock()
	e, ok := m.active[tokenID]
	if !ok {
		m.mu.Unlock()
		// Unknown id or the deadline already won the race. Double taps land
		// here too; all are defined no-ops.
		return model.Token{}, model.OutcomeNone
	}
	delete(m.active, tokenID)
	e.timer.Stop()
	metrics.UpdateActiveTokens(len(m.active))
	m.mu.Unlock()

	outcome := model.OutcomeScored
	if e.token.Kind == model.KindHazard {
		outcome = model.OutcomeDetonated
	}
	return e.token, outcome
}

// deadlineFired resolves a token whose miss deadline elapsed. If the token
// was tapped first the entry is already gone and this is a no-op.
func (m *manager) deadlineFired(ctx context.Context, tokenID string) {
	m.mu.Lock()
	e, ok := m.active[tokenID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.active, tokenID)
	metrics.UpdateActiveTokens(len(m.active))
	m.mu.Unlock()

	outcome := model.OutcomeMissed
	if e.token.Kind == model.KindHazard {
		// Hazards simply disappear; no penalty, no reward.
		outcome = model.OutcomeExpired
	}
	m.onTimeout(e.token, outcome)
}

func (m *manager) Active(_ context.Context) []model.Token {
	m.mu.Lock()
	defer m.mu.Unlock()

	tokens := make([]model.Token, 0, len(m.active))
	for _, e := range m.active {
		tokens = append(tokens, e.token)
	}
	return tokens
}

func (m *manager) CancelAll(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, e := range m.active {
		e.timer.Stop()
		delete(m.active, key)
	}
	metrics.UpdateActiveTokens(0)
}

func (m *manager) Count(_ context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.active)
}

// randomPositioner spawns along the top edge and targets the bottom edge,
// bounded by the viewport extents.
func randomPositioner(width, height float64) Positioner {
	rng := rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // presentational jitter only
	var mu sync.Mutex
	return func(model.Kind) (model.Position, model.Position) {
		mu.Lock()
		defer mu.Unlock()
		x := rng.Float64() * width
		drift := (rng.Float64() - 0.5) * width * 0.2
		tx := x + drift
		if tx < 0 {
			tx = 0
		}
		if tx > width {
			tx = width
		}
		return model.Position{X: x, Y: 0}, model.Position{X: tx, Y: height}
	}
}

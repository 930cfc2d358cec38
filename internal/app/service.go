// Package app wires the event pipeline together: chain subscription ->
// deduplicator -> difficulty sampler -> token lifecycle -> session machine.
// The subscription is held only while a session is playing; leaving Playing on
// any path tears it down and cancels every outstanding miss deadline.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/okian/tokenrain/internal/adapters/chain"
	"github.com/okian/tokenrain/internal/adapters/mq/queue"
	"github.com/okian/tokenrain/internal/adapters/scores"
	"github.com/okian/tokenrain/internal/domain/dedupe"
	"github.com/okian/tokenrain/internal/domain/lifecycle"
	"github.com/okian/tokenrain/internal/domain/model"
	"github.com/okian/tokenrain/internal/domain/sampling"
	"github.com/okian/tokenrain/internal/domain/session"
	"github.com/okian/tokenrain/pkg/logger"
	"github.com/okian/tokenrain/pkg/metrics"
	"github.com/okian/tokenrain/pkg/sched"
)

// Default wiring configuration.
const (
	defaultQueueSize     = 1024
	defaultDefaultPlayer = "player1"
)

// Service is the game session controller.
type Service struct {
	mu sync.Mutex

	// Core components
	machine    *session.Machine
	deduper    dedupe.Deduper
	sampler    sampling.Sampler
	tokens     lifecycle.Manager
	source     chain.Source
	highscores scores.Store

	// Per-session plumbing, replaced on every start
	generation uint64
	gameCancel context.CancelFunc
	intake     *queue.InMemoryQueue
	player     string

	// Configuration
	queueSize     int
	dedupeSize    int
	missTimeout   time.Duration
	maxMisses     int
	thresholds    []int
	moduli        []int
	viewportW     float64
	viewportH     float64
	defaultPlayer string
	scheduler     sched.Scheduler

	// State
	started bool

	log logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets the transfer event source. Required before Start unless a
// test injects events directly.
func WithSource(src chain.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithHighScores sets the high-score store.
func WithHighScores(store scores.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.highscores = store
		}
	}
}

// WithQueueSize sets the intake queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the deduplication set. Zero means unbounded.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMissTimeout sets the miss deadline duration.
func WithMissTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.missTimeout = d
		}
	}
}

// WithMaxMisses sets the miss limit that ends a session.
func WithMaxMisses(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxMisses = n
		}
	}
}

// WithDifficulty sets the sampler score thresholds and moduli.
func WithDifficulty(thresholds, moduli []int) Option {
	return func(s *Service) {
		s.thresholds = thresholds
		s.moduli = moduli
	}
}

// WithViewport sets the presentational extents passed through to tokens.
func WithViewport(width, height float64) Option {
	return func(s *Service) {
		if width > 0 && height > 0 {
			s.viewportW = width
			s.viewportH = height
		}
	}
}

// WithDefaultPlayer sets the player handle used when start provides none.
func WithDefaultPlayer(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.defaultPlayer = name
		}
	}
}

// WithScheduler sets the deadline scheduler. Tests inject sched.NewManual().
func WithScheduler(sc sched.Scheduler) Option {
	return func(s *Service) {
		if sc != nil {
			s.scheduler = sc
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:     defaultQueueSize,
		missTimeout:   lifecycle.DefaultMissTimeout,
		maxMisses:     session.DefaultMaxMisses,
		viewportW:     1280,
		viewportH:     720,
		defaultPlayer: defaultDefaultPlayer,
		scheduler:     sched.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the pipeline components. It does not begin a game; the
// player does that explicitly via StartGame.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.log == nil {
		s.log = logger.Get().Named("game")
	}
	if s.source == nil {
		return ErrNoSource
	}
	if s.highscores == nil {
		s.highscores = scores.NewMemStore()
	}

	var dedupeOpts []dedupe.Option
	if s.dedupeSize > 0 {
		dedupeOpts = append(dedupeOpts, dedupe.WithMaxSize(s.dedupeSize))
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupeOpts...)

	var samplerOpts []sampling.Option
	if s.thresholds != nil && s.moduli != nil {
		samplerOpts = append(samplerOpts, sampling.WithBrackets(s.thresholds, s.moduli))
	}
	s.sampler = sampling.New(samplerOpts...)

	s.machine = session.NewMachine(
		session.WithMaxMisses(s.maxMisses),
		session.WithLogger(s.log),
	)
	s.tokens = lifecycle.NewManager(
		lifecycle.WithScheduler(s.scheduler),
		lifecycle.WithMissTimeout(s.missTimeout),
		lifecycle.WithViewport(s.viewportW, s.viewportH),
		lifecycle.WithTimeoutHandler(s.onDeadline),
		lifecycle.WithLogger(s.log),
	)

	s.started = true
	s.log.Info(ctx, "game service started",
		logger.Int("queue_size", s.queueSize),
		logger.Duration("miss_timeout", s.missTimeout),
		logger.Int("max_misses", s.maxMisses),
	)
	return nil
}

// Stop tears down any running game and marks the service stopped.
func (s *Service) Stop() {
	ctx := context.Background()

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.teardownLocked(ctx)
	s.started = false
	s.mu.Unlock()

	if s.machine.Snapshot().Status == session.StatusPlaying {
		s.machine.Reset(ctx)
	}
	s.log.Info(ctx, "game service stopped")
}

// StartGame begins a new session for the given player handle (empty uses the
// configured default). The chain subscription is acquired here and held until
// the session leaves Playing.
func (s *Service) StartGame(ctx context.Context, player string) (model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return model.Snapshot{}, ErrNotStarted
	}

	sessionID, ok := s.machine.Start(ctx)
	if !ok {
		return model.Snapshot{}, ErrNotIdle
	}

	// Fresh session, fresh state: stale keys, counters, and tokens from the
	// previous session must not leak in.
	s.deduper.Reset(ctx)
	s.sampler.Reset()
	s.tokens.CancelAll(ctx)
	s.generation++

	if player == "" {
		player = s.defaultPlayer
	}
	s.player = player

	gameCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.gameCancel = cancel
	s.intake = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))

	events, cancelSub, err := s.source.Subscribe(gameCtx)
	if err != nil {
		cancel()
		s.gameCancel = nil
		s.machine.Reset(ctx)
		return model.Snapshot{}, err
	}

	gen := s.generation
	go s.pump(gameCtx, events, s.intake, cancelSub)
	go s.runLoop(gameCtx, gen, s.intake)

	s.log.Info(ctx, "game begun",
		logger.String("session", sessionID),
		logger.String("player", player),
	)
	return s.snapshotLocked(), nil
}

// ResetGame returns the machine to Idle, tearing down any live plumbing
// first. Valid from GameOver (the normal path) and from Playing (abandon).
func (s *Service) ResetGame(ctx context.Context) (model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return model.Snapshot{}, ErrNotStarted
	}

	s.teardownLocked(ctx)
	if !s.machine.Reset(ctx) {
		return model.Snapshot{}, ErrNotResettable
	}
	s.deduper.Reset(ctx)
	s.sampler.Reset()
	return s.snapshotLocked(), nil
}

// Tap resolves a token in response to player input. Unknown or already
// resolved ids are no-ops reported as OutcomeNone.
func (s *Service) Tap(ctx context.Context, tokenID string) (model.Outcome, model.Snapshot) {
	token, outcome := s.tokens.ResolveByTap(ctx, tokenID)
	if outcome == model.OutcomeNone {
		return outcome, s.Snapshot(ctx)
	}

	s.log.Debug(ctx, "token tapped",
		logger.String("token", token.ID),
		logger.String("outcome", string(outcome)),
	)
	if !s.applyOutcome(ctx, token.Gen, outcome) {
		return model.OutcomeNone, s.Snapshot(ctx)
	}
	return outcome, s.Snapshot(ctx)
}

// Snapshot returns the per-frame view for the rendering collaborator.
func (s *Service) Snapshot(_ context.Context) model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// HighScores returns the top-n best runs.
func (s *Service) HighScores(ctx context.Context, n int) ([]scores.Entry, error) {
	return s.highscores.TopN(ctx, n)
}

// PlayerRank returns the rank entry for one player handle.
func (s *Service) PlayerRank(ctx context.Context, player string) (scores.Entry, error) {
	return s.highscores.Rank(ctx, player)
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats(ctx context.Context) map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.machine.Snapshot()
	stats := map[string]interface{}{
		"started":       s.started,
		"status":        string(st.Status),
		"score":         st.Score,
		"misses":        st.Misses,
		"active_tokens": s.tokens.Count(ctx),
		"dedupe_size":   s.deduper.Size(),
		"sampler_seq":   s.sampler.Seq(),
		"players":       s.highscores.Count(ctx),
	}
	if s.intake != nil {
		stats["queue_length"] = s.intake.Len(ctx)
	}
	return stats
}

// pump moves raw events from the subscription channel into the bounded
// intake queue. A full queue sheds; the sampler thins much harder anyway.
func (s *Service) pump(ctx context.Context, events <-chan model.RawTransferEvent, q *queue.InMemoryQueue, cancelSub context.CancelFunc) {
	defer cancelSub()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			q.Enqueue(ctx, e)
		}
	}
}

// runLoop is the single consumer of the intake queue. Every gameplay mutation
// triggered by the feed happens run-to-completion on this goroutine.
func (s *Service) runLoop(ctx context.Context, gen uint64, q *queue.InMemoryQueue) {
	ch := q.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			s.handleEvent(ctx, gen, e)
		}
	}
}

// handleEvent runs one raw event through dedupe -> sampler -> spawn.
func (s *Service) handleEvent(ctx context.Context, gen uint64, e model.RawTransferEvent) {
	s.mu.Lock()
	stale := gen != s.generation
	s.mu.Unlock()
	if stale {
		return
	}

	st := s.machine.Snapshot()
	if st.Status != session.StatusPlaying {
		return
	}

	metrics.RecordEventSeen()
	key := e.Key()
	if s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordEventDuplicate()
		return
	}
	if !s.sampler.Next(st.Score) {
		metrics.RecordEventSampledOut()
		return
	}
	if _, ok := s.tokens.Spawn(ctx, key, e.Kind, gen); ok {
		s.log.Debug(ctx, "token spawned",
			logger.String("key", key),
			logger.String("kind", string(e.Kind)),
			logger.Uint64("slot", e.Slot),
		)
	}
}

// onDeadline handles a miss deadline firing. OutcomeExpired (hazard drifting
// away) carries no effect; OutcomeMissed feeds the machine and may end the
// session.
func (s *Service) onDeadline(token model.Token, outcome model.Outcome) {
	ctx := context.Background()
	if outcome != model.OutcomeMissed {
		return
	}
	s.log.Debug(ctx, "token missed", logger.String("token", token.ID))
	s.applyOutcome(ctx, token.Gen, outcome)
}

// applyOutcome feeds one resolution into the machine, ending the game if it
// produced a terminal transition. The generation check closes the race where
// a deadline or tap resolves a token, the session restarts, and only then the
// outcome reaches the machine: such an outcome belongs to a dead session and
// must not touch the new one. Returns false when rejected as stale.
func (s *Service) applyOutcome(ctx context.Context, gen uint64, outcome model.Outcome) bool {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.log.Debug(ctx, "stale outcome dropped", logger.String("outcome", string(outcome)))
		return false
	}
	tr := s.machine.Apply(ctx, outcome)
	var player string
	if tr.Ended {
		s.teardownLocked(ctx)
		player = s.player
	}
	s.mu.Unlock()

	if tr.Ended && player != "" {
		if _, err := s.highscores.RecordRun(ctx, player, tr.Score); err != nil {
			s.log.Warn(ctx, "highscore record failed", logger.Error(err))
		}
	}
	return true
}

// teardownLocked cancels the subscription, drains the plumbing, and stops all
// deadlines. Must be called with s.mu held. Safe to call repeatedly.
func (s *Service) teardownLocked(ctx context.Context) {
	if s.gameCancel != nil {
		s.gameCancel()
		s.gameCancel = nil
	}
	if s.intake != nil {
		_ = s.intake.Close()
		s.intake = nil
	}
	if s.tokens != nil {
		s.tokens.CancelAll(ctx)
	}
	s.generation++
}

func (s *Service) snapshotLocked() model.Snapshot {
	st := s.machine.Snapshot()
	return model.Snapshot{
		SessionID:    st.ID,
		Status:       string(st.Status),
		Score:        st.Score,
		Misses:       st.Misses,
		ActiveTokens: s.tokens.Active(context.Background()),
	}
}

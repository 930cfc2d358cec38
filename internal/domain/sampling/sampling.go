// Package sampling thins the deduplicated event stream down to a playable
// spawn cadence. Raw transfer volume on the network is far higher than a
// playable rate; the sampler admits a growing fraction of events as the
// player's score climbs, and never reduces the rate mid-session.
package sampling

import "sync"

// Default difficulty configuration. Below the first threshold every third
// event spawns, below the second every other, and past it every event does.
var (
	defaultThresholds = []int{25, 50}
	defaultModuli     = []int{3, 2, 1}
)

// Sampler decides whether a deduplicated event should spawn a token.
type Sampler interface {
	// Next advances the session-scoped sequence counter and reports whether
	// the event at that position should spawn, given the score at call time.
	// The counter is shared across token kinds.
	Next(score int) bool

	// ShouldSpawn is the pure form of the policy: whether the event with the
	// given sequence number spawns at the given score.
	ShouldSpawn(seq uint64, score int) bool

	// Reset zeroes the sequence counter. Called on session start so
	// difficulty does not drift across repeated plays.
	Reset()

	// Seq returns the current sequence counter value.
	Seq() uint64
}

// bracketSampler implements Sampler with score-bracketed modulus thinning.
type bracketSampler struct {
	mu         sync.Mutex
	seq        uint64
	thresholds []int // ascending score cutoffs
	moduli     []int // len(thresholds)+1 entries, one per bracket
}

// New creates a sampler with configuration options.
func New(opts ...Option) Sampler {
	s := &bracketSampler{
		thresholds: defaultThresholds,
		moduli:     defaultModuli,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *bracketSampler) Next(score int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	return s.admit(s.seq, score)
}

func (s *bracketSampler) ShouldSpawn(seq uint64, score int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.admit(seq, score)
}

func (s *bracketSampler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq = 0
}

func (s *bracketSampler) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.seq
}

// admit applies the bracket policy. Must be called with s.mu held.
func (s *bracketSampler) admit(seq uint64, score int) bool {
	m := s.moduli[len(s.moduli)-1]
	for i, threshold := range s.thresholds {
		if score < threshold {
			m = s.moduli[i]
			break
		}
	}
	if m <= 1 {
		return true
	}
	return seq%uint64(m) == 0
}

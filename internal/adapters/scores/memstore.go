package scores

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// record is one player's best run.
type record struct {
	player string
	score  int
	runs   int
	seq    uint64 // insertion order, breaks score ties (earlier run wins)
}

// MemStore implements Store with a mutex-guarded map. The table is tiny (one
// row per local player handle) so ranking resorts on read.
type MemStore struct {
	mu      sync.RWMutex
	records map[string]*record
	nextSeq uint64
}

// NewMemStore creates an empty in-memory high-score store.
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[string]*record)}
}

func (s *MemStore) RecordRun(_ context.Context, player string, score int) (bool, error) {
	player = strings.TrimSpace(player)
	if player == "" {
		return false, ErrNoPlayer
	}
	if score < 0 {
		score = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[player]
	if !ok {
		s.nextSeq++
		s.records[player] = &record{player: player, score: score, runs: 1, seq: s.nextSeq}
		return true, nil
	}
	r.runs++
	if score > r.score {
		r.score = score
		return true, nil
	}
	return false, nil
}

func (s *MemStore) Rank(_ context.Context, player string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[strings.TrimSpace(player)]
	if !ok {
		return Entry{}, ErrNotFound
	}
	rank := 1
	for _, other := range s.records {
		if other.score > r.score || (other.score == r.score && other.seq < r.seq) {
			rank++
		}
	}
	return Entry{Rank: rank, Player: r.player, Score: r.score, Runs: r.runs}, nil
}

func (s *MemStore) TopN(_ context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ordered := make([]*record, 0, len(s.records))
	for _, r := range s.records {
		ordered = append(ordered, r)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].score != ordered[j].score {
			return ordered[i].score > ordered[j].score
		}
		return ordered[i].seq < ordered[j].seq
	})

	if n > len(ordered) {
		n = len(ordered)
	}
	entries := make([]Entry, n)
	for i := 0; i < n; i++ {
		entries[i] = Entry{Rank: i + 1, Player: ordered[i].player, Score: ordered[i].score, Runs: ordered[i].runs}
	}
	return entries, nil
}

func (s *MemStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

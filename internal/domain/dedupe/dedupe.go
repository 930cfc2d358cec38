// Package dedupe defines the interface for idempotency tracking.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen event keys to ensure at-most-once gameplay effects.
// The transport may redeliver the same logical transfer from any call site,
// so the check-and-insert must be atomic.
type Deduper interface {
	// SeenAndRecord atomically checks whether key was seen and records it if
	// not. Returns true if key was already seen, false if newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// Reset clears all recorded keys. Called on session start so a transfer
	// from a previous session is accepted as new again.
	Reset(ctx context.Context)

	Size() int64
}

// inMemoryDeduper implements Deduper with a map plus an insertion-order ring
// for bounded eviction. Sessions are short-lived so the default is unbounded;
// bounded mode guards long idle sessions against a runaway feed.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string // insertion order, used only in bounded mode
	maxSize int      // 0 or negative means unbounded
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		seen: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[key]; exists {
		return true
	}

	if d.maxSize > 0 {
		if len(d.seen) >= d.maxSize {
			// Evict the oldest key to stay within bounds.
			oldest := d.order[0]
			d.order = d.order[1:]
			delete(d.seen, oldest)
			d.size.Add(-1)
		}
		d.order = append(d.order, key)
	}

	d.seen[key] = struct{}{}
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Reset(_ context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seen = make(map[string]struct{})
	d.order = nil
	d.size.Store(0)
}

// Size returns the current number of recorded keys.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}

// Package lifecycle owns the set of in-flight tokens.
package lifecycle

import (
	"time"

	"github.com/okian/tokenrain/pkg/logger"
	"github.com/okian/tokenrain/pkg/sched"
)

// Option applies a configuration option to the manager.
type Option func(*manager)

// WithScheduler sets the timer scheduler. Tests inject sched.NewManual().
func WithScheduler(s sched.Scheduler) Option {
	return func(m *manager) {
		if s != nil {
			m.scheduler = s
		}
	}
}

// WithMissTimeout sets the miss deadline duration.
func WithMissTimeout(d time.Duration) Option {
	return func(m *manager) {
		if d > 0 {
			m.missTimeout = d
		}
	}
}

// WithTimeoutHandler sets the callback invoked when a miss deadline fires.
func WithTimeoutHandler(h TimeoutHandler) Option {
	return func(m *manager) {
		if h != nil {
			m.onTimeout = h
		}
	}
}

// WithPositioner sets the presentational position source.
func WithPositioner(p Positioner) Option {
	return func(m *manager) {
		if p != nil {
			m.position = p
		}
	}
}

// WithViewport sets the extents used by the default random positioner.
func WithViewport(width, height float64) Option {
	return func(m *manager) {
		if width > 0 && height > 0 {
			m.position = randomPositioner(width, height)
		}
	}
}

// WithLogger sets a custom logger for the manager.
func WithLogger(l logger.Logger) Option {
	return func(m *manager) {
		if l != nil {
			m.log = l
		}
	}
}

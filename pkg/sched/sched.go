// Package sched provides a cancellable delayed-callback primitive. The
// production implementation wraps time.AfterFunc; a manually advanced fake
// supports deterministic tests of deadline races.
package sched

import (
	"sync"
	"time"
)

// Timer is a handle to one scheduled callback.
type Timer interface {
	// Stop cancels the callback if it has not fired yet. Returns true if the
	// cancellation prevented the callback from running.
	Stop() bool
}

// Scheduler schedules a callback to run after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// realScheduler implements Scheduler on the runtime timer.
type realScheduler struct{}

// New returns the wall-clock scheduler.
func New() Scheduler {
	return realScheduler{}
}

func (realScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Manual is a Scheduler for tests. Time only moves when Advance is called;
// callbacks run synchronously on the advancing goroutine, mirroring the
// run-to-completion dispatch of the production timer.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	nextID  int
	pending map[int]*manualTimer
}

// NewManual creates a manual scheduler starting at time zero.
func NewManual() *Manual {
	return &Manual{pending: make(map[int]*manualTimer)}
}

type manualTimer struct {
	owner    *Manual
	id       int
	deadline time.Duration
	fn       func()
}

func (t *manualTimer) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()

	if _, ok := t.owner.pending[t.id]; !ok {
		return false
	}
	delete(t.owner.pending, t.id)
	return true
}

// AfterFunc registers fn to run once the manual clock passes d from now.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	t := &manualTimer{owner: m, id: m.nextID, deadline: m.now + d, fn: fn}
	m.pending[t.id] = t
	return t
}

// Advance moves the clock forward and fires every due callback in deadline
// order. Callbacks run without the scheduler lock held, so they may schedule
// or stop other timers.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now += d
	m.mu.Unlock()

	for {
		t := m.popDue()
		if t == nil {
			return
		}
		t.fn()
	}
}

// Pending returns the number of timers not yet fired or stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.pending)
}

func (m *Manual) popDue() *manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()

	var due *manualTimer
	for _, t := range m.pending {
		if t.deadline > m.now {
			continue
		}
		if due == nil || t.deadline < due.deadline || (t.deadline == due.deadline && t.id < due.id) {
			due = t
		}
	}
	if due != nil {
		delete(m.pending, due.id)
	}
	return due
}

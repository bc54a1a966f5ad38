package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Manual is a Scheduler driven by explicit calls to Advance. Callbacks run
// synchronously on the caller's goroutine, which plays the part of the loop.
type Manual struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*manualTimer
}

// NewManual returns a manual scheduler at time zero.
func NewManual() *Manual {
	return &Manual{}
}

type manualTimer struct {
	m        *Manual
	deadline time.Duration
	seq      int
	fn       func()
}

func (t *manualTimer) Stop() bool {
	return t.m.remove(t)
}

// AfterFunc arms fn to run once the clock has advanced by d.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	m.seq++
	t := &manualTimer{m: m, deadline: m.now + d, seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Advance moves the clock forward by d, firing every timer that falls due
// in deadline order. Timers armed by callbacks fire too if they fall inside
// the window.
func (m *Manual) Advance(d time.Duration) {
	end := m.now + d
	for {
		next := m.next()
		if next == nil || next.deadline > end {
			break
		}
		m.remove(next)
		m.now = next.deadline
		next.fn()
	}
	m.now = end
}

// Now returns the elapsed manual time.
func (m *Manual) Now() time.Duration {
	return m.now
}

// Pending returns the number of armed timers.
func (m *Manual) Pending() int {
	return len(m.timers)
}

func (m *Manual) next() *manualTimer {
	if len(m.timers) == 0 {
		return nil
	}
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].deadline != m.timers[j].deadline {
			return m.timers[i].deadline < m.timers[j].deadline
		}
		return m.timers[i].seq < m.timers[j].seq
	})
	return m.timers[0]
}

func (m *Manual) remove(t *manualTimer) bool {
	for i, pending := range m.timers {
		if pending == t {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return true
		}
	}
	return false
}

// Do runs fn at once on the caller's goroutine, standing in for Loop.Do.
// Concurrent calls are serialized.
func (m *Manual) Do(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	fn()
	return nil
}

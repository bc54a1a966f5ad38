// Package scheduler provides the single event loop that serializes every
// request and timer callback in the daemon, plus a manual clock for tests.
package scheduler

import (
	"context"
	"time"
)

// Timer is a pending callback that can be cancelled.
type Timer interface {
	// Stop cancels the timer. It reports whether the call prevented the
	// callback from running.
	Stop() bool
}

// Scheduler arms one-shot timers whose callbacks run on the event loop.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// Executor runs closures on the event loop and arms timers on it. Loop is
// the production executor; Manual stands in for it in tests.
type Executor interface {
	Scheduler
	Do(ctx context.Context, fn func()) error
}

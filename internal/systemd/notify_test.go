package systemd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu     sync.Mutex
	states []string
}

func (r *recorder) notify(_ bool, state string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
	return true, nil
}

func (r *recorder) count(state string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.states {
		if s == state {
			n++
		}
	}
	return n
}

func newTestNotifier(rec *recorder, interval time.Duration, err error) *Notifier {
	return &Notifier{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		notify:   rec.notify,
		watchdog: func(bool) (time.Duration, error) { return interval, err },
	}
}

func TestNotifier_States(t *testing.T) {
	rec := &recorder{}
	n := newTestNotifier(rec, 0, nil)

	n.Ready()
	n.Status("3 patterns loaded")
	n.Stopping()

	want := []string{"READY=1", "STATUS=3 patterns loaded", "STOPPING=1"}
	if len(rec.states) != len(want) {
		t.Fatalf("states = %v, want %v", rec.states, want)
	}
	for i := range want {
		if rec.states[i] != want[i] {
			t.Errorf("states[%d] = %q, want %q", i, rec.states[i], want[i])
		}
	}
}

func TestNotifier_WatchdogDisabled(t *testing.T) {
	for _, tt := range []struct {
		name string
		err  error
	}{
		{"not configured", nil},
		{"invalid", errors.New("bad WATCHDOG_USEC")},
	} {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			n := newTestNotifier(rec, 0, tt.err)
			done := make(chan error, 1)
			go func() {
				done <- n.RunWatchdog(context.Background(), func(context.Context) error { return nil })
			}()
			select {
			case err := <-done:
				if err != nil {
					t.Errorf("RunWatchdog() error = %v", err)
				}
			case <-time.After(time.Second):
				t.Fatal("RunWatchdog did not return without a watchdog")
			}
		})
	}
}

func TestNotifier_WatchdogPings(t *testing.T) {
	rec := &recorder{}
	n := newTestNotifier(rec, 20*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- n.RunWatchdog(ctx, func(context.Context) error { return nil })
	}()

	deadline := time.Now().Add(2 * time.Second)
	for rec.count("WATCHDOG=1") < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("RunWatchdog() error = %v", err)
	}
	if got := rec.count("WATCHDOG=1"); got < 3 {
		t.Errorf("watchdog pings = %d, want at least 3", got)
	}
}

func TestNotifier_WatchdogWithheldOnFailedCheck(t *testing.T) {
	rec := &recorder{}
	n := newTestNotifier(rec, 20*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())

	checks := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- n.RunWatchdog(ctx, func(context.Context) error {
			select {
			case checks <- struct{}{}:
			default:
			}
			return errors.New("loop stuck")
		})
	}()

	for range 3 {
		select {
		case <-checks:
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for health checks")
		}
	}
	cancel()
	<-done
	if got := rec.count("WATCHDOG=1"); got != 0 {
		t.Errorf("watchdog pings = %d, want 0", got)
	}
}

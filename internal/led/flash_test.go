package led

import (
	"testing"
	"time"

	"github.com/smazurov/ledd/internal/priority"
	"github.com/smazurov/ledd/internal/scheduler"
)

func statesOf(writes []SimWrite) []State {
	states := make([]State, len(writes))
	for i, w := range writes {
		states[i] = w.State
	}
	return states
}

func equalStates(a, b []State) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFlash_OneShot(t *testing.T) {
	sim := NewSim(testLogger(), singleLED("status"))
	reg, clock := newTestRegistry(t, sim)

	mustSet(t, reg, SetRequest{
		Name:      "status",
		State:     StateOn,
		Priority:  priority.Normal,
		FlashType: FlashOneShot,
		Duration:  100 * time.Millisecond,
	})
	if got := sim.State("status"); got != StateOff {
		t.Fatalf("state right after one-shot = %v, want %v", got, StateOff)
	}

	clock.Advance(99 * time.Millisecond)
	if got := sim.State("status"); got != StateOff {
		t.Errorf("state at 99ms = %v, want %v", got, StateOff)
	}

	clock.Advance(time.Millisecond)
	if got := sim.State("status"); got != StateOn {
		t.Errorf("state at 100ms = %v, want %v", got, StateOn)
	}

	clock.Advance(5 * time.Second)
	want := []State{StateOff, StateOn}
	if got := statesOf(sim.Writes()); !equalStates(got, want) {
		t.Errorf("writes = %v, want %v", got, want)
	}
	if clock.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", clock.Pending())
	}
	l, _ := reg.Lookup("status")
	if l.Flashing(priority.Normal) {
		t.Error("Flashing() = true after one-shot settled")
	}
}

func TestFlash_OneShotDefaultDuration(t *testing.T) {
	sim := NewSim(testLogger(), singleLED("status"))
	reg, clock := newTestRegistry(t, sim)

	mustSet(t, reg, SetRequest{Name: "status", State: StateOff, Priority: priority.Normal, FlashType: FlashOneShot})
	if got := sim.State("status"); got != StateOn {
		t.Fatalf("state right after one-shot = %v, want %v", got, StateOn)
	}
	clock.Advance(FlashOneShot.Times().On)
	if got := sim.State("status"); got != StateOff {
		t.Errorf("state after one-shot on-time = %v, want %v", got, StateOff)
	}
}

func TestFlash_SlowForeverEmulated(t *testing.T) {
	sim := NewSim(testLogger(), singleLED("status"), WithSimStates(StateOff, StateOn))
	obs := &recordingObserver{}
	clock := scheduler.NewManual()
	reg, err := NewRegistry(sim, Options{Scheduler: clock, Observer: obs, Logger: testLogger()})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	mustSet(t, reg, normal("status", StateSlowFlash))

	cadence := FlashSlow.Times()
	for i := 0; i < 10; i++ {
		clock.Advance(cadence.On)
	}

	want := []State{StateOff, StateOn, StateOff, StateOn, StateOff, StateOn, StateOff, StateOn, StateOff, StateOn, StateOff}
	if got := statesOf(sim.Writes()); !equalStates(got, want) {
		t.Errorf("writes = %v, want %v", got, want)
	}
	if obs.ticks != 10 {
		t.Errorf("ticks = %d, want 10", obs.ticks)
	}
	l, _ := reg.Lookup("status")
	if !l.Flashing(priority.Normal) {
		t.Error("Flashing() = false, want flashing forever")
	}
}

func TestFlash_FastWithTotalDuration(t *testing.T) {
	sim := NewSim(testLogger(), singleLED("status"))
	reg, clock := newTestRegistry(t, sim)

	mustSet(t, reg, SetRequest{
		Name:      "status",
		State:     StateOn,
		Priority:  priority.Normal,
		FlashType: FlashFast,
		Duration:  time.Second,
	})

	clock.Advance(10 * time.Second)

	// 250ms toggles for one second, then settle on the final state.
	want := []State{StateOff, StateOn, StateOff, StateOn, StateOn}
	if got := statesOf(sim.Writes()); !equalStates(got, want) {
		t.Errorf("writes = %v, want %v", got, want)
	}
	if clock.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", clock.Pending())
	}
}

func TestFlash_NoDurationSetsDirectly(t *testing.T) {
	sim := NewSim(testLogger(), singleLED("status"))
	reg, clock := newTestRegistry(t, sim)

	mustSet(t, reg, SetRequest{Name: "status", State: StateOn, Priority: priority.Normal, FlashType: FlashSlow})
	if got := sim.State("status"); got != StateOn {
		t.Errorf("state = %v, want %v", got, StateOn)
	}
	if clock.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", clock.Pending())
	}
}

func TestFlash_NewRequestReplacesFlashing(t *testing.T) {
	sim := NewSim(testLogger(), singleLED("status"), WithSimStates(StateOff, StateOn))
	reg, clock := newTestRegistry(t, sim)

	mustSet(t, reg, normal("status", StateFastFlash))
	mustSet(t, reg, normal("status", StateOn))
	sim.ResetWrites()

	clock.Advance(5 * time.Second)
	if len(sim.Writes()) != 0 {
		t.Errorf("writes after replacing flash = %v, want none", sim.Writes())
	}
	if clock.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", clock.Pending())
	}
}

func TestFlash_ShadowedSlotKeepsTicking(t *testing.T) {
	sim := NewSim(testLogger(), singleLED("status"), WithSimStates(StateOff, StateOn))
	reg, clock := newTestRegistry(t, sim)

	if _, err := reg.Activate("status", priority.Alternate, ""); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	sim.ResetWrites()

	mustSet(t, reg, normal("status", StateSlowFlash))
	clock.Advance(FlashSlow.Times().On)

	if len(sim.Writes()) != 0 {
		t.Errorf("writes from shadowed slot = %v, want none", sim.Writes())
	}
	l, _ := reg.Lookup("status")
	if got := l.StoredState(priority.Normal); got != StateOn {
		t.Errorf("shadowed slot state = %v, want %v", got, StateOn)
	}

	if _, err := reg.Deactivate("status", priority.Alternate, ""); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}
	clock.Advance(FlashSlow.Times().Off)

	want := []State{StateOn, StateOff}
	if got := statesOf(sim.Writes()); !equalStates(got, want) {
		t.Errorf("writes = %v, want %v", got, want)
	}
}

func TestFlash_ActivationCancelsFlashing(t *testing.T) {
	sim := NewSim(testLogger(), singleLED("status"), WithSimStates(StateOff, StateOn))
	reg, clock := newTestRegistry(t, sim)

	mustSet(t, reg, SetRequest{Name: "status", State: StateSlowFlash, Priority: priority.Alternate})
	if _, err := reg.Activate("status", priority.Alternate, ""); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if clock.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", clock.Pending())
	}
}

func TestFlash_ShutdownStopsTimers(t *testing.T) {
	sim := NewSim(testLogger(), WithSimLEDs(Info{Name: "a"}, Info{Name: "b"}), WithSimStates(StateOff, StateOn))
	reg, clock := newTestRegistry(t, sim)

	mustSet(t, reg, normal("all", StateFastFlash))
	if clock.Pending() != 2 {
		t.Fatalf("Pending() = %d, want 2", clock.Pending())
	}
	reg.Shutdown()
	if clock.Pending() != 0 {
		t.Errorf("Pending() after Shutdown = %d, want 0", clock.Pending())
	}
}

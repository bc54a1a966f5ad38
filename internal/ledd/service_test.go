package ledd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/ledd/internal/alias"
	"github.com/smazurov/ledd/internal/config"
	"github.com/smazurov/ledd/internal/events"
	"github.com/smazurov/ledd/internal/led"
	"github.com/smazurov/ledd/internal/pattern"
	"github.com/smazurov/ledd/internal/scheduler"
)

type publisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *publisher) Publish(ev events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *publisher) patternEvents() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, ev := range p.events {
		switch e := ev.(type) {
		case events.PatternStartedEvent:
			out = append(out, "start "+e.Pattern)
		case events.PatternStoppedEvent:
			out = append(out, "stop "+e.Pattern)
		}
	}
	return out
}

type fixture struct {
	sim   *led.Sim
	clock *scheduler.Manual
	bus   *publisher
	svc   *ServiceImpl
}

func beacon() pattern.Pattern {
	return pattern.Pattern{
		Name:   "beacon",
		Repeat: true,
		Steps: []pattern.Step{
			{Delay: 100 * time.Millisecond, LEDs: []pattern.LEDState{{Name: "wan", State: led.StateOn}}},
			{Delay: 100 * time.Millisecond, LEDs: []pattern.LEDState{{Name: "wan", State: led.StateOff}}},
		},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sim := led.NewSim(slog.New(slog.NewTextHandler(io.Discard, nil)), led.WithSimLEDs(
		led.Info{Name: "status", Colour: led.ColourGreen},
		led.Info{Name: "wan", Colour: led.ColourRed},
	))
	clock := scheduler.NewManual()
	bus := &publisher{}
	svc, err := NewService(ServiceOptions{
		Backend:  sim,
		Executor: clock,
		EventBus: bus,
		Definitions: config.Definitions{
			Aliases:  []alias.Definition{{Name: "front", LEDs: []string{"status", "wan"}}},
			Patterns: []pattern.Pattern{beacon()},
		},
	})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return &fixture{sim: sim, clock: clock, bus: bus, svc: svc}
}

func TestNewService_Validation(t *testing.T) {
	sim := led.NewSim(nil)
	if _, err := NewService(ServiceOptions{Executor: scheduler.NewManual()}); err == nil {
		t.Error("NewService() without backend error = nil")
	}
	if _, err := NewService(ServiceOptions{Backend: sim}); err == nil {
		t.Error("NewService() without executor error = nil")
	}
	_, err := NewService(ServiceOptions{
		Backend:  sim,
		Executor: scheduler.NewManual(),
		Definitions: config.Definitions{
			Aliases: []alias.Definition{{Name: "a", LEDs: []string{"1"}}, {Name: "A", LEDs: []string{"2"}}},
		},
	})
	if err == nil {
		t.Error("NewService() with duplicate aliases error = nil")
	}
}

func TestService_SetGetRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	results, err := f.svc.Set(ctx, []SetRequest{{Name: "STATUS", State: "on"}})
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if len(results) != 1 || results[0].Name != "status" || results[0].Err != nil {
		t.Fatalf("Set() = %+v, want one successful record for status", results)
	}
	if results[0].State != "on" {
		t.Errorf("Set() state = %q, want %q", results[0].State, "on")
	}

	got, err := f.svc.Get(ctx, []GetRequest{{Name: "Status"}})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	want := GetResult{Name: "status", State: "on", Priority: "normal"}
	if len(got) != 1 || got[0] != want {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func TestService_SetPerRecordErrors(t *testing.T) {
	f := newFixture(t)

	results, err := f.svc.Set(context.Background(), []SetRequest{
		{Name: "status", State: "on", Priority: "urgent"},
		{Name: "status", State: "purple"},
		{Name: "wan", State: "flash", FlashType: "strobe"},
		{State: "on"},
		{Name: "nope", State: "on"},
		{Name: "wan", State: "ON"},
	})
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	wantErrs := []error{
		led.ErrUnknownPriority,
		ErrInvalidRequest,
		ErrInvalidRequest,
		ErrInvalidRequest,
		led.ErrUnknownLED,
		nil,
	}
	if len(results) != len(wantErrs) {
		t.Fatalf("Set() returned %d records, want %d: %+v", len(results), len(wantErrs), results)
	}
	for i, want := range wantErrs {
		if want == nil {
			if results[i].Err != nil {
				t.Errorf("record %d error = %v, want nil", i, results[i].Err)
			}
			if results[i].State != "on" {
				t.Errorf("record %d state = %q, want %q", i, results[i].State, "on")
			}
			continue
		}
		if !errors.Is(results[i].Err, want) {
			t.Errorf("record %d error = %v, want %v", i, results[i].Err, want)
		}
		if results[i].State != "" {
			t.Errorf("record %d state = %q, want none on failure", i, results[i].State)
		}
	}
	if got := f.sim.State("wan"); got != led.StateOn {
		t.Errorf("wan = %v, want ON", got)
	}
	if got := f.sim.State("status"); got != led.StateOff {
		t.Errorf("status = %v, want OFF", got)
	}
}

func TestService_BackendUnavailable(t *testing.T) {
	f := newFixture(t)
	f.sim.FailOpen(errors.New("device busy"))

	if _, err := f.svc.Set(context.Background(), []SetRequest{{Name: "status", State: "on"}}); !errors.Is(err, led.ErrBackendUnavailable) {
		t.Errorf("Set() error = %v, want ErrBackendUnavailable", err)
	}
	if _, err := f.svc.Get(context.Background(), []GetRequest{{Name: "status"}}); !errors.Is(err, led.ErrBackendUnavailable) {
		t.Errorf("Get() error = %v, want ErrBackendUnavailable", err)
	}
	if _, err := f.svc.Activate(context.Background(), "status", "alternate", ""); !errors.Is(err, led.ErrBackendUnavailable) {
		t.Errorf("Activate() error = %v, want ErrBackendUnavailable", err)
	}
}

func TestService_LockLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Activate(ctx, "front", "locked", "diag")
	if err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if len(res) != 2 || res[0].Err != nil || res[1].Err != nil || res[0].LockID != "diag" {
		t.Fatalf("Activate() = %+v, want two locked records", res)
	}

	got, err := f.svc.Get(ctx, []GetRequest{{Name: "wan"}})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got[0].LockID != "diag" || got[0].Priority != "locked" {
		t.Errorf("Get() = %+v, want locked by diag", got[0])
	}

	res, _ = f.svc.Activate(ctx, "ALL", "locked", "other")
	if len(res) != 1 || res[0].Name != alias.All || !errors.Is(res[0].Err, led.ErrSomeLocked) {
		t.Errorf("Activate(ALL) = %+v, want one ErrSomeLocked record", res)
	}

	res, _ = f.svc.Deactivate(ctx, "wan", "locked", "wrong")
	if len(res) != 1 || !errors.Is(res[0].Err, led.ErrIncorrectLockID) {
		t.Errorf("Deactivate(wrong id) = %+v, want ErrIncorrectLockID", res)
	}

	res, _ = f.svc.Deactivate(ctx, "wan", "locked", "diag")
	if len(res) != 1 || res[0].Err != nil || res[0].LockID != "" {
		t.Errorf("Deactivate() = %+v, want one unlocked record", res)
	}

	var lockEvents []events.LEDLockChangedEvent
	for _, ev := range f.bus.events {
		if e, ok := ev.(events.LEDLockChangedEvent); ok {
			lockEvents = append(lockEvents, e)
		}
	}
	if len(lockEvents) != 3 {
		t.Fatalf("lock events = %+v, want 3", lockEvents)
	}
	if last := lockEvents[2]; last.LED != "wan" || last.Locked {
		t.Errorf("last lock event = %+v, want wan unlocked", last)
	}
}

func TestService_ActivationBadInput(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Activate(context.Background(), "status", "urgent", "")
	if err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if len(res) != 1 || res[0].Name != "status" || !errors.Is(res[0].Err, led.ErrUnknownPriority) {
		t.Errorf("Activate(urgent) = %+v, want ErrUnknownPriority", res)
	}

	res, _ = f.svc.Deactivate(context.Background(), "", "alternate", "")
	if len(res) != 1 || !errors.Is(res[0].Err, ErrInvalidRequest) {
		t.Errorf("Deactivate(no name) = %+v, want ErrInvalidRequest", res)
	}
}

func TestService_StateEvents(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Set(context.Background(), []SetRequest{{Name: "wan", State: "on", Priority: "normal"}}); err != nil {
		t.Fatal(err)
	}

	var found bool
	for _, ev := range f.bus.events {
		if e, ok := ev.(events.LEDStateChangedEvent); ok {
			found = true
			if e.LED != "wan" || e.State != "on" || e.Priority != "normal" || e.Error != "" {
				t.Errorf("event = %+v, want wan on at normal", e)
			}
			if _, err := time.Parse(time.RFC3339, e.Timestamp); err != nil {
				t.Errorf("timestamp %q: %v", e.Timestamp, err)
			}
		}
	}
	if !found {
		t.Error("no LEDStateChangedEvent published")
	}
}

func TestService_List(t *testing.T) {
	f := newFixture(t)

	entries, err := f.svc.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []ListEntry{
		{Name: "status", Colour: "GREEN", Kind: KindLED},
		{Name: "wan", Colour: "RED", Kind: KindLED},
		{Name: "front", Kind: KindAlias},
		{Name: "ALL", Kind: KindAll},
	}
	if len(entries) != len(want) {
		t.Fatalf("List() = %+v, want %+v", entries, want)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("List()[%d] = %+v, want %+v", i, entries[i], want[i])
		}
	}

	states, err := f.svc.SupportedStates(context.Background())
	if err != nil {
		t.Fatalf("SupportedStates() error = %v", err)
	}
	if len(states) != 4 || states[0] != "off" || states[3] != "fast-flash" {
		t.Errorf("SupportedStates() = %v", states)
	}
}

func TestService_Patterns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.svc.PlayPattern(ctx, "missing", false); !errors.Is(err, pattern.ErrPatternNotFound) {
		t.Errorf("PlayPattern(missing) = %v, want ErrPatternNotFound", err)
	}
	if err := f.svc.PlayPattern(ctx, "beacon", false); err != nil {
		t.Fatalf("PlayPattern() error = %v", err)
	}
	if got := f.sim.State("wan"); got != led.StateOn {
		t.Errorf("wan after first step = %v, want ON", got)
	}
	if err := f.svc.PlayPattern(ctx, "Beacon", false); !errors.Is(err, pattern.ErrPatternAlreadyPlaying) {
		t.Errorf("PlayPattern(again) = %v, want ErrPatternAlreadyPlaying", err)
	}
	if err := f.svc.PlayPattern(ctx, "beacon", true); err != nil {
		t.Errorf("PlayPattern(retrigger) = %v, want nil", err)
	}

	f.clock.Advance(100 * time.Millisecond)
	if got := f.sim.State("wan"); got != led.StateOff {
		t.Errorf("wan after second step = %v, want OFF", got)
	}

	playing, err := f.svc.PlayingPatterns(ctx)
	if err != nil || len(playing) != 1 || playing[0] != "beacon" {
		t.Errorf("PlayingPatterns() = %v, %v, want [beacon]", playing, err)
	}
	names, _ := f.svc.Patterns(ctx)
	if len(names) != 1 || names[0] != "beacon" {
		t.Errorf("Patterns() = %v, want [beacon]", names)
	}

	if err := f.svc.StopPattern(ctx, "beacon"); err != nil {
		t.Fatalf("StopPattern() error = %v", err)
	}
	if err := f.svc.StopPattern(ctx, "beacon"); !errors.Is(err, pattern.ErrPatternNotPlaying) {
		t.Errorf("StopPattern(stopped) = %v, want ErrPatternNotPlaying", err)
	}
	if f.clock.Pending() != 0 {
		t.Errorf("pending timers = %d after stop, want 0", f.clock.Pending())
	}

	got := f.bus.patternEvents()
	if len(got) != 2 || got[0] != "start beacon" || got[1] != "stop beacon" {
		t.Errorf("pattern events = %v, want [start beacon, stop beacon]", got)
	}
}

func TestService_Reload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.svc.PlayPattern(ctx, "beacon", false); err != nil {
		t.Fatal(err)
	}

	err := f.svc.Reload(ctx, config.Definitions{
		Aliases:  []alias.Definition{{Name: "uplink", LEDs: []string{"wan"}}},
		Patterns: []pattern.Pattern{{Name: "idle"}},
	})
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	if playing, _ := f.svc.PlayingPatterns(ctx); len(playing) != 0 {
		t.Errorf("PlayingPatterns() = %v, want removed pattern stopped", playing)
	}
	res, _ := f.svc.Set(ctx, []SetRequest{{Name: "uplink", State: "on"}, {Name: "front", State: "on"}})
	if len(res) != 2 || res[0].Name != "wan" || res[0].Err != nil || !errors.Is(res[1].Err, led.ErrUnknownLED) {
		t.Errorf("Set() after reload = %+v, want uplink resolved and front unknown", res)
	}

	var reloads []events.DefinitionsReloadedEvent
	for _, ev := range f.bus.events {
		if e, ok := ev.(events.DefinitionsReloadedEvent); ok {
			reloads = append(reloads, e)
		}
	}
	if len(reloads) != 1 || reloads[0].Patterns != 1 || reloads[0].Aliases != 1 || reloads[0].Error != "" {
		t.Errorf("reload events = %+v", reloads)
	}
}

func TestService_ReloadRejectsBadDefinitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.Reload(ctx, config.Definitions{
		Aliases:  []alias.Definition{{Name: "uplink", LEDs: []string{"wan"}}},
		Patterns: []pattern.Pattern{{Name: "dup"}, {Name: "DUP"}},
	})
	if err == nil {
		t.Fatal("Reload() error = nil, want duplicate pattern error")
	}

	names, _ := f.svc.Patterns(ctx)
	if len(names) != 1 || names[0] != "beacon" {
		t.Errorf("Patterns() = %v, want old definitions kept", names)
	}
	res, _ := f.svc.Set(ctx, []SetRequest{{Name: "front", State: "on"}})
	if len(res) != 2 {
		t.Errorf("Set(front) = %+v, want old alias kept", res)
	}
}

func TestService_ShutdownAndPing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.svc.Ping(ctx); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if err := f.svc.PlayPattern(ctx, "beacon", false); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Set(ctx, []SetRequest{{Name: "status", State: "on", FlashType: "flash_type_slow", Forever: true}}); err != nil {
		t.Fatal(err)
	}
	if f.clock.Pending() == 0 {
		t.Fatal("expected pending timers before shutdown")
	}

	if err := f.svc.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if f.clock.Pending() != 0 {
		t.Errorf("pending timers = %d after shutdown, want 0", f.clock.Pending())
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := f.svc.Ping(cancelled); !errors.Is(err, context.Canceled) {
		t.Errorf("Ping(cancelled) = %v, want context.Canceled", err)
	}
}

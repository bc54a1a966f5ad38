package led

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/smazurov/ledd/internal/alias"
	"github.com/smazurov/ledd/internal/priority"
	"github.com/smazurov/ledd/internal/scheduler"
)

// Observer is told about hardware writes, lock changes and flash ticks.
// It is called on the event loop and must not block.
type Observer interface {
	StateWritten(led string, level priority.Level, state State, err error)
	LockChanged(led, lockID string, locked bool)
	FlashTicked(led string, level priority.Level)
}

// NopObserver ignores every notification.
type NopObserver struct{}

func (NopObserver) StateWritten(string, priority.Level, State, error) {}
func (NopObserver) LockChanged(string, string, bool)                  {}
func (NopObserver) FlashTicked(string, priority.Level)                {}

// Options configures a Registry.
type Options struct {
	Scheduler scheduler.Scheduler
	Aliases   *alias.Resolver
	Observer  Observer
	Logger    *slog.Logger
}

// Registry owns every LED and applies requests to them. It is not safe for
// concurrent use: all calls, and all timer callbacks it arms, must run on
// the same event loop.
type Registry struct {
	backend   Backend
	sched     scheduler.Scheduler
	aliases   *alias.Resolver
	observer  Observer
	logger    *slog.Logger
	leds      map[string]*LED
	order     []*LED
	supported [numStates]bool
}

// NewRegistry enumerates the backend LEDs, reads the supported states and
// seeds each LED from its current hardware state. The backend must already
// be initialised.
func NewRegistry(backend Backend, opts Options) (*Registry, error) {
	if opts.Scheduler == nil {
		return nil, errors.New("registry requires a scheduler")
	}
	if opts.Observer == nil {
		opts.Observer = NopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	r := &Registry{
		backend:  backend,
		sched:    opts.Scheduler,
		aliases:  opts.Aliases,
		observer: opts.Observer,
		logger:   opts.Logger,
		leds:     make(map[string]*LED),
	}

	if err := backend.Open(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	defer r.closeBackend()

	for _, info := range backend.LEDs() {
		key := strings.ToLower(info.Name)
		if _, exists := r.leds[key]; exists {
			r.logger.Warn("Duplicate LED name from backend, ignoring", "led", info.Name)
			continue
		}
		l := newLED(r, info)
		r.leds[key] = l
		r.order = append(r.order, l)
	}

	for _, s := range backend.SupportedStates() {
		if s != StateUnknown && s.valid() {
			r.supported[s] = true
		}
	}

	for _, l := range r.order {
		state, err := backend.GetState(l.name)
		if err != nil {
			r.logger.Warn("Failed to read initial LED state", "led", l.name, "error", err)
			continue
		}
		if state != StateUnknown {
			l.highestSlot().state = state
		}
	}

	r.logger.Info("LED registry ready", "leds", len(r.order), "supported_states", r.SupportedStates())
	return r, nil
}

// Lookup finds a physical LED by name, ignoring case.
func (r *Registry) Lookup(name string) (*LED, bool) {
	l, ok := r.leds[strings.ToLower(name)]
	return l, ok
}

// LEDs returns every LED in backend enumeration order.
func (r *Registry) LEDs() []*LED {
	return append([]*LED(nil), r.order...)
}

// Aliases returns the alias table in use.
func (r *Registry) Aliases() *alias.Resolver {
	return r.aliases
}

// SetAliases replaces the alias table.
func (r *Registry) SetAliases(aliases *alias.Resolver) {
	r.aliases = aliases
}

// Supports reports whether the hardware shows s natively.
func (r *Registry) Supports(s State) bool {
	return s.valid() && r.supported[s]
}

// SupportedStates lists the natively supported states.
func (r *Registry) SupportedStates() []State {
	var states []State
	for s := StateOff; int(s) < numStates; s++ {
		if r.supported[s] {
			states = append(states, s)
		}
	}
	return states
}

// resolve expands a target name into LEDs. ALL is every LED; a physical
// name wins over an alias; alias members missing on this platform are
// skipped.
func (r *Registry) resolve(name string) ([]*LED, error) {
	if alias.IsAll(name) {
		return r.LEDs(), nil
	}
	if l, ok := r.Lookup(name); ok {
		return []*LED{l}, nil
	}
	if members, ok := r.aliases.Lookup(name); ok {
		var leds []*LED
		for _, member := range members {
			if l, found := r.Lookup(member); found {
				leds = append(leds, l)
			}
		}
		return leds, nil
	}
	return nil, ErrUnknownLED
}

func (r *Registry) anyLocked() bool {
	for _, l := range r.order {
		if l.Locked() {
			return true
		}
	}
	return false
}

func (r *Registry) openBackend() error {
	if err := r.backend.Open(); err != nil {
		return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	return nil
}

func (r *Registry) closeBackend() {
	if err := r.backend.Close(); err != nil {
		r.logger.Warn("Failed to close LED backend", "error", err)
	}
}

// Shutdown cancels every flash timer.
func (r *Registry) Shutdown() {
	for _, l := range r.order {
		for i := range l.slots {
			l.slots[i].flash.stop()
		}
	}
}

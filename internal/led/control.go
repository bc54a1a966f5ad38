package led

import (
	"fmt"
	"time"

	"github.com/smazurov/ledd/internal/alias"
	"github.com/smazurov/ledd/internal/priority"
)

// SetRequest asks for a state at one priority on a target (an LED, an
// alias or ALL).
type SetRequest struct {
	Name      string
	State     State
	Priority  priority.Level
	LockID    string
	FlashType FlashType
	// Duration is the one-shot interval, or the total flashing time for
	// slow and fast flashing.
	Duration time.Duration
	Forever  bool
}

// Result is the outcome for one LED.
type Result struct {
	Name string
	Err  error
}

// GetResult is the state of one LED.
type GetResult struct {
	Name     string
	State    State
	LockID   string
	Priority priority.Level
	Err      error
}

// ActivationResult is the outcome of an activate or deactivate for one LED.
type ActivationResult struct {
	Name   string
	LockID string
	Err    error
}

// Get reports the state of each target. Failures are per record; the
// returned error is only set when the backend can't be opened.
func (r *Registry) Get(names ...string) ([]GetResult, error) {
	if err := r.openBackend(); err != nil {
		return nil, err
	}
	defer r.closeBackend()

	var results []GetResult
	for _, name := range names {
		leds, err := r.resolve(name)
		if err != nil {
			results = append(results, GetResult{Name: name, Err: err})
			continue
		}
		for _, l := range leds {
			results = append(results, GetResult{
				Name:     l.name,
				State:    r.currentState(l),
				LockID:   l.lockID,
				Priority: l.Highest(),
			})
		}
	}
	return results, nil
}

// currentState prefers the hardware state, since something outside the
// daemon may have changed the LED.
func (r *Registry) currentState(l *LED) State {
	state, err := r.backend.GetState(l.name)
	if err == nil && state != StateUnknown {
		return state
	}
	return l.highestSlot().state
}

// Set applies each request to every LED it resolves to. Every request
// yields at least one record.
func (r *Registry) Set(reqs ...SetRequest) ([]Result, error) {
	if err := r.openBackend(); err != nil {
		return nil, err
	}
	defer r.closeBackend()

	var results []Result
	for _, req := range reqs {
		leds, err := r.resolve(req.Name)
		if err != nil {
			results = append(results, Result{Name: req.Name, Err: err})
			continue
		}
		// An alias with none of its LEDs on this platform still succeeds.
		if len(leds) == 0 {
			results = append(results, Result{Name: req.Name})
			continue
		}
		for _, l := range leds {
			results = append(results, Result{Name: l.name, Err: r.set(l, req)})
		}
	}
	return results, nil
}

func (r *Registry) set(l *LED, req SetRequest) error {
	level, err := r.slotFor(l, req.Priority, req.LockID)
	if err != nil {
		return err
	}

	fr := flashRequest{
		state:     req.State,
		flashType: req.FlashType,
		duration:  req.Duration,
		forever:   req.Forever,
	}

	// Emulate flashing states the hardware can't show.
	if !r.Supports(fr.state) && fr.flashType == FlashNone {
		fr.flashType = flashTypeFromState(fr.state)
		if fr.flashType == FlashNone {
			return fmt.Errorf("%w: %s", ErrUnsupportedState, req.State.QueryName())
		}
		fr.state = StateOn
		fr.forever = true
	}

	s := &l.slots[level]
	initial := s.flash.start(fr)
	if err := r.setState(l, s, initial); err != nil {
		return fmt.Errorf("%w: %w", ErrBackendWriteFailed, err)
	}
	return nil
}

// slotFor picks the priority a set request updates. A lock ID always
// targets the Locked slot and must match the LED's lock.
func (r *Registry) slotFor(l *LED, p priority.Level, lockID string) (priority.Level, error) {
	if !p.Valid() {
		return 0, ErrUnknownPriority
	}
	if lockID == "" {
		if p == priority.Locked {
			return 0, ErrLockIDMissing
		}
		return p, nil
	}
	if !l.Locked() {
		return 0, ErrNotLocked
	}
	if l.lockID != lockID {
		return 0, ErrIncorrectLockID
	}
	return priority.Locked, nil
}

// setState stores state in the slot and writes it to the hardware when the
// slot owns the LED. Slots that don't own the LED are updated silently.
// The flash timer is re-armed only after a successful store.
func (r *Registry) setState(l *LED, s *slot, state State) error {
	if l.Highest() == s.level {
		err := r.backend.SetState(l.name, state)
		r.observer.StateWritten(l.name, s.level, state, err)
		if err != nil {
			return err
		}
	}
	s.state = state
	s.flash.updateTimer()
	return nil
}

func (r *Registry) activate(l *LED, p priority.Level) {
	highest := l.arbiter.Activate(p)
	s := &l.slots[p]

	// A fresh Locked or Alternate activation starts from a clean Off.
	if p == priority.Locked || p == priority.Alternate || s.state == StateUnknown {
		s.state = StateOff
		s.flash.stop()
	}

	if highest == p {
		if err := r.setState(l, s, s.state); err != nil {
			r.logger.Warn("Failed to apply activated priority", "led", l.name, "priority", p.String(), "error", err)
		}
	}
}

func (r *Registry) deactivate(l *LED, p priority.Level) {
	owned := l.Highest() == p
	newHighest := l.arbiter.Deactivate(p)
	if !owned || !p.Higher(newHighest) {
		return
	}
	s := l.highestSlot()
	if err := r.setState(l, s, s.state); err != nil {
		r.logger.Warn("Failed to restore priority state", "led", l.name, "priority", newHighest.String(), "error", err)
	}
}

// Activate turns on priority p for every LED the target resolves to.
// Activating Locked takes the lock first; locking ALL is refused outright
// when any LED is already locked.
func (r *Registry) Activate(name string, p priority.Level, lockID string) ([]ActivationResult, error) {
	if !p.Valid() {
		return []ActivationResult{{Name: name, Err: ErrUnknownPriority}}, nil
	}
	if p == priority.Locked {
		if lockID == "" {
			return []ActivationResult{{Name: name, Err: ErrLockIDMissing}}, nil
		}
		if alias.IsAll(name) && r.anyLocked() {
			return []ActivationResult{{Name: alias.All, Err: ErrSomeLocked}}, nil
		}
	}

	if err := r.openBackend(); err != nil {
		return nil, err
	}
	defer r.closeBackend()

	leds, err := r.resolve(name)
	if err != nil {
		return []ActivationResult{{Name: name, Err: err}}, nil
	}

	results := make([]ActivationResult, 0, len(leds))
	for _, l := range leds {
		if p == priority.Locked {
			if err := r.lock(l, lockID); err != nil {
				results = append(results, ActivationResult{Name: l.name, LockID: l.lockID, Err: err})
				continue
			}
		}
		r.activate(l, p)
		results = append(results, ActivationResult{Name: l.name, LockID: l.lockID})
	}
	return results, nil
}

// Deactivate turns off priority p for every LED the target resolves to.
// Deactivating Locked releases the lock first and fails if it can't.
func (r *Registry) Deactivate(name string, p priority.Level, lockID string) ([]ActivationResult, error) {
	if !p.Valid() {
		return []ActivationResult{{Name: name, Err: ErrUnknownPriority}}, nil
	}
	if p == priority.Locked && lockID == "" {
		return []ActivationResult{{Name: name, Err: ErrLockIDMissing}}, nil
	}

	if err := r.openBackend(); err != nil {
		return nil, err
	}
	defer r.closeBackend()

	leds, err := r.resolve(name)
	if err != nil {
		return []ActivationResult{{Name: name, Err: err}}, nil
	}

	results := make([]ActivationResult, 0, len(leds))
	for _, l := range leds {
		if p == priority.Locked {
			if err := r.unlock(l, lockID); err != nil {
				results = append(results, ActivationResult{Name: l.name, LockID: l.lockID, Err: err})
				continue
			}
		}
		r.deactivate(l, p)
		results = append(results, ActivationResult{Name: l.name, LockID: l.lockID})
	}
	return results, nil
}

// EntryKind tells LEDs apart from aliases and ALL in a listing.
type EntryKind int

// Listing entry kinds.
const (
	KindLED EntryKind = iota
	KindAlias
	KindAll
)

// ListEntry is one addressable name.
type ListEntry struct {
	Name   string
	Colour Colour
	Kind   EntryKind
}

// List returns the LEDs, then the aliases, then ALL.
func (r *Registry) List() []ListEntry {
	entries := make([]ListEntry, 0, len(r.order)+r.aliases.Len()+1)
	for _, l := range r.order {
		entries = append(entries, ListEntry{Name: l.name, Colour: l.colour, Kind: KindLED})
	}
	for _, name := range r.aliases.Names() {
		entries = append(entries, ListEntry{Name: name, Kind: KindAlias})
	}
	return append(entries, ListEntry{Name: alias.All, Kind: KindAll})
}

package led

import (
	"github.com/smazurov/ledd/internal/priority"
)

// LED is the daemon's view of one physical LED.
type LED struct {
	name    string
	colour  Colour
	arbiter *priority.Arbiter
	slots   [priority.Count]slot
	lockID  string
}

// slot holds what was last requested at one priority.
type slot struct {
	level priority.Level
	state State
	flash flashContext
}

func newLED(r *Registry, info Info) *LED {
	l := &LED{
		name:    info.Name,
		colour:  info.Colour,
		arbiter: priority.NewArbiter(),
	}
	for i := range l.slots {
		s := &l.slots[i]
		s.level = priority.Level(i)
		s.state = StateOff
		s.flash.reg = r
		s.flash.led = l
		s.flash.slot = s
	}
	return l
}

// Name returns the LED name as reported by the backend.
func (l *LED) Name() string { return l.name }

// Colour returns the LED colour.
func (l *LED) Colour() Colour { return l.colour }

// Highest returns the priority currently owning the LED.
func (l *LED) Highest() priority.Level { return l.arbiter.Highest() }

// LockID returns the lock token, or "" when unlocked.
func (l *LED) LockID() string { return l.lockID }

// Locked reports whether a lock token is held.
func (l *LED) Locked() bool { return l.lockID != "" }

// StoredState returns the state last stored at level p.
func (l *LED) StoredState(p priority.Level) State {
	if !p.Valid() {
		return StateUnknown
	}
	return l.slots[p].state
}

// Flashing reports whether the slot at level p has a running flash timer.
func (l *LED) Flashing(p priority.Level) bool {
	if !p.Valid() {
		return false
	}
	return l.slots[p].flash.timer != nil
}

func (l *LED) highestSlot() *slot {
	return &l.slots[l.arbiter.Highest()]
}

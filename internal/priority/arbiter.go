package priority

import "math/bits"

const groupBits = 8

// Arbiter tracks the set of active levels for one LED.
//
// It is a two level bitmap: bit y of groups is set when any level in
// table[y] is active, and bit x of table[y] is set when level y*8+x is
// active. Both lookups are a single find-first-set.
type Arbiter struct {
	groups uint8
	table  [groupBits]uint8
}

// NewArbiter returns an Arbiter with only Normal active.
func NewArbiter() *Arbiter {
	a := &Arbiter{}
	a.set(Normal)
	return a
}

// Activate marks l as active and returns the highest active level.
// Invalid levels are ignored.
func (a *Arbiter) Activate(l Level) Level {
	if l.Valid() {
		a.set(l)
	}
	return a.Highest()
}

// Deactivate clears l and returns the highest active level.
// Normal can never be cleared and invalid levels are ignored.
func (a *Arbiter) Deactivate(l Level) Level {
	if l.Valid() && l != Normal {
		y, x := split(l)
		a.table[y] &^= 1 << x
		if a.table[y] == 0 {
			a.groups &^= 1 << y
		}
	}
	return a.Highest()
}

// IsActive reports whether l is currently active.
func (a *Arbiter) IsActive(l Level) bool {
	if !l.Valid() {
		return false
	}
	y, x := split(l)
	return a.table[y]&(1<<x) != 0
}

// Highest returns the highest (lowest numbered) active level.
func (a *Arbiter) Highest() Level {
	if a.groups == 0 {
		return Normal
	}
	y := bits.TrailingZeros8(a.groups)
	x := bits.TrailingZeros8(a.table[y])
	return Level(y<<3 | x)
}

// Active returns the active levels, highest first.
func (a *Arbiter) Active() []Level {
	var levels []Level
	for _, l := range All() {
		if a.IsActive(l) {
			levels = append(levels, l)
		}
	}
	return levels
}

func (a *Arbiter) set(l Level) {
	y, x := split(l)
	a.table[y] |= 1 << x
	a.groups |= 1 << y
}

func split(l Level) (y, x uint) {
	return uint(l) >> 3, uint(l) & 7
}

// Package priority defines the ordered priority levels used to arbitrate
// control of a single LED, and the Arbiter that tracks which of them are
// active.
package priority

import (
	"errors"
	"strings"
)

// Level is an LED priority. Lower values win.
type Level int

// Priority levels, highest first.
const (
	Critical Level = iota
	Locked
	Alternate
	Normal
)

// Count is the number of defined levels.
const Count = int(Normal) + 1

// MaxLevels is the capacity of the Arbiter bitmap.
const MaxLevels = groupBits * groupBits

// Compile-time guard: fails to build if Count exceeds MaxLevels.
const _ = uint(MaxLevels - Count)

// ErrUnknown is returned when a priority name is not recognised.
var ErrUnknown = errors.New("unknown priority")

var names = [Count]string{
	Critical:  "critical",
	Locked:    "locked",
	Alternate: "alternate",
	Normal:    "normal",
}

// Valid reports whether l is one of the defined levels.
func (l Level) Valid() bool {
	return l >= 0 && int(l) < Count
}

// String returns the level name, or "INVALID" for levels out of range.
func (l Level) String() string {
	if !l.Valid() {
		return "INVALID"
	}
	return names[l]
}

// Higher reports whether l takes precedence over other.
func (l Level) Higher(other Level) bool {
	return l < other
}

// Parse looks up a level by name, ignoring case. An empty name is Normal.
func Parse(name string) (Level, error) {
	if name == "" {
		return Normal, nil
	}
	for i, n := range names {
		if strings.EqualFold(n, name) {
			return Level(i), nil
		}
	}
	return Normal, ErrUnknown
}

// All returns every level, highest first.
func All() []Level {
	levels := make([]Level, Count)
	for i := range levels {
		levels[i] = Level(i)
	}
	return levels
}

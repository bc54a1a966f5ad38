package led

import (
	"strings"
	"time"
)

// State is the logical state of an LED.
type State int

// LED states.
const (
	StateUnknown State = iota
	StateOff
	StateOn
	StateSlowFlash
	StateFastFlash
)

const numStates = int(StateFastFlash) + 1

const invalidName = "INVALID"

var stateNames = [numStates]struct {
	name  string
	query string
}{
	StateUnknown:   {invalidName, invalidName},
	StateOff:       {"OFF", "off"},
	StateOn:        {"ON", "on"},
	StateSlowFlash: {"FLASH", "flash"},
	StateFastFlash: {"FLASH_FAST", "fast-flash"},
}

func (s State) valid() bool {
	return s >= StateUnknown && int(s) < numStates
}

// String returns the list name of the state (OFF, ON, FLASH, FLASH_FAST).
func (s State) String() string {
	if !s.valid() {
		return invalidName
	}
	return stateNames[s].name
}

// QueryName returns the name used in requests and query results
// (off, on, flash, fast-flash).
func (s State) QueryName() string {
	if !s.valid() {
		return invalidName
	}
	return stateNames[s].query
}

// Toggle returns Off for On and On for anything else.
func (s State) Toggle() State {
	if s == StateOn {
		return StateOff
	}
	return StateOn
}

func (s State) opposite() State {
	if s == StateOff {
		return StateOn
	}
	return StateOff
}

// ParseState resolves a query name or list name, ignoring case.
// Unrecognised names yield StateUnknown.
func ParseState(name string) State {
	for i := StateOff; int(i) < numStates; i++ {
		if strings.EqualFold(name, stateNames[i].query) || strings.EqualFold(name, stateNames[i].name) {
			return i
		}
	}
	return StateUnknown
}

// Colour is the colour of a physical LED.
type Colour int

// LED colours.
const (
	ColourUnknown Colour = iota
	ColourRed
	ColourGreen
	ColourBlue
	ColourYellow
)

var colourNames = [...]string{
	ColourUnknown: invalidName,
	ColourRed:     "RED",
	ColourGreen:   "GREEN",
	ColourBlue:    "BLUE",
	ColourYellow:  "YELLOW",
}

func (c Colour) String() string {
	if c < 0 || int(c) >= len(colourNames) {
		return invalidName
	}
	return colourNames[c]
}

// ParseColour resolves a colour name, ignoring case.
func ParseColour(name string) Colour {
	for i, n := range colourNames {
		if i > 0 && strings.EqualFold(n, name) {
			return Colour(i)
		}
	}
	return ColourUnknown
}

// FlashType is a blink cadence emulated by the daemon.
type FlashType int

// Flash types.
const (
	FlashNone FlashType = iota
	FlashOneShot
	FlashSlow
	FlashFast
)

// FlashTimes are the on and off durations of a flash cadence.
type FlashTimes struct {
	On  time.Duration
	Off time.Duration
}

var flashTypes = [...]struct {
	name  string
	times FlashTimes
}{
	FlashNone:    {"none", FlashTimes{}},
	FlashOneShot: {"one_shot", FlashTimes{On: 50 * time.Millisecond}},
	FlashSlow:    {"flash_type_slow", FlashTimes{On: 500 * time.Millisecond, Off: 500 * time.Millisecond}},
	FlashFast:    {"flash_type_fast", FlashTimes{On: 250 * time.Millisecond, Off: 250 * time.Millisecond}},
}

func (f FlashType) valid() bool {
	return f >= 0 && int(f) < len(flashTypes)
}

func (f FlashType) String() string {
	if !f.valid() {
		return flashTypes[FlashNone].name
	}
	return flashTypes[f].name
}

// Times returns the cadence of f. Unknown types behave as FlashNone.
func (f FlashType) Times() FlashTimes {
	if !f.valid() {
		return flashTypes[FlashNone].times
	}
	return flashTypes[f].times
}

// ParseFlashType resolves a flash type name, ignoring case. Unrecognised
// names yield FlashNone.
func ParseFlashType(name string) FlashType {
	for i, ft := range flashTypes {
		if strings.EqualFold(ft.name, name) {
			return FlashType(i)
		}
	}
	return FlashNone
}

func flashTypeFromState(s State) FlashType {
	switch s {
	case StateSlowFlash:
		return FlashSlow
	case StateFastFlash:
		return FlashFast
	default:
		return FlashNone
	}
}

package led

import (
	"testing"
	"time"
)

func TestParseState(t *testing.T) {
	tests := []struct {
		in   string
		want State
	}{
		{"on", StateOn},
		{"ON", StateOn},
		{"off", StateOff},
		{"flash", StateSlowFlash},
		{"FLASH", StateSlowFlash},
		{"fast-flash", StateFastFlash},
		{"FLASH_FAST", StateFastFlash},
		{"blink", StateUnknown},
		{"", StateUnknown},
		{"INVALID", StateUnknown},
	}
	for _, tt := range tests {
		if got := ParseState(tt.in); got != tt.want {
			t.Errorf("ParseState(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestState_Names(t *testing.T) {
	tests := []struct {
		state State
		name  string
		query string
	}{
		{StateOff, "OFF", "off"},
		{StateOn, "ON", "on"},
		{StateSlowFlash, "FLASH", "flash"},
		{StateFastFlash, "FLASH_FAST", "fast-flash"},
		{StateUnknown, "INVALID", "INVALID"},
		{State(42), "INVALID", "INVALID"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.name {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.name)
		}
		if got := tt.state.QueryName(); got != tt.query {
			t.Errorf("State(%d).QueryName() = %q, want %q", tt.state, got, tt.query)
		}
	}
}

func TestState_Toggle(t *testing.T) {
	tests := []struct {
		in, want State
	}{
		{StateOn, StateOff},
		{StateOff, StateOn},
		{StateSlowFlash, StateOn},
		{StateUnknown, StateOn},
	}
	for _, tt := range tests {
		if got := tt.in.Toggle(); got != tt.want {
			t.Errorf("%v.Toggle() = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseColour(t *testing.T) {
	tests := []struct {
		in   string
		want Colour
	}{
		{"red", ColourRed},
		{"GREEN", ColourGreen},
		{"Blue", ColourBlue},
		{"yellow", ColourYellow},
		{"purple", ColourUnknown},
		{"INVALID", ColourUnknown},
	}
	for _, tt := range tests {
		if got := ParseColour(tt.in); got != tt.want {
			t.Errorf("ParseColour(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFlashType(t *testing.T) {
	tests := []struct {
		name string
		ft   FlashType
		on   time.Duration
		off  time.Duration
	}{
		{"none", FlashNone, 0, 0},
		{"one_shot", FlashOneShot, 50 * time.Millisecond, 0},
		{"flash_type_slow", FlashSlow, 500 * time.Millisecond, 500 * time.Millisecond},
		{"flash_type_fast", FlashFast, 250 * time.Millisecond, 250 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseFlashType(tt.name); got != tt.ft {
				t.Errorf("ParseFlashType(%q) = %v, want %v", tt.name, got, tt.ft)
			}
			if got := tt.ft.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
			times := tt.ft.Times()
			if times.On != tt.on || times.Off != tt.off {
				t.Errorf("Times() = %+v, want on=%v off=%v", times, tt.on, tt.off)
			}
		})
	}

	if got := FlashType(99).Times(); got != (FlashTimes{}) {
		t.Errorf("FlashType(99).Times() = %+v, want zero", got)
	}
}

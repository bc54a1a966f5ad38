package led

import "errors"

// Backend abstracts the platform LED hardware.
// Open and Close bracket a batch of state reads and writes.
type Backend interface {
	// Init performs platform-wide setup. Called once before anything else.
	Init() error

	// Deinit releases platform-wide resources.
	Deinit() error

	Open() error
	Close() error

	// LEDs enumerates the physical LEDs.
	LEDs() []Info

	// SupportedStates lists the states the hardware can show natively.
	SupportedStates() []State

	// GetState returns StateUnknown when the hardware can't report a state.
	GetState(name string) (State, error)

	SetState(name string, state State) error
}

// Info describes a physical LED.
type Info struct {
	Name   string
	Colour Colour
}

// ErrNoSuchLED is returned by backends for names they don't manage.
var ErrNoSuchLED = errors.New("no such LED")

package led

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
)

const simLEDCount = 19

// Sim is an in-memory backend. It is used when no LED hardware is present
// and as the hardware double in tests.
type Sim struct {
	mu        sync.Mutex
	leds      []Info
	states    map[string]State
	supported []State
	readable  bool
	failing   map[string]error
	openErr   error
	opened    int
	writes    []SimWrite
	logger    *slog.Logger
}

// SimWrite records one hardware write.
type SimWrite struct {
	Name  string
	State State
}

// SimOption configures a Sim.
type SimOption func(*Sim)

// WithSimLEDs replaces the default LED set.
func WithSimLEDs(leds ...Info) SimOption {
	return func(s *Sim) {
		s.leds = leds
	}
}

// WithSimStates restricts the natively supported states.
func WithSimStates(states ...State) SimOption {
	return func(s *Sim) {
		s.supported = states
	}
}

// WithSimUnreadable makes GetState report StateUnknown.
func WithSimUnreadable() SimOption {
	return func(s *Sim) {
		s.readable = false
	}
}

// NewSim creates a simulator with LEDs "1" to "19" supporting every state.
func NewSim(logger *slog.Logger, opts ...SimOption) *Sim {
	colours := []Colour{ColourRed, ColourGreen, ColourBlue, ColourYellow}
	leds := make([]Info, simLEDCount)
	for i := range leds {
		leds[i] = Info{Name: strconv.Itoa(i + 1), Colour: colours[i%len(colours)]}
	}

	s := &Sim{
		leds:      leds,
		supported: []State{StateOff, StateOn, StateSlowFlash, StateFastFlash},
		readable:  true,
		failing:   make(map[string]error),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.states = make(map[string]State, len(s.leds))
	for _, l := range s.leds {
		s.states[strings.ToLower(l.Name)] = StateOff
	}
	return s
}

func (s *Sim) Init() error   { return nil }
func (s *Sim) Deinit() error { return nil }

func (s *Sim) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return s.openErr
	}
	s.opened++
	return nil
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened--
	return nil
}

func (s *Sim) LEDs() []Info {
	return append([]Info(nil), s.leds...)
}

func (s *Sim) SupportedStates() []State {
	return append([]State(nil), s.supported...)
}

func (s *Sim) GetState(name string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[strings.ToLower(name)]
	if !ok {
		return StateUnknown, fmt.Errorf("%w: %s", ErrNoSuchLED, name)
	}
	if !s.readable {
		return StateUnknown, nil
	}
	return state, nil
}

func (s *Sim) SetState(name string, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(name)
	if _, ok := s.states[key]; !ok {
		return fmt.Errorf("%w: %s", ErrNoSuchLED, name)
	}
	if err := s.failing[key]; err != nil {
		return err
	}
	s.states[key] = state
	s.writes = append(s.writes, SimWrite{Name: name, State: state})
	if s.logger != nil {
		s.logger.Debug("Simulated LED write", "led", name, "state", state.String())
	}
	return nil
}

// State returns the state last written to the named LED.
func (s *Sim) State(name string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[strings.ToLower(name)]
}

// Writes returns a copy of the write log.
func (s *Sim) Writes() []SimWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SimWrite(nil), s.writes...)
}

// ResetWrites clears the write log.
func (s *Sim) ResetWrites() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = nil
}

// Fail makes writes to the named LED return err. A nil err clears it.
func (s *Sim) Fail(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failing, strings.ToLower(name))
		return
	}
	s.failing[strings.ToLower(name)] = err
}

// FailOpen makes Open return err. A nil err clears it.
func (s *Sim) FailOpen(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openErr = err
}

// Force changes the hardware state without recording a write, as another
// process touching the LED would.
func (s *Sim) Force(name string, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[strings.ToLower(name)] = state
}

// OpenCount returns the number of Open calls not yet matched by Close.
func (s *Sim) OpenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened
}

package led

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"go.bug.st/serial"
)

const defaultSerialBaud = 115200

// SerialConfig configures a front panel driven over a serial line.
type SerialConfig struct {
	Device string
	Baud   int
	LEDs   []Info
}

// serialPanel drives a front panel microcontroller that takes one
// "<name> <STATE>\n" line per change. The panel flashes natively but
// can't report state back.
type serialPanel struct {
	cfg    SerialConfig
	open   func() (io.WriteCloser, error)
	mu     sync.Mutex
	port   io.WriteCloser
	known  map[string]struct{}
	logger *slog.Logger
}

func newSerial(cfg SerialConfig, logger *slog.Logger) (*serialPanel, error) {
	if cfg.Device == "" {
		return nil, errors.New("serial backend needs a device")
	}
	if len(cfg.LEDs) == 0 {
		return nil, errors.New("serial backend needs at least one LED")
	}
	if cfg.Baud == 0 {
		cfg.Baud = defaultSerialBaud
	}
	p := &serialPanel{cfg: cfg, logger: logger, known: make(map[string]struct{}, len(cfg.LEDs))}
	p.open = func() (io.WriteCloser, error) {
		port, err := serial.Open(cfg.Device, &serial.Mode{BaudRate: cfg.Baud})
		if err != nil {
			return nil, err
		}
		return port, nil
	}
	for _, l := range cfg.LEDs {
		p.known[strings.ToLower(l.Name)] = struct{}{}
	}
	return p, nil
}

func (p *serialPanel) Init() error {
	port, err := p.open()
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", p.cfg.Device, err)
	}
	p.mu.Lock()
	p.port = port
	p.mu.Unlock()
	p.logger.Info("Serial LED panel opened", "device", p.cfg.Device, "baud", p.cfg.Baud)
	return nil
}

func (p *serialPanel) Deinit() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.port == nil {
		return nil
	}
	err := p.port.Close()
	p.port = nil
	if err != nil {
		return fmt.Errorf("failed to close serial port: %w", err)
	}
	return nil
}

func (p *serialPanel) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.port == nil {
		return errors.New("serial port not open")
	}
	return nil
}

func (p *serialPanel) Close() error { return nil }

func (p *serialPanel) LEDs() []Info {
	return append([]Info(nil), p.cfg.LEDs...)
}

func (p *serialPanel) SupportedStates() []State {
	return []State{StateOff, StateOn, StateSlowFlash, StateFastFlash}
}

func (p *serialPanel) GetState(name string) (State, error) {
	if _, ok := p.known[strings.ToLower(name)]; !ok {
		return StateUnknown, fmt.Errorf("%w: %s", ErrNoSuchLED, name)
	}
	return StateUnknown, nil
}

func (p *serialPanel) SetState(name string, state State) error {
	if _, ok := p.known[strings.ToLower(name)]; !ok {
		return fmt.Errorf("%w: %s", ErrNoSuchLED, name)
	}
	if state == StateUnknown || !state.valid() {
		return fmt.Errorf("%w: %s", ErrUnsupportedState, state)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.port == nil {
		return errors.New("serial port not open")
	}
	if _, err := fmt.Fprintf(p.port, "%s %s\n", name, state); err != nil {
		return fmt.Errorf("failed to write to serial port: %w", err)
	}
	return nil
}

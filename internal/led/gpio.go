//go:build linux

package led

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/warthog618/go-gpiocdev"
)

// gpio drives LEDs wired to GPIO lines through the Linux GPIO character
// device. Lines can only be on or off, so all flashing is emulated.
type gpio struct {
	cfg    GPIOConfig
	chip   *gpiocdev.Chip
	lines  map[string]*gpiocdev.Line
	leds   []Info
	logger *slog.Logger
}

func newGPIO(cfg GPIOConfig, logger *slog.Logger) (Backend, error) {
	if len(cfg.Lines) == 0 {
		return nil, errors.New("gpio backend needs at least one line")
	}
	if cfg.Chip == "" {
		cfg.Chip = defaultGPIOChip
	}
	return &gpio{cfg: cfg, lines: make(map[string]*gpiocdev.Line), logger: logger}, nil
}

// Init requests every configured line as an output, initially off.
func (g *gpio) Init() error {
	chip, err := gpiocdev.NewChip(g.cfg.Chip, gpiocdev.WithConsumer("ledd"))
	if err != nil {
		return fmt.Errorf("open gpio chip: %w", err)
	}
	g.chip = chip

	for _, lc := range g.cfg.Lines {
		opts := []gpiocdev.LineReqOption{gpiocdev.AsOutput(0)}
		if lc.ActiveLow {
			opts = append(opts, gpiocdev.AsActiveLow)
		}
		line, reqErr := chip.RequestLine(lc.Offset, opts...)
		if reqErr != nil {
			_ = g.Deinit()
			return fmt.Errorf("request line %d for %s: %w", lc.Offset, lc.Name, reqErr)
		}
		g.lines[strings.ToLower(lc.Name)] = line
		g.leds = append(g.leds, Info{Name: lc.Name, Colour: lc.Colour})
	}

	g.logger.Info("GPIO LEDs requested", "chip", g.cfg.Chip, "count", len(g.leds))
	return nil
}

// Deinit turns the LEDs off and releases the lines.
func (g *gpio) Deinit() error {
	var errs []error
	for name, line := range g.lines {
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("turn off %s: %w", name, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line %s: %w", name, err))
		}
		delete(g.lines, name)
	}
	if g.chip != nil {
		if err := g.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		g.chip = nil
	}
	return errors.Join(errs...)
}

func (g *gpio) Open() error {
	if g.chip == nil {
		return errors.New("gpio chip not open")
	}
	return nil
}

func (g *gpio) Close() error { return nil }

func (g *gpio) LEDs() []Info {
	return append([]Info(nil), g.leds...)
}

func (g *gpio) SupportedStates() []State {
	return []State{StateOff, StateOn}
}

func (g *gpio) GetState(name string) (State, error) {
	line, ok := g.lines[strings.ToLower(name)]
	if !ok {
		return StateUnknown, fmt.Errorf("%w: %s", ErrNoSuchLED, name)
	}
	v, err := line.Value()
	if err != nil {
		return StateUnknown, fmt.Errorf("read %s: %w", name, err)
	}
	if v == 0 {
		return StateOff, nil
	}
	return StateOn, nil
}

func (g *gpio) SetState(name string, state State) error {
	line, ok := g.lines[strings.ToLower(name)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSuchLED, name)
	}
	var v int
	switch state {
	case StateOn:
		v = 1
	case StateOff:
		v = 0
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedState, state)
	}
	if err := line.SetValue(v); err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	return nil
}

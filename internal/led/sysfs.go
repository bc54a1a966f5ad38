package led

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

const (
	sysfsLEDPath    = "/sys/class/leds"
	defaultLockPath = "/var/lock/leds"
)

// timer trigger delays in milliseconds for each state.
var sysfsDelays = map[State]struct{ on, off int }{
	StateOn:        {1, 0},
	StateOff:       {0, 1},
	StateSlowFlash: {500, 500},
	StateFastFlash: {250, 250},
}

// sysfs drives LEDs through the Linux LED class using the "timer" trigger,
// which lets the kernel do slow and fast flashing natively.
type sysfs struct {
	root    string
	lockDir string
	colours map[string]Colour
	leds    []Info
	logger  *slog.Logger
}

// SysfsConfig configures the sysfs backend.
type SysfsConfig struct {
	// Root defaults to /sys/class/leds.
	Root string
	// LockDir holds one flock file per LED, shared with other tools that
	// write the same LEDs. Defaults to /var/lock/leds.
	LockDir string
	// Colours assigns colours by LED name, since sysfs doesn't expose them.
	Colours map[string]Colour
}

// newSysfs creates a sysfs backend. LEDs are enumerated by Init.
func newSysfs(cfg SysfsConfig, logger *slog.Logger) *sysfs {
	if cfg.Root == "" {
		cfg.Root = sysfsLEDPath
	}
	if cfg.LockDir == "" {
		cfg.LockDir = defaultLockPath
	}
	colours := make(map[string]Colour, len(cfg.Colours))
	for name, c := range cfg.Colours {
		colours[strings.ToLower(name)] = c
	}
	return &sysfs{
		root:    cfg.Root,
		lockDir: cfg.LockDir,
		colours: colours,
		logger:  logger,
	}
}

// Init enumerates the LED class directory.
func (s *sysfs) Init() error {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", s.root, err)
	}

	s.leds = s.leds[:0]
	for _, entry := range entries {
		name := entry.Name()
		if _, statErr := os.Stat(filepath.Join(s.root, name, "brightness")); statErr != nil {
			continue
		}
		s.leds = append(s.leds, Info{Name: name, Colour: s.colourFor(name)})
	}
	sort.Slice(s.leds, func(i, j int) bool { return s.leds[i].Name < s.leds[j].Name })

	s.logger.Info("Enumerated sysfs LEDs", "root", s.root, "count", len(s.leds))
	return nil
}

func (s *sysfs) colourFor(name string) Colour {
	if c, ok := s.colours[strings.ToLower(name)]; ok {
		return c
	}
	// Device tree names often follow <device>:<colour>:<function>.
	parts := strings.FieldsFunc(name, func(r rune) bool { return r == ':' || r == '_' || r == '-' })
	for _, part := range parts {
		if c := ParseColour(part); c != ColourUnknown {
			return c
		}
	}
	return ColourUnknown
}

func (s *sysfs) Deinit() error { return nil }
func (s *sysfs) Open() error   { return nil }
func (s *sysfs) Close() error  { return nil }

func (s *sysfs) LEDs() []Info {
	return append([]Info(nil), s.leds...)
}

func (s *sysfs) SupportedStates() []State {
	return []State{StateOff, StateOn, StateSlowFlash, StateFastFlash}
}

// GetState reads brightness. Any non-zero value reads as On.
func (s *sysfs) GetState(name string) (State, error) {
	data, err := os.ReadFile(filepath.Join(s.root, name, "brightness"))
	if err != nil {
		return StateUnknown, fmt.Errorf("failed to read LED brightness: %w", err)
	}
	brightness, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return StateUnknown, fmt.Errorf("invalid LED brightness %q: %w", data, err)
	}
	if brightness == 0 {
		return StateOff, nil
	}
	return StateOn, nil
}

// SetState selects the timer trigger and programs delay_on/delay_off while
// holding the LED's lock file.
func (s *sysfs) SetState(name string, state State) error {
	delays, ok := sysfsDelays[state]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedState, state)
	}

	ledPath := filepath.Join(s.root, name)
	if _, err := os.Stat(ledPath); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s not found at %s", ErrNoSuchLED, name, ledPath)
	}

	unlock, err := s.lockLED(name)
	if err != nil {
		return err
	}
	defer unlock()

	if err := writeAttr(ledPath, "trigger", "timer"); err != nil {
		return err
	}

	// Writing both delays as 0 makes the kernel blink at its default rate,
	// so for On delay_on goes first and otherwise delay_off does.
	first, second := "delay_off", "delay_on"
	firstVal, secondVal := delays.off, delays.on
	if state == StateOn {
		first, second = second, first
		firstVal, secondVal = secondVal, firstVal
	}
	if err := writeAttr(ledPath, first, strconv.Itoa(firstVal)); err != nil {
		return err
	}
	return writeAttr(ledPath, second, strconv.Itoa(secondVal))
}

func writeAttr(ledPath, attr, value string) error {
	if err := os.WriteFile(filepath.Join(ledPath, attr), []byte(value+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to set LED %s: %w", attr, err)
	}
	return nil
}

// lockLED takes an exclusive flock on the LED's lock file.
func (s *sysfs) lockLED(name string) (func(), error) {
	if err := os.MkdirAll(s.lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(s.lockDir, name), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create lock file for %s: %w", name, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to lock %s: %w", name, err)
	}
	return func() {
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
	}, nil
}

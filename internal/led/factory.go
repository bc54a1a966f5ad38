package led

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const (
	deviceTreeModelPath = "/proc/device-tree/model"
	defaultGPIOChip     = "gpiochip0"
)

// Backend names accepted by New.
const (
	BackendAuto   = "auto"
	BackendSysfs  = "sysfs"
	BackendGPIO   = "gpio"
	BackendSerial = "serial"
	BackendSim    = "sim"
)

// GPIOLine maps a named LED to a line offset on the chip.
type GPIOLine struct {
	Name      string
	Offset    int
	ActiveLow bool
	Colour    Colour
}

// GPIOConfig configures the GPIO backend.
type GPIOConfig struct {
	Chip  string
	Lines []GPIOLine
}

// Config selects and configures a backend.
type Config struct {
	Type   string
	Sysfs  SysfsConfig
	GPIO   GPIOConfig
	Serial SerialConfig
}

// New creates the configured backend. With type "auto" the sysfs LED class
// is used when it exposes any LED and the simulator otherwise.
// The returned backend is not yet initialised.
func New(cfg Config, logger *slog.Logger) (Backend, error) {
	kind := strings.ToLower(cfg.Type)
	if kind == "" {
		kind = BackendAuto
	}

	if kind == BackendAuto {
		board := detectBoard()
		root := cfg.Sysfs.Root
		if root == "" {
			root = sysfsLEDPath
		}
		if hasSysfsLEDs(root) {
			logger.Info("Detected sysfs LEDs, using sysfs backend", "board_model", board, "root", root)
			kind = BackendSysfs
		} else {
			logger.Warn("No LED hardware detected, using simulated LEDs", "board_model", board)
			kind = BackendSim
		}
	}

	switch kind {
	case BackendSysfs:
		return newSysfs(cfg.Sysfs, logger), nil
	case BackendGPIO:
		return newGPIO(cfg.GPIO, logger)
	case BackendSerial:
		return newSerial(cfg.Serial, logger)
	case BackendSim:
		return NewSim(logger), nil
	default:
		return nil, fmt.Errorf("unknown LED backend %q", cfg.Type)
	}
}

// detectBoard reads the device tree model to identify the board.
func detectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}

	// Device tree model contains null bytes, trim them
	return strings.TrimRight(string(data), "\x00")
}

func hasSysfsLEDs(root string) bool {
	entries, err := os.ReadDir(root)
	return err == nil && len(entries) > 0
}

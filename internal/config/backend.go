package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/ledd/internal/led"
)

// backendFile is the [backend] table. The GPIO line map and the serial LED
// list don't fit the flat options, so they are decoded here.
type backendFile struct {
	Backend struct {
		Type  string `toml:"type"`
		Sysfs struct {
			Root    string            `toml:"root"`
			LockDir string            `toml:"lock_dir"`
			Colours map[string]string `toml:"colours"`
		} `toml:"sysfs"`
		GPIO struct {
			Chip  string `toml:"chip"`
			Lines []struct {
				Name      string `toml:"name"`
				Offset    int    `toml:"offset"`
				ActiveLow bool   `toml:"active_low"`
				Colour    string `toml:"colour"`
			} `toml:"lines"`
		} `toml:"gpio"`
		Serial struct {
			Device string `toml:"device"`
			Baud   int    `toml:"baud"`
			LEDs   []struct {
				Name   string `toml:"name"`
				Colour string `toml:"colour"`
			} `toml:"leds"`
		} `toml:"serial"`
	} `toml:"backend"`
}

// LoadBackendConfig reads the [backend] table of the config file. kind, when
// not empty, overrides backend.type so the flag and env settings win. A
// missing file gives the defaults.
func LoadBackendConfig(path, kind string) (led.Config, error) {
	var cfg led.Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			var raw backendFile
			if err := toml.Unmarshal(data, &raw); err != nil {
				return cfg, fmt.Errorf("failed to parse backend config: %w", err)
			}
			cfg = raw.toLED()
		}
	}

	if kind != "" {
		cfg.Type = kind
	}
	return cfg, nil
}

func (f *backendFile) toLED() led.Config {
	b := f.Backend
	cfg := led.Config{
		Type: b.Type,
		Sysfs: led.SysfsConfig{
			Root:    b.Sysfs.Root,
			LockDir: b.Sysfs.LockDir,
		},
		GPIO: led.GPIOConfig{Chip: b.GPIO.Chip},
		Serial: led.SerialConfig{
			Device: b.Serial.Device,
			Baud:   b.Serial.Baud,
		},
	}

	if len(b.Sysfs.Colours) > 0 {
		cfg.Sysfs.Colours = make(map[string]led.Colour, len(b.Sysfs.Colours))
		for name, colour := range b.Sysfs.Colours {
			cfg.Sysfs.Colours[name] = led.ParseColour(colour)
		}
	}
	for _, line := range b.GPIO.Lines {
		cfg.GPIO.Lines = append(cfg.GPIO.Lines, led.GPIOLine{
			Name:      line.Name,
			Offset:    line.Offset,
			ActiveLow: line.ActiveLow,
			Colour:    led.ParseColour(line.Colour),
		})
	}
	for _, l := range b.Serial.LEDs {
		cfg.Serial.LEDs = append(cfg.Serial.LEDs, led.Info{Name: l.Name, Colour: led.ParseColour(l.Colour)})
	}
	return cfg
}

package config

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/smazurov/ledd/internal/led"
)

func TestLoadBackendConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "ledd.toml", `
[backend]
type = "gpio"

[backend.sysfs]
root = "/tmp/leds"
lock_dir = "/tmp/locks"
colours = { "power" = "green", "wan" = "teal" }

[backend.gpio]
chip = "gpiochip2"

[[backend.gpio.lines]]
name = "power"
offset = 17
colour = "green"

[[backend.gpio.lines]]
name = "alarm"
offset = 22
active_low = true
colour = "red"

[backend.serial]
device = "/dev/ttyS1"
baud = 9600

[[backend.serial.leds]]
name = "front"
colour = "blue"
`)

	cfg, err := LoadBackendConfig(path, "")
	if err != nil {
		t.Fatalf("LoadBackendConfig() error = %v", err)
	}

	if cfg.Type != "gpio" {
		t.Errorf("Type = %q, want gpio", cfg.Type)
	}
	if cfg.Sysfs.Root != "/tmp/leds" || cfg.Sysfs.LockDir != "/tmp/locks" {
		t.Errorf("Sysfs = %+v", cfg.Sysfs)
	}
	wantColours := map[string]led.Colour{"power": led.ColourGreen, "wan": led.ColourUnknown}
	if !reflect.DeepEqual(cfg.Sysfs.Colours, wantColours) {
		t.Errorf("Sysfs.Colours = %v, want %v", cfg.Sysfs.Colours, wantColours)
	}

	wantLines := []led.GPIOLine{
		{Name: "power", Offset: 17, Colour: led.ColourGreen},
		{Name: "alarm", Offset: 22, ActiveLow: true, Colour: led.ColourRed},
	}
	if cfg.GPIO.Chip != "gpiochip2" || !reflect.DeepEqual(cfg.GPIO.Lines, wantLines) {
		t.Errorf("GPIO = %+v, want chip gpiochip2 lines %+v", cfg.GPIO, wantLines)
	}

	wantSerial := led.SerialConfig{Device: "/dev/ttyS1", Baud: 9600, LEDs: []led.Info{{Name: "front", Colour: led.ColourBlue}}}
	if !reflect.DeepEqual(cfg.Serial, wantSerial) {
		t.Errorf("Serial = %+v, want %+v", cfg.Serial, wantSerial)
	}
}

func TestLoadBackendConfig_KindOverride(t *testing.T) {
	path := writeFile(t, t.TempDir(), "ledd.toml", "[backend]\ntype = \"sysfs\"\n")

	cfg, err := LoadBackendConfig(path, "sim")
	if err != nil {
		t.Fatalf("LoadBackendConfig() error = %v", err)
	}
	if cfg.Type != "sim" {
		t.Errorf("Type = %q, want sim", cfg.Type)
	}
}

func TestLoadBackendConfig_MissingFile(t *testing.T) {
	cfg, err := LoadBackendConfig(filepath.Join(t.TempDir(), "missing.toml"), "")
	if err != nil {
		t.Fatalf("LoadBackendConfig() error = %v", err)
	}
	if !reflect.DeepEqual(cfg, led.Config{}) {
		t.Errorf("LoadBackendConfig(missing) = %+v, want zero", cfg)
	}
}

func TestLoadBackendConfig_Invalid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "ledd.toml", "[backend]\ntype = 3\n")
	if _, err := LoadBackendConfig(path, ""); err == nil {
		t.Error("LoadBackendConfig() error = nil, want parse error")
	}
}

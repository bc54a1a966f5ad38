package led

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

type bufferPort struct {
	bytes.Buffer
	closed bool
}

func (b *bufferPort) Close() error {
	b.closed = true
	return nil
}

func newTestPanel(t *testing.T) (*serialPanel, *bufferPort) {
	t.Helper()
	p, err := newSerial(SerialConfig{
		Device: "/dev/ttyTEST",
		LEDs:   []Info{{Name: "power", Colour: ColourGreen}, {Name: "wifi", Colour: ColourBlue}},
	}, testLogger())
	if err != nil {
		t.Fatalf("newSerial() error = %v", err)
	}
	port := &bufferPort{}
	p.open = func() (io.WriteCloser, error) { return port, nil }
	return p, port
}

func TestSerial_Config(t *testing.T) {
	tests := []struct {
		name string
		cfg  SerialConfig
	}{
		{"no device", SerialConfig{LEDs: []Info{{Name: "power"}}}},
		{"no leds", SerialConfig{Device: "/dev/ttyS0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := newSerial(tt.cfg, testLogger()); err == nil {
				t.Error("newSerial() succeeded, want error")
			}
		})
	}

	p, err := newSerial(SerialConfig{Device: "/dev/ttyS0", LEDs: []Info{{Name: "power"}}}, testLogger())
	if err != nil {
		t.Fatalf("newSerial() error = %v", err)
	}
	if p.cfg.Baud != defaultSerialBaud {
		t.Errorf("Baud = %d, want %d", p.cfg.Baud, defaultSerialBaud)
	}
}

func TestSerial_WritesLines(t *testing.T) {
	p, port := newTestPanel(t)

	if err := p.Open(); err == nil {
		t.Error("Open() before Init succeeded, want error")
	}
	if err := p.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := p.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if err := p.SetState("power", StateOn); err != nil {
		t.Fatalf("SetState() error = %v", err)
	}
	if err := p.SetState("WIFI", StateFastFlash); err != nil {
		t.Fatalf("SetState() error = %v", err)
	}

	want := "power ON\nWIFI FLASH_FAST\n"
	if got := port.String(); got != want {
		t.Errorf("port output = %q, want %q", got, want)
	}

	if err := p.Deinit(); err != nil {
		t.Fatalf("Deinit() error = %v", err)
	}
	if !port.closed {
		t.Error("port not closed by Deinit")
	}
}

func TestSerial_StateErrors(t *testing.T) {
	p, _ := newTestPanel(t)
	if err := p.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if err := p.SetState("fan", StateOn); !errors.Is(err, ErrNoSuchLED) {
		t.Errorf("SetState(fan) error = %v, want %v", err, ErrNoSuchLED)
	}
	if err := p.SetState("power", StateUnknown); !errors.Is(err, ErrUnsupportedState) {
		t.Errorf("SetState(Unknown) error = %v, want %v", err, ErrUnsupportedState)
	}

	state, err := p.GetState("power")
	if err != nil || state != StateUnknown {
		t.Errorf("GetState() = %v, %v, want %v, nil", state, err, StateUnknown)
	}
	if _, err := p.GetState("fan"); !errors.Is(err, ErrNoSuchLED) {
		t.Errorf("GetState(fan) error = %v, want %v", err, ErrNoSuchLED)
	}
}

func TestSerial_InitFailure(t *testing.T) {
	p, _ := newTestPanel(t)
	p.open = func() (io.WriteCloser, error) { return nil, errors.New("permission denied") }

	if err := p.Init(); err == nil {
		t.Error("Init() succeeded, want error")
	}
}

//go:build !linux

package led

import (
	"errors"
	"log/slog"
)

func newGPIO(_ GPIOConfig, _ *slog.Logger) (Backend, error) {
	return nil, errors.New("gpio backend not supported on this platform (requires Linux)")
}

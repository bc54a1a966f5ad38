package api

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/ledd/internal/led"
	"github.com/smazurov/ledd/internal/pattern"
	"github.com/smazurov/ledd/internal/scheduler"
)

// serviceError maps a service failure onto an HTTP error. Failures that
// leave the daemon unable to act at all are reported as 503.
func serviceError(msg string, err error) error {
	switch {
	case errors.Is(err, pattern.ErrPatternNotFound):
		return huma.Error404NotFound(msg, err)
	case errors.Is(err, pattern.ErrPatternNotPlaying), errors.Is(err, pattern.ErrPatternAlreadyPlaying):
		return huma.Error409Conflict(msg, err)
	case errors.Is(err, led.ErrBackendUnavailable),
		errors.Is(err, scheduler.ErrStopped),
		errors.Is(err, context.DeadlineExceeded):
		return huma.Error503ServiceUnavailable(msg, err)
	default:
		return huma.Error500InternalServerError(msg, err)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

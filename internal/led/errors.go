package led

import "errors"

// Per-target failures reported in result records.
var (
	ErrUnknownPriority    = errors.New("unknown LED priority")
	ErrLockIDMissing      = errors.New("no lock ID supplied")
	ErrAlreadyLocked      = errors.New("LED already locked")
	ErrNotLocked          = errors.New("LED not locked")
	ErrIncorrectLockID    = errors.New("incorrect lock ID")
	ErrSomeLocked         = errors.New("some LEDs are already locked")
	ErrUnknownLED         = errors.New("unknown LED")
	ErrUnsupportedState   = errors.New("unsupported LED state")
	ErrResourceExhausted  = errors.New("resource shortage")
	ErrBackendWriteFailed = errors.New("can't set LED state")
)

// ErrBackendUnavailable aborts a whole batch when the backend can't be opened.
var ErrBackendUnavailable = errors.New("LED backend unavailable")

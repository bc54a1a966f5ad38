package ledd

import (
	"errors"
	"time"
)

// ErrInvalidRequest marks a record the daemon could not interpret, such as
// a missing LED name or an unknown state.
var ErrInvalidRequest = errors.New("invalid request")

// GetRequest asks for the state of a target: an LED, an alias or ALL.
type GetRequest struct {
	Name string
}

// GetResult is the state of one physical LED. Name is the request target
// when Err is set.
type GetResult struct {
	Name     string
	State    string
	LockID   string
	Priority string
	Err      error
}

// SetRequest asks for a state at a priority. Priority and FlashType are
// names; an empty Priority means normal and an empty FlashType means none.
type SetRequest struct {
	Name      string
	State     string
	Priority  string
	LockID    string
	FlashType string
	// FlashTime is the one-shot interval, or how long to flash for.
	FlashTime time.Duration
	Forever   bool
}

// Result is the outcome of a set for one LED. State is the requested
// state on success.
type Result struct {
	Name  string
	State string
	Err   error
}

// ActivationResult is the outcome of an activate or deactivate for one LED.
type ActivationResult struct {
	Name   string
	LockID string
	Err    error
}

// Entry kinds in a listing.
const (
	KindLED   = "led"
	KindAlias = "alias"
	KindAll   = "all"
)

// ListEntry is one addressable name. Colour is empty for aliases and ALL.
type ListEntry struct {
	Name   string
	Colour string
	Kind   string
}

package events

// Event type constants for kelindar/event.
const (
	TypeLEDStateChanged uint32 = iota + 1
	TypeLEDLockChanged
	TypePatternStarted
	TypePatternStopped
	TypeDefinitionsReloaded
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// LEDStateChangedEvent is published after every hardware write.
type LEDStateChangedEvent struct {
	LED       string `json:"led" example:"status" doc:"Physical LED name"`
	State     string `json:"state" example:"on" doc:"State written: off, on, flash or fast-flash"`
	Priority  string `json:"priority" example:"NORMAL" doc:"Priority that owns the LED"`
	Error     string `json:"error,omitempty" example:"can't set LED state" doc:"Write failure, if any"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for LEDStateChangedEvent.
func (e LEDStateChangedEvent) Type() uint32 { return TypeLEDStateChanged }

// LEDLockChangedEvent is published when an LED is locked or unlocked.
type LEDLockChangedEvent struct {
	LED       string `json:"led" example:"status" doc:"Physical LED name"`
	LockID    string `json:"lock_id" example:"diagnostics" doc:"Lock token"`
	Locked    bool   `json:"locked" example:"true" doc:"Whether the LED is now locked"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for LEDLockChangedEvent.
func (e LEDLockChangedEvent) Type() uint32 { return TypeLEDLockChanged }

// PatternStartedEvent is published when a pattern starts playing.
type PatternStartedEvent struct {
	Pattern   string `json:"pattern" example:"beacon" doc:"Pattern name"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PatternStartedEvent.
func (e PatternStartedEvent) Type() uint32 { return TypePatternStarted }

// PatternStoppedEvent is published when a pattern stops, whether it ran to
// completion, was stopped or was displaced by another pattern.
type PatternStoppedEvent struct {
	Pattern   string `json:"pattern" example:"beacon" doc:"Pattern name"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PatternStoppedEvent.
func (e PatternStoppedEvent) Type() uint32 { return TypePatternStopped }

// DefinitionsReloadedEvent is published after pattern and alias files are
// reloaded.
type DefinitionsReloadedEvent struct {
	Patterns  int    `json:"patterns" example:"12" doc:"Number of patterns loaded"`
	Aliases   int    `json:"aliases" example:"3" doc:"Number of aliases loaded"`
	Error     string `json:"error,omitempty" doc:"Reload failure, if any"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for DefinitionsReloadedEvent.
func (e DefinitionsReloadedEvent) Type() uint32 { return TypeDefinitionsReloaded }

// LogEntryEvent carries one log line to the log stream.
type LogEntryEvent struct {
	Timestamp  string         `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"led" doc:"Module that logged"`
	Message    string         `json:"message" example:"LED registry ready" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }

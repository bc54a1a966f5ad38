package ledd

import (
	"time"

	"github.com/smazurov/ledd/internal/events"
	"github.com/smazurov/ledd/internal/led"
	"github.com/smazurov/ledd/internal/metrics"
	"github.com/smazurov/ledd/internal/priority"
)

// EventPublisher receives daemon events. *events.Bus implements it.
type EventPublisher interface {
	Publish(ev events.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(events.Event) {}

// observer turns registry and pattern engine notifications into events and
// metrics. Both call it on the event loop; the bus dispatches
// asynchronously so nothing here blocks.
type observer struct {
	bus EventPublisher
}

func timestamp() string {
	return time.Now().Format(time.RFC3339)
}

func (o *observer) StateWritten(name string, level priority.Level, state led.State, err error) {
	metrics.RecordBackendWrite(name, int(level), err)

	ev := events.LEDStateChangedEvent{
		LED:       name,
		State:     state.QueryName(),
		Priority:  level.String(),
		Timestamp: timestamp(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	o.bus.Publish(ev)
}

func (o *observer) LockChanged(name, lockID string, locked bool) {
	metrics.SetLEDLocked(name, locked)
	o.bus.Publish(events.LEDLockChangedEvent{
		LED:       name,
		LockID:    lockID,
		Locked:    locked,
		Timestamp: timestamp(),
	})
}

func (o *observer) FlashTicked(name string, _ priority.Level) {
	metrics.RecordFlashTick(name)
}

func (o *observer) PatternStarted(name string) {
	metrics.RecordPatternStarted(name)
	o.bus.Publish(events.PatternStartedEvent{Pattern: name, Timestamp: timestamp()})
}

func (o *observer) PatternStopped(name string) {
	metrics.RecordPatternStopped(name)
	o.bus.Publish(events.PatternStoppedEvent{Pattern: name, Timestamp: timestamp()})
}

// Package pattern plays named, timed multi-LED sequences on top of the LED
// registry.
package pattern

import (
	"time"

	"github.com/smazurov/ledd/internal/led"
	"github.com/smazurov/ledd/internal/priority"
)

// LEDState is one LED entry of a step. State may be led.StateUnknown, in
// which case the entry only activates or deactivates its priority.
type LEDState struct {
	Name        string
	State       led.State
	Priority    priority.Level
	HasPriority bool
}

// level is the priority the entry is applied at.
func (s LEDState) level() priority.Level {
	if s.HasPriority {
		return s.Priority
	}
	return priority.Normal
}

// Step sets a group of LEDs and then waits Delay before the next step.
type Step struct {
	Delay time.Duration
	LEDs  []LEDState
}

func (s *Step) empty() bool {
	return s == nil || len(s.LEDs) == 0
}

// Pattern is a named sequence of steps, optionally bracketed by a start
// step that activates priorities and an end step that releases them.
type Pattern struct {
	Name   string
	Repeat bool
	// PlayCount limits the number of passes. Zero plays forever; it is
	// ignored when Repeat is set.
	PlayCount int
	Steps     []Step
	Start     *Step
	End       *Step
}

// allSteps returns every step of p including start and end.
func (p *Pattern) allSteps() []*Step {
	steps := make([]*Step, 0, len(p.Steps)+2)
	if !p.Start.empty() {
		steps = append(steps, p.Start)
	}
	if !p.End.empty() {
		steps = append(steps, p.End)
	}
	for i := range p.Steps {
		steps = append(steps, &p.Steps[i])
	}
	return steps
}

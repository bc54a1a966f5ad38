package led

import (
	"time"

	"github.com/smazurov/ledd/internal/scheduler"
)

// flashContext emulates blinking for one priority slot by toggling the
// slot state each time its timer fires.
type flashContext struct {
	reg  *Registry
	led  *LED
	slot *slot

	flashType FlashType
	times     FlashTimes
	remaining time.Duration
	forever   bool
	final     State
	current   time.Duration
	timer     scheduler.Timer
}

// flashRequest is the part of a set request that drives flashing.
type flashRequest struct {
	state     State
	flashType FlashType
	duration  time.Duration
	forever   bool
}

// start resets the context for a new request and returns the state the LED
// should show first.
func (f *flashContext) start(req flashRequest) State {
	f.flashType = req.flashType
	f.times = req.flashType.Times()
	f.final = req.state
	if f.final == StateUnknown {
		f.final = StateOn
	}

	var initial State
	switch {
	case req.flashType == FlashOneShot:
		initial = f.final.opposite()
		f.current = req.duration
		if f.current <= 0 {
			f.current = f.times.On
		}
	case f.times.On > 0 && (req.forever || req.duration > 0):
		initial = f.final.opposite()
		f.current = f.times.On
	default:
		f.current = 0
		initial = req.state
	}

	f.remaining = req.duration
	f.forever = req.forever
	return initial
}

// stop ends flashing and cancels the timer.
func (f *flashContext) stop() {
	f.flashType = FlashNone
	f.final = StateUnknown
	f.current = 0
	f.updateTimer()
}

// updateTimer arms the timer for the current countdown, or cancels it when
// the countdown is zero.
func (f *flashContext) updateTimer() {
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	if f.current > 0 {
		f.timer = f.reg.sched.AfterFunc(f.current, f.tick)
	}
}

func (f *flashContext) tick() {
	f.timer = nil

	if !f.forever {
		if f.current >= f.remaining {
			f.remaining = 0
		} else if f.current > 0 {
			f.remaining -= f.current
		}
	}

	var next State
	if !f.forever && f.remaining == 0 {
		next = f.final
		f.stop()
	} else {
		next = f.slot.state.Toggle()
		if next == StateOn {
			f.current = f.times.On
		} else {
			f.current = f.times.Off
		}
	}

	f.reg.observer.FlashTicked(f.led.name, f.slot.level)

	if err := f.reg.backend.Open(); err != nil {
		f.reg.logger.Warn("Failed to open LED backend for flash update", "led", f.led.name, "error", err)
		return
	}
	if err := f.reg.setState(f.led, f.slot, next); err != nil {
		f.reg.logger.Debug("Flash update failed", "led", f.led.name, "priority", f.slot.level.String(), "error", err)
	}
	if err := f.reg.backend.Close(); err != nil {
		f.reg.logger.Warn("Failed to close LED backend", "error", err)
	}
}

package pattern

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/smazurov/ledd/internal/led"
	"github.com/smazurov/ledd/internal/scheduler"
)

var (
	ErrPatternNotFound       = errors.New("pattern not found")
	ErrPatternNotPlaying     = errors.New("pattern not playing")
	ErrPatternAlreadyPlaying = errors.New("pattern already playing")
)

// Observer is told when patterns start and stop. It is called on the event
// loop and must not block.
type Observer interface {
	PatternStarted(name string)
	PatternStopped(name string)
}

type nopObserver struct{}

func (nopObserver) PatternStarted(string) {}
func (nopObserver) PatternStopped(string) {}

// Options configures an Engine.
type Options struct {
	Scheduler scheduler.Scheduler
	Observer  Observer
	Logger    *slog.Logger
}

// Engine plays patterns through a registry. Like the registry it must only
// be used from the event loop.
type Engine struct {
	reg      *led.Registry
	sched    scheduler.Scheduler
	observer Observer
	logger   *slog.Logger
	patterns map[string]*Pattern
	playing  map[string]*instance
}

// instance is a pattern that is currently playing.
type instance struct {
	pattern     *Pattern
	next        int
	timesPlayed int
	timer       scheduler.Timer
}

// NewEngine creates an engine with the given pattern definitions. Duplicate
// names are rejected.
func NewEngine(reg *led.Registry, patterns []Pattern, opts Options) (*Engine, error) {
	if opts.Scheduler == nil {
		return nil, errors.New("pattern engine requires a scheduler")
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	e := &Engine{
		reg:      reg,
		sched:    opts.Scheduler,
		observer: opts.Observer,
		logger:   opts.Logger,
		playing:  make(map[string]*instance),
	}
	if err := e.SetPatterns(patterns); err != nil {
		return nil, err
	}
	return e, nil
}

// SetPatterns replaces the known definitions. Playing patterns that are no
// longer defined are stopped first; the others keep the definition they
// started with until they end.
func (e *Engine) SetPatterns(patterns []Pattern) error {
	defs := make(map[string]*Pattern, len(patterns))
	for i := range patterns {
		p := patterns[i]
		if p.Name == "" {
			return errors.New("pattern with no name")
		}
		key := strings.ToLower(p.Name)
		if _, exists := defs[key]; exists {
			return fmt.Errorf("duplicate pattern %q", p.Name)
		}
		defs[key] = &p
	}

	for key, inst := range e.playing {
		if _, ok := defs[key]; !ok {
			e.logger.Info("Stopping pattern removed from definitions", "pattern", inst.pattern.Name)
			e.stop(inst)
		}
	}
	e.patterns = defs
	return nil
}

// Play starts the named pattern. A pattern that is already playing fails
// unless retrigger is set, in which case it gets one more full pass from
// wherever it currently is. Playing patterns that drive any of the same LEDs
// at the same priority are stopped first.
func (e *Engine) Play(name string, retrigger bool) error {
	p, ok := e.patterns[strings.ToLower(name)]
	if !ok {
		return ErrPatternNotFound
	}

	if inst, playing := e.playing[strings.ToLower(name)]; playing {
		if !retrigger {
			return ErrPatternAlreadyPlaying
		}
		inst.timesPlayed = 0
		e.logger.Debug("Retriggered pattern", "pattern", p.Name)
		return nil
	}

	for _, other := range e.playingInstances() {
		if e.sharesLEDs(other.pattern, p) {
			e.logger.Info("Stopping pattern sharing LEDs", "pattern", other.pattern.Name, "new_pattern", p.Name)
			e.stop(other)
		}
	}

	inst := &instance{pattern: p, timesPlayed: 1}
	e.playing[strings.ToLower(p.Name)] = inst
	e.logger.Info("Start pattern", "pattern", p.Name)
	e.observer.PatternStarted(p.Name)
	e.start(inst)
	return nil
}

// Stop stops the named pattern, applying its end step.
func (e *Engine) Stop(name string) error {
	if _, ok := e.patterns[strings.ToLower(name)]; !ok {
		return ErrPatternNotFound
	}
	inst, ok := e.playing[strings.ToLower(name)]
	if !ok {
		return ErrPatternNotPlaying
	}
	e.stop(inst)
	return nil
}

// StopAll stops every playing pattern.
func (e *Engine) StopAll() {
	for _, inst := range e.playingInstances() {
		e.stop(inst)
	}
}

// List returns the names of every known pattern, sorted.
func (e *Engine) List() []string {
	names := make([]string, 0, len(e.patterns))
	for _, p := range e.patterns {
		names = append(names, p.Name)
	}
	sortNames(names)
	return names
}

// Playing returns the names of the playing patterns, sorted.
func (e *Engine) Playing() []string {
	insts := e.playingInstances()
	names := make([]string, len(insts))
	for i, inst := range insts {
		names[i] = inst.pattern.Name
	}
	return names
}

// IsPlaying reports whether the named pattern is playing.
func (e *Engine) IsPlaying(name string) bool {
	_, ok := e.playing[strings.ToLower(name)]
	return ok
}

func (e *Engine) playingInstances() []*instance {
	insts := make([]*instance, 0, len(e.playing))
	for _, inst := range e.playing {
		insts = append(insts, inst)
	}
	sort.Slice(insts, func(i, j int) bool {
		return strings.ToLower(insts[i].pattern.Name) < strings.ToLower(insts[j].pattern.Name)
	})
	return insts
}

func sortNames(names []string) {
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
}

func (e *Engine) start(inst *instance) {
	if start := inst.pattern.Start; !start.empty() {
		e.apply(start, true, false)
		if start.Delay > 0 {
			inst.timer = e.sched.AfterFunc(start.Delay, func() { e.tick(inst) })
			return
		}
	}
	e.playStep(inst)
}

func (e *Engine) playStep(inst *instance) {
	p := inst.pattern
	if len(p.Steps) == 0 {
		e.stop(inst)
		return
	}

	step := &p.Steps[inst.next]
	inst.next++
	e.apply(step, false, false)

	if step.Delay > 0 {
		inst.timer = e.sched.AfterFunc(step.Delay, func() { e.tick(inst) })
		return
	}
	e.stop(inst)
}

func (e *Engine) tick(inst *instance) {
	inst.timer = nil
	p := inst.pattern

	if inst.next >= len(p.Steps) {
		inst.next = 0
		inst.timesPlayed++
	}

	if p.Repeat || p.PlayCount == 0 || inst.timesPlayed <= p.PlayCount {
		e.playStep(inst)
		return
	}
	e.stop(inst)
}

func (e *Engine) stop(inst *instance) {
	key := strings.ToLower(inst.pattern.Name)
	if e.playing[key] != inst {
		return
	}

	e.logger.Info("Stop pattern", "pattern", inst.pattern.Name)
	if end := inst.pattern.End; !end.empty() {
		e.apply(end, false, true)
	}
	if inst.timer != nil {
		inst.timer.Stop()
		inst.timer = nil
	}
	delete(e.playing, key)
	e.observer.PatternStopped(inst.pattern.Name)
}

// apply writes the states of a step. The start step activates declared
// priorities before writing and the end step deactivates them after.
func (e *Engine) apply(step *Step, starting, stopping bool) {
	for _, entry := range step.LEDs {
		level := entry.level()

		if starting && entry.HasPriority {
			e.logActivation("activate", entry, e.activationErr(e.reg.Activate(entry.Name, level, "")))
		}

		if entry.State != led.StateUnknown {
			results, err := e.reg.Set(led.SetRequest{Name: entry.Name, State: entry.State, Priority: level})
			if err != nil {
				e.logger.Warn("Pattern step failed", "led", entry.Name, "error", err)
			}
			for _, res := range results {
				if res.Err != nil {
					e.logger.Debug("Pattern LED update failed", "led", res.Name, "error", res.Err)
				}
			}
		}

		if stopping && entry.HasPriority {
			e.logActivation("deactivate", entry, e.activationErr(e.reg.Deactivate(entry.Name, level, "")))
		}
	}
}

func (e *Engine) activationErr(results []led.ActivationResult, err error) error {
	if err != nil {
		return err
	}
	var errs []error
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Name, res.Err))
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) logActivation(op string, entry LEDState, err error) {
	if err != nil {
		e.logger.Debug("Pattern priority "+op+" failed", "led", entry.Name, "priority", entry.level().String(), "error", err)
	}
}

// sharesLEDs reports whether any LED entry of a conflicts with any LED
// entry of b.
func (e *Engine) sharesLEDs(a, b *Pattern) bool {
	bSteps := b.allSteps()
	for _, as := range a.allSteps() {
		for _, x := range as.LEDs {
			for _, bs := range bSteps {
				for _, y := range bs.LEDs {
					if e.reg.Overlaps(x.Name, x.level(), y.Name, y.level()) {
						return true
					}
				}
			}
		}
	}
	return false
}

// Package ledd is the caller-facing LED daemon service. Every operation is
// serialized onto the event loop, where the LED registry and the pattern
// engine live.
package ledd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/smazurov/ledd/internal/alias"
	"github.com/smazurov/ledd/internal/config"
	"github.com/smazurov/ledd/internal/events"
	"github.com/smazurov/ledd/internal/led"
	"github.com/smazurov/ledd/internal/logging"
	"github.com/smazurov/ledd/internal/metrics"
	"github.com/smazurov/ledd/internal/pattern"
	"github.com/smazurov/ledd/internal/priority"
	"github.com/smazurov/ledd/internal/scheduler"
)

// Service defines the LED and pattern operations offered to the API, the
// CLI and the MQTT bridge. The returned error is reserved for batch-level
// failures such as a backend that can't be opened or a stopped loop;
// per-target failures are carried in the records.
type Service interface {
	Get(ctx context.Context, reqs []GetRequest) ([]GetResult, error)
	Set(ctx context.Context, reqs []SetRequest) ([]Result, error)
	Activate(ctx context.Context, name, priority, lockID string) ([]ActivationResult, error)
	Deactivate(ctx context.Context, name, priority, lockID string) ([]ActivationResult, error)
	List(ctx context.Context) ([]ListEntry, error)
	SupportedStates(ctx context.Context) ([]string, error)

	PlayPattern(ctx context.Context, name string, retrigger bool) error
	StopPattern(ctx context.Context, name string) error
	Patterns(ctx context.Context) ([]string, error)
	PlayingPatterns(ctx context.Context) ([]string, error)

	// Reload swaps in new alias and pattern definitions.
	Reload(ctx context.Context, defs config.Definitions) error
	// Ping round-trips through the event loop.
	Ping(ctx context.Context) error
	// Shutdown stops every pattern and flash timer.
	Shutdown(ctx context.Context) error
}

// ServiceOptions configures the service.
type ServiceOptions struct {
	// Backend must already be initialised.
	Backend     led.Backend
	Executor    scheduler.Executor
	Definitions config.Definitions
	EventBus    EventPublisher
}

var _ Service = (*ServiceImpl)(nil)

// ServiceImpl implements Service.
type ServiceImpl struct {
	exec     scheduler.Executor
	registry *led.Registry
	engine   *pattern.Engine
	bus      EventPublisher
	logger   *slog.Logger
}

// NewService builds the LED registry and pattern engine over the backend.
func NewService(opts ServiceOptions) (*ServiceImpl, error) {
	if opts.Backend == nil {
		return nil, errors.New("service requires an LED backend")
	}
	if opts.Executor == nil {
		return nil, errors.New("service requires an executor")
	}
	bus := opts.EventBus
	if bus == nil {
		bus = nopPublisher{}
	}

	aliases, err := alias.New(opts.Definitions.Aliases)
	if err != nil {
		return nil, fmt.Errorf("load aliases: %w", err)
	}

	obs := &observer{bus: bus}
	registry, err := led.NewRegistry(opts.Backend, led.Options{
		Scheduler: opts.Executor,
		Aliases:   aliases,
		Observer:  obs,
		Logger:    logging.GetLogger("led"),
	})
	if err != nil {
		return nil, fmt.Errorf("create LED registry: %w", err)
	}

	engine, err := pattern.NewEngine(registry, opts.Definitions.Patterns, pattern.Options{
		Scheduler: opts.Executor,
		Observer:  obs,
		Logger:    logging.GetLogger("pattern"),
	})
	if err != nil {
		return nil, fmt.Errorf("load patterns: %w", err)
	}

	s := &ServiceImpl{
		exec:     opts.Executor,
		registry: registry,
		engine:   engine,
		bus:      bus,
		logger:   logging.GetLogger("ledd"),
	}
	s.logger.Info("LED service ready",
		"leds", len(registry.LEDs()),
		"aliases", aliases.Len(),
		"patterns", len(opts.Definitions.Patterns))
	return s, nil
}

// do runs fn on the event loop.
func (s *ServiceImpl) do(ctx context.Context, fn func()) error {
	if err := s.exec.Do(ctx, fn); err != nil {
		return fmt.Errorf("event loop: %w", err)
	}
	return nil
}

// Get reports the state of each target.
func (s *ServiceImpl) Get(ctx context.Context, reqs []GetRequest) ([]GetResult, error) {
	var results []GetResult
	var batchErr error
	err := s.do(ctx, func() {
		for _, req := range reqs {
			if req.Name == "" {
				results = append(results, GetResult{Err: fmt.Errorf("%w: missing LED name", ErrInvalidRequest)})
				continue
			}
			var got []led.GetResult
			got, batchErr = s.registry.Get(req.Name)
			if batchErr != nil {
				return
			}
			for _, g := range got {
				results = append(results, toGetResult(g))
			}
		}
	})
	if err == nil {
		err = batchErr
	}
	metrics.RecordRequest("get", firstErr(err, results, func(r GetResult) error { return r.Err }))
	if err != nil {
		return nil, err
	}
	return results, nil
}

func toGetResult(g led.GetResult) GetResult {
	if g.Err != nil {
		return GetResult{Name: g.Name, Err: g.Err}
	}
	return GetResult{
		Name:     g.Name,
		State:    g.State.QueryName(),
		LockID:   g.LockID,
		Priority: g.Priority.String(),
	}
}

// Set applies each request to every LED its target resolves to.
func (s *ServiceImpl) Set(ctx context.Context, reqs []SetRequest) ([]Result, error) {
	var results []Result
	var batchErr error
	err := s.do(ctx, func() {
		for _, req := range reqs {
			lr, err := toLEDRequest(req)
			if err != nil {
				results = append(results, Result{Name: req.Name, Err: err})
				continue
			}
			var got []led.Result
			got, batchErr = s.registry.Set(lr)
			if batchErr != nil {
				return
			}
			for _, g := range got {
				res := Result{Name: g.Name, Err: g.Err}
				if g.Err == nil {
					res.State = lr.State.QueryName()
				}
				results = append(results, res)
			}
		}
	})
	if err == nil {
		err = batchErr
	}
	metrics.RecordRequest("set", firstErr(err, results, func(r Result) error { return r.Err }))
	if err != nil {
		return nil, err
	}
	return results, nil
}

func toLEDRequest(req SetRequest) (led.SetRequest, error) {
	if req.Name == "" {
		return led.SetRequest{}, fmt.Errorf("%w: missing LED name", ErrInvalidRequest)
	}
	state := led.ParseState(req.State)
	if state == led.StateUnknown {
		return led.SetRequest{}, fmt.Errorf("%w: unknown state %q", ErrInvalidRequest, req.State)
	}
	level, err := parsePriority(req.Priority)
	if err != nil {
		return led.SetRequest{}, err
	}
	flash := led.FlashNone
	if req.FlashType != "" {
		flash = led.ParseFlashType(req.FlashType)
		if flash == led.FlashNone && !strings.EqualFold(req.FlashType, led.FlashNone.String()) {
			return led.SetRequest{}, fmt.Errorf("%w: unknown flash type %q", ErrInvalidRequest, req.FlashType)
		}
	}
	if req.FlashTime < 0 {
		return led.SetRequest{}, fmt.Errorf("%w: negative flash time", ErrInvalidRequest)
	}
	return led.SetRequest{
		Name:      req.Name,
		State:     state,
		Priority:  level,
		LockID:    req.LockID,
		FlashType: flash,
		Duration:  req.FlashTime,
		Forever:   req.Forever,
	}, nil
}

func parsePriority(name string) (priority.Level, error) {
	level, err := priority.Parse(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", led.ErrUnknownPriority, name)
	}
	return level, nil
}

// Activate turns on a priority for every LED the target resolves to.
func (s *ServiceImpl) Activate(ctx context.Context, name, prio, lockID string) ([]ActivationResult, error) {
	return s.activation(ctx, "activate", name, prio, lockID, s.registry.Activate)
}

// Deactivate turns off a priority for every LED the target resolves to.
func (s *ServiceImpl) Deactivate(ctx context.Context, name, prio, lockID string) ([]ActivationResult, error) {
	return s.activation(ctx, "deactivate", name, prio, lockID, s.registry.Deactivate)
}

type activationFunc func(name string, p priority.Level, lockID string) ([]led.ActivationResult, error)

func (s *ServiceImpl) activation(ctx context.Context, op, name, prio, lockID string, fn activationFunc) ([]ActivationResult, error) {
	var results []ActivationResult
	var batchErr error

	level, perr := parsePriority(prio)
	switch {
	case name == "":
		results = []ActivationResult{{Err: fmt.Errorf("%w: missing LED name", ErrInvalidRequest)}}
	case perr != nil:
		results = []ActivationResult{{Name: name, Err: perr}}
	default:
		err := s.do(ctx, func() {
			var got []led.ActivationResult
			got, batchErr = fn(name, level, lockID)
			for _, g := range got {
				results = append(results, ActivationResult(g))
			}
		})
		if err != nil {
			batchErr = err
		}
	}

	metrics.RecordRequest(op, firstErr(batchErr, results, func(r ActivationResult) error { return r.Err }))
	if batchErr != nil {
		return nil, batchErr
	}
	return results, nil
}

// List returns the LEDs, then the aliases, then ALL.
func (s *ServiceImpl) List(ctx context.Context) ([]ListEntry, error) {
	var entries []ListEntry
	err := s.do(ctx, func() {
		for _, e := range s.registry.List() {
			entry := ListEntry{Name: e.Name}
			switch e.Kind {
			case led.KindLED:
				entry.Kind = KindLED
				entry.Colour = e.Colour.String()
			case led.KindAlias:
				entry.Kind = KindAlias
			case led.KindAll:
				entry.Kind = KindAll
			}
			entries = append(entries, entry)
		}
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// SupportedStates lists the states the hardware shows natively.
func (s *ServiceImpl) SupportedStates(ctx context.Context) ([]string, error) {
	var states []string
	err := s.do(ctx, func() {
		for _, st := range s.registry.SupportedStates() {
			states = append(states, st.QueryName())
		}
	})
	if err != nil {
		return nil, err
	}
	return states, nil
}

// PlayPattern starts a pattern. See pattern.Engine.Play.
func (s *ServiceImpl) PlayPattern(ctx context.Context, name string, retrigger bool) error {
	var playErr error
	if err := s.do(ctx, func() { playErr = s.engine.Play(name, retrigger) }); err != nil {
		playErr = err
	}
	metrics.RecordRequest("play", playErr)
	return playErr
}

// StopPattern stops a playing pattern.
func (s *ServiceImpl) StopPattern(ctx context.Context, name string) error {
	var stopErr error
	if err := s.do(ctx, func() { stopErr = s.engine.Stop(name) }); err != nil {
		stopErr = err
	}
	metrics.RecordRequest("stop", stopErr)
	return stopErr
}

// Patterns returns the sorted names of every known pattern.
func (s *ServiceImpl) Patterns(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.do(ctx, func() { names = s.engine.List() }); err != nil {
		return nil, err
	}
	return names, nil
}

// PlayingPatterns returns the sorted names of the playing patterns.
func (s *ServiceImpl) PlayingPatterns(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.do(ctx, func() { names = s.engine.Playing() }); err != nil {
		return nil, err
	}
	return names, nil
}

// Reload replaces the alias table and the pattern definitions. Invalid
// definitions leave the current ones in place.
func (s *ServiceImpl) Reload(ctx context.Context, defs config.Definitions) error {
	aliases, err := alias.New(defs.Aliases)
	if err != nil {
		err = fmt.Errorf("load aliases: %w", err)
	} else {
		loopErr := s.do(ctx, func() {
			old := s.registry.Aliases()
			s.registry.SetAliases(aliases)
			if perr := s.engine.SetPatterns(defs.Patterns); perr != nil {
				s.registry.SetAliases(old)
				err = fmt.Errorf("load patterns: %w", perr)
			}
		})
		if loopErr != nil {
			err = loopErr
		}
	}

	metrics.RecordReload(err)
	ev := events.DefinitionsReloadedEvent{
		Patterns:  len(defs.Patterns),
		Aliases:   len(defs.Aliases),
		Timestamp: timestamp(),
	}
	if err != nil {
		ev.Error = err.Error()
		s.logger.Error("Failed to reload definitions", "error", err)
	} else {
		s.logger.Info("Definitions reloaded", "patterns", ev.Patterns, "aliases", ev.Aliases)
	}
	s.bus.Publish(ev)
	return err
}

// Ping round-trips through the event loop, so a wedged loop fails it.
func (s *ServiceImpl) Ping(ctx context.Context) error {
	return s.do(ctx, func() {})
}

// Shutdown stops every playing pattern, applying their end steps, and
// cancels all flash timers.
func (s *ServiceImpl) Shutdown(ctx context.Context) error {
	return s.do(ctx, func() {
		s.engine.StopAll()
		s.registry.Shutdown()
	})
}

// firstErr returns batchErr, or else the first record failure.
func firstErr[T any](batchErr error, records []T, errOf func(T) error) error {
	if batchErr != nil {
		return batchErr
	}
	for _, r := range records {
		if err := errOf(r); err != nil {
			return err
		}
	}
	return nil
}

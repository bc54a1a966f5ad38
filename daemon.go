package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/smazurov/ledd/internal/api"
	"github.com/smazurov/ledd/internal/config"
	"github.com/smazurov/ledd/internal/events"
	"github.com/smazurov/ledd/internal/instance"
	"github.com/smazurov/ledd/internal/led"
	"github.com/smazurov/ledd/internal/ledd"
	"github.com/smazurov/ledd/internal/logging"
	"github.com/smazurov/ledd/internal/metrics"
	"github.com/smazurov/ledd/internal/mqtt"
	"github.com/smazurov/ledd/internal/scheduler"
	"github.com/smazurov/ledd/internal/systemd"
)

const (
	reloadTimeout   = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

// runDaemon serves until ctx is cancelled or the API server fails. Teardown
// runs in reverse order of setup, so the event loop outlives every caller
// and the backend outlives the loop.
func runDaemon(ctx context.Context, opts *Options) error {
	logger := logging.GetLogger("main")

	lock, err := instance.Acquire(opts.PidFile)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil {
			logger.Warn("Failed to release instance lock", "error", releaseErr)
		}
	}()

	backendCfg, err := config.LoadBackendConfig(opts.Config, opts.BackendType)
	if err != nil {
		return err
	}
	backend, err := led.New(backendCfg, logging.GetLogger("backend"))
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("init LED backend: %w", err)
	}
	defer func() {
		if deinitErr := backend.Deinit(); deinitErr != nil {
			logger.Warn("Failed to release LED backend", "error", deinitErr)
		}
	}()

	dirs := config.DefinitionDirs{Patterns: opts.PatternsDir, Aliases: opts.AliasesDir}
	configLogger := logging.GetLogger("config")
	defs, err := config.LoadDefinitions(dirs, configLogger)
	if err != nil {
		logger.Warn("Failed to load definitions, starting without patterns and aliases", "error", err)
		defs = config.Definitions{}
	}

	bus := events.New()
	logging.SetLogCallback(func(entry logging.LogEntry) {
		bus.Publish(events.LogEntryEvent{
			Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
			Level:      entry.Level,
			Module:     entry.Module,
			Message:    entry.Message,
			Attributes: entry.Attributes,
		})
	})
	defer logging.SetLogCallback(nil)

	loop := scheduler.NewLoop(logging.GetLogger("loop"))
	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = loop.Run(loopCtx)
	}()
	defer func() {
		stopLoop()
		<-loopDone
	}()

	svc, err := ledd.NewService(ledd.ServiceOptions{
		Backend:     backend,
		Executor:    loop,
		Definitions: defs,
		EventBus:    bus,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownErr := svc.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("Failed to stop patterns", "error", shutdownErr)
		}
	}()

	if opts.ReloadEnabled {
		if stop := startWatcher(opts, dirs, svc); stop != nil {
			defer stop()
		}
	}

	if opts.MqttBroker != "" {
		if stop := startBridge(opts, svc, bus); stop != nil {
			defer stop()
		}
	}

	apiOpts := &api.Options{
		AuthUsername: opts.AuthUsername,
		AuthPassword: opts.AuthPassword,
		Service:      svc,
		EventBus:     bus,
	}
	if opts.MetricsEnabled {
		apiOpts.PrometheusHandler = metrics.Handler()
	}
	server := api.NewServer(apiOpts)
	notifier := systemd.NewNotifier(logging.GetLogger("systemd"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
			return fmt.Errorf("API server: %w", startErr)
		}
		return nil
	})
	g.Go(func() error {
		return notifier.RunWatchdog(gctx, svc.Ping)
	})
	g.Go(func() error {
		<-gctx.Done()
		notifier.Stopping()
		return server.Stop()
	})

	notifier.Ready()
	notifier.Status(fmt.Sprintf("Serving on %s", opts.Port))

	return g.Wait()
}

// startWatcher reloads definitions into svc whenever their files change.
// It returns the stop function, or nil when nothing could be watched.
func startWatcher(opts *Options, dirs config.DefinitionDirs, svc ledd.Service) func() {
	logger := logging.GetLogger("config")

	debounce, err := time.ParseDuration(opts.ReloadDebounce)
	if err != nil {
		logger.Warn("Invalid reload debounce, using default", "value", opts.ReloadDebounce, "error", err)
		debounce = 0
	}

	watcher := config.NewWatcher(
		[]string{dirs.Patterns, dirs.Aliases},
		func() (config.Definitions, error) { return config.LoadDefinitions(dirs, logger) },
		logger,
		config.WithDebounce[config.Definitions](debounce),
	)
	watcher.OnReload(func(defs config.Definitions) {
		ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
		defer cancel()
		if reloadErr := svc.Reload(ctx, defs); reloadErr != nil {
			logger.Error("Failed to apply reloaded definitions", "error", reloadErr)
			return
		}
		logger.Info("Definitions reloaded", "patterns", len(defs.Patterns), "aliases", len(defs.Aliases))
	})

	if err := watcher.Start(); err != nil {
		logger.Warn("Definition reload disabled", "error", err)
		return nil
	}
	return func() {
		if stopErr := watcher.Stop(); stopErr != nil {
			logger.Warn("Failed to stop definition watcher", "error", stopErr)
		}
	}
}

// startBridge connects to the broker and bridges events and pattern
// commands. A broker that can't be reached leaves the daemon running
// without MQTT.
func startBridge(opts *Options, svc ledd.Service, bus *events.Bus) func() {
	logger := logging.GetLogger("mqtt")

	if opts.MqttQos < 0 || opts.MqttQos > 2 {
		logger.Error("MQTT disabled", "error", mqtt.ErrInvalidQoS, "qos", opts.MqttQos)
		return nil
	}
	qos := byte(opts.MqttQos)
	topics := mqtt.NewTopics(opts.MqttPrefix)

	client, err := mqtt.Connect(mqtt.Config{
		Broker:      opts.MqttBroker,
		ClientID:    opts.MqttClientID,
		Username:    opts.MqttUsername,
		Password:    opts.MqttPassword,
		StatusTopic: topics.Status(),
		QoS:         qos,
	}, logger)
	if err != nil {
		logger.Error("MQTT disabled", "broker", opts.MqttBroker, "error", err)
		return nil
	}

	bridge := mqtt.NewBridge(client, svc, mqtt.BridgeOptions{
		Prefix: topics.Prefix,
		QoS:    qos,
		Logger: logger,
	})
	if err := bridge.Start(bus); err != nil {
		logger.Error("MQTT bridge failed to start", "error", err)
		_ = client.Close()
		return nil
	}
	return func() {
		if stopErr := bridge.Stop(); stopErr != nil {
			logger.Warn("Failed to stop MQTT bridge", "error", stopErr)
		}
	}
}

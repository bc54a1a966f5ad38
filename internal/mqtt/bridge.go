package mqtt

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/smazurov/ledd/internal/events"
)

const commandTimeout = 5 * time.Second

// DefaultPrefix is the topic prefix used when none is configured.
const DefaultPrefix = "ledd"

// PatternController is the part of the daemon service driven by MQTT
// commands.
type PatternController interface {
	PlayPattern(ctx context.Context, name string, retrigger bool) error
	StopPattern(ctx context.Context, name string) error
}

// EventSource delivers daemon events. *events.Bus implements it.
type EventSource interface {
	Subscribe(handler any) func()
}

// Topics builds the topic names under a prefix.
type Topics struct {
	Prefix string
}

// NewTopics normalises prefix, dropping a trailing slash and falling back
// to DefaultPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Topics{Prefix: prefix}
}

// LEDState is the retained state topic of an LED.
func (t Topics) LEDState(name string) string { return t.Prefix + "/led/" + name + "/state" }

// LEDLock is the retained lock topic of an LED.
func (t Topics) LEDLock(name string) string { return t.Prefix + "/led/" + name + "/lock" }

// Pattern carries "started" and "stopped" for a pattern. It lives under
// pattern/state so no pattern name can land on a command topic.
func (t Topics) Pattern(name string) string { return t.Prefix + "/pattern/state/" + name }

// Play is the command topic that starts a pattern.
func (t Topics) Play() string { return t.Prefix + "/pattern/play" }

// Stop is the command topic that stops a pattern.
func (t Topics) Stop() string { return t.Prefix + "/pattern/stop" }

// Status is the daemon availability topic.
func (t Topics) Status() string { return t.Prefix + "/status" }

// statePayload is published on the LED state topic.
type statePayload struct {
	State     string `json:"state"`
	Priority  string `json:"priority"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

type lockPayload struct {
	Locked    bool   `json:"locked"`
	LockID    string `json:"lock_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

// playCommand is the JSON form of a play command. A bare pattern name is
// accepted too.
type playCommand struct {
	Name      string `json:"name"`
	Retrigger bool   `json:"retrigger"`
}

// BridgeOptions configures a Bridge.
type BridgeOptions struct {
	Prefix string
	QoS    byte
	Logger *slog.Logger
}

// Bridge publishes LED and pattern events to MQTT and forwards pattern
// commands to the service.
type Bridge struct {
	client  Client
	service PatternController
	topics  Topics
	qos     byte
	logger  *slog.Logger

	mu     sync.Mutex
	unsubs []func()
}

// NewBridge creates a bridge. Call Start to begin forwarding.
func NewBridge(client Client, service PatternController, opts BridgeOptions) *Bridge {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		client:  client,
		service: service,
		topics:  NewTopics(opts.Prefix),
		qos:     opts.QoS,
		logger:  logger,
	}
}

// Topics returns the topic layout in use.
func (b *Bridge) Topics() Topics {
	return b.topics
}

// Start subscribes to the command topics and to the daemon events.
func (b *Bridge) Start(source EventSource) error {
	if err := b.client.Subscribe(b.topics.Play(), b.qos, b.handlePlay); err != nil {
		return err
	}
	if err := b.client.Subscribe(b.topics.Stop(), b.qos, b.handleStop); err != nil {
		return err
	}

	b.mu.Lock()
	b.unsubs = append(b.unsubs,
		source.Subscribe(b.onStateChanged),
		source.Subscribe(b.onLockChanged),
		source.Subscribe(b.onPatternStarted),
		source.Subscribe(b.onPatternStopped),
	)
	b.mu.Unlock()

	b.logger.Info("MQTT bridge started", "prefix", b.topics.Prefix)
	return nil
}

// Stop unsubscribes from the daemon events and closes the client.
func (b *Bridge) Stop() error {
	b.mu.Lock()
	unsubs := b.unsubs
	b.unsubs = nil
	b.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	return b.client.Close()
}

func (b *Bridge) publish(topic string, retained bool, payload []byte) {
	if err := b.client.Publish(topic, b.qos, retained, payload); err != nil {
		b.logger.Warn("MQTT publish failed", "topic", topic, "error", err)
	}
}

func (b *Bridge) publishJSON(topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		b.logger.Error("Failed to encode MQTT payload", "topic", topic, "error", err)
		return
	}
	b.publish(topic, true, payload)
}

func (b *Bridge) onStateChanged(e events.LEDStateChangedEvent) {
	b.publishJSON(b.topics.LEDState(e.LED), statePayload{
		State:     e.State,
		Priority:  e.Priority,
		Error:     e.Error,
		Timestamp: e.Timestamp,
	})
}

func (b *Bridge) onLockChanged(e events.LEDLockChangedEvent) {
	p := lockPayload{Locked: e.Locked, Timestamp: e.Timestamp}
	if e.Locked {
		p.LockID = e.LockID
	}
	b.publishJSON(b.topics.LEDLock(e.LED), p)
}

func (b *Bridge) onPatternStarted(e events.PatternStartedEvent) {
	b.publish(b.topics.Pattern(e.Pattern), true, []byte("started"))
}

func (b *Bridge) onPatternStopped(e events.PatternStoppedEvent) {
	b.publish(b.topics.Pattern(e.Pattern), true, []byte("stopped"))
}

func (b *Bridge) handlePlay(topic string, payload []byte) {
	cmd := parsePlay(payload)
	if cmd.Name == "" {
		b.logger.Warn("Ignoring play command without a pattern name", "topic", topic)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := b.service.PlayPattern(ctx, cmd.Name, cmd.Retrigger); err != nil {
		b.logger.Warn("MQTT play command failed", "pattern", cmd.Name, "error", err)
		return
	}
	b.logger.Debug("MQTT play command", "pattern", cmd.Name, "retrigger", cmd.Retrigger)
}

func (b *Bridge) handleStop(topic string, payload []byte) {
	name := parsePlay(payload).Name
	if name == "" {
		b.logger.Warn("Ignoring stop command without a pattern name", "topic", topic)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := b.service.StopPattern(ctx, name); err != nil {
		b.logger.Warn("MQTT stop command failed", "pattern", name, "error", err)
		return
	}
	b.logger.Debug("MQTT stop command", "pattern", name)
}

func parsePlay(payload []byte) playCommand {
	text := strings.TrimSpace(string(payload))
	if strings.HasPrefix(text, "{") {
		var cmd playCommand
		if err := json.Unmarshal([]byte(text), &cmd); err == nil {
			cmd.Name = strings.TrimSpace(cmd.Name)
			return cmd
		}
		return playCommand{}
	}
	return playCommand{Name: text}
}

// Package mqtt bridges daemon events to an MQTT broker and lets pattern
// commands arrive over MQTT.
package mqtt

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout    = 10 * time.Second
	publishTimeout    = 5 * time.Second
	disconnectQuiesce = 1000 // milliseconds
	maxQoS            = 2
)

var (
	ErrNotConnected     = errors.New("mqtt: client not connected")
	ErrConnectionFailed = errors.New("mqtt: connection failed")
	ErrPublishFailed    = errors.New("mqtt: publish failed")
	ErrSubscribeFailed  = errors.New("mqtt: subscribe failed")
	ErrInvalidQoS       = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")
	ErrInvalidTopic     = errors.New("mqtt: topic cannot be empty")
)

// MessageHandler receives a message on a subscribed topic.
type MessageHandler func(topic string, payload []byte)

// Client is the broker connection used by the bridge.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	Subscribe(topic string, qos byte, handler MessageHandler) error
	Close() error
}

// Config describes the broker connection.
type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string
	// StatusTopic receives a retained "online" on connect and "offline" as
	// the will message.
	StatusTopic string
	QoS         byte
}

type subscription struct {
	qos     byte
	handler MessageHandler
}

// PahoClient is a Client backed by paho.mqtt.golang. Subscriptions are
// restored after a reconnect.
type PahoClient struct {
	client paho.Client
	cfg    Config
	logger *slog.Logger

	mu   sync.RWMutex
	subs map[string]subscription
}

// Connect dials the broker and waits for the first connection.
func Connect(cfg Config, logger *slog.Logger) (*PahoClient, error) {
	if cfg.QoS > maxQoS {
		return nil, ErrInvalidQoS
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "ledd"
	}

	c := &PahoClient{
		cfg:    cfg,
		logger: logger,
		subs:   make(map[string]subscription),
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectTimeout(connectTimeout).
		SetOnConnectHandler(func(paho.Client) { c.handleConnect() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			c.logger.Warn("MQTT connection lost", "error", err)
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	if cfg.StatusTopic != "" {
		opts.SetWill(cfg.StatusTopic, "offline", cfg.QoS, true)
	}

	c.client = paho.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return c, nil
}

func (c *PahoClient) handleConnect() {
	c.logger.Info("MQTT connected", "broker", c.cfg.Broker)

	c.mu.RLock()
	defer c.mu.RUnlock()
	for topic, sub := range c.subs {
		c.client.Subscribe(topic, sub.qos, c.wrap(sub.handler))
	}
	if c.cfg.StatusTopic != "" {
		c.client.Publish(c.cfg.StatusTopic, c.cfg.QoS, true, "online")
	}
}

func (c *PahoClient) wrap(handler MessageHandler) paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("MQTT handler panic recovered", "topic", msg.Topic(), "panic", r)
			}
		}()
		handler(msg.Topic(), msg.Payload())
	}
}

// Publish sends payload and waits for the broker to accept it.
func (c *PahoClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if !c.client.IsConnectionOpen() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// Subscribe registers handler for topic. Handlers run on paho's goroutines.
func (c *PahoClient) Subscribe(topic string, qos byte, handler MessageHandler) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if handler == nil {
		return fmt.Errorf("%w: nil handler", ErrSubscribeFailed)
	}

	c.mu.Lock()
	c.subs[topic] = subscription{qos: qos, handler: handler}
	c.mu.Unlock()

	token := c.client.Subscribe(topic, qos, c.wrap(handler))
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}
	return nil
}

// Close publishes the offline status and disconnects.
func (c *PahoClient) Close() error {
	if c.cfg.StatusTopic != "" && c.client.IsConnectionOpen() {
		token := c.client.Publish(c.cfg.StatusTopic, c.cfg.QoS, true, "offline")
		token.WaitTimeout(publishTimeout)
	}
	c.client.Disconnect(disconnectQuiesce)
	return nil
}

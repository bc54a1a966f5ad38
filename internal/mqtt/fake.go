package mqtt

import (
	"strings"
	"sync"
)

// Message is a publish recorded by FakeClient.
type Message struct {
	Topic    string
	QoS      byte
	Retained bool
	Payload  []byte
}

// FakeClient records publishes and lets tests deliver messages to
// subscribers.
type FakeClient struct {
	mu       sync.Mutex
	messages []Message
	subs     map[string]MessageHandler

	// PublishError, if set, is returned by Publish.
	PublishError error
	Closed       bool
}

// NewFakeClient creates an empty FakeClient.
func NewFakeClient() *FakeClient {
	return &FakeClient{subs: make(map[string]MessageHandler)}
}

func (f *FakeClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.messages = append(f.messages, Message{Topic: topic, QoS: qos, Retained: retained, Payload: payload})
	return nil
}

func (f *FakeClient) Subscribe(topic string, _ byte, handler MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[topic] = handler
	return nil
}

func (f *FakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Deliver hands payload to the handler subscribed to topic. It reports
// whether there was one.
func (f *FakeClient) Deliver(topic string, payload []byte) bool {
	f.mu.Lock()
	handler, ok := f.subs[topic]
	f.mu.Unlock()
	if ok {
		handler(topic, payload)
	}
	return ok
}

// Messages returns the publishes whose topic starts with prefix.
func (f *FakeClient) Messages(prefix string) []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Message
	for _, m := range f.messages {
		if strings.HasPrefix(m.Topic, prefix) {
			out = append(out, m)
		}
	}
	return out
}

// Subscribed reports whether topic has a handler.
func (f *FakeClient) Subscribed(topic string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.subs[topic]
	return ok
}

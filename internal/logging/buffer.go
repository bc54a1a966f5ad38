package logging

import (
	"sync"
	"time"
)

// LogEntry is one log line kept for the log history endpoints.
type LogEntry struct {
	Timestamp  time.Time      `json:"timestamp"`
	Level      string         `json:"level"`
	Module     string         `json:"module"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// RingBuffer keeps the most recent log entries. It is safe for concurrent
// use.
type RingBuffer struct {
	mu      sync.RWMutex
	entries []LogEntry
	head    int
	count   int
}

// NewRingBuffer creates a buffer holding up to size entries. A size below
// one holds defaultBufferSize.
func NewRingBuffer(size int) *RingBuffer {
	if size < 1 {
		size = defaultBufferSize
	}
	return &RingBuffer{entries: make([]LogEntry, size)}
}

// Write appends entry, dropping the oldest one when full.
func (rb *RingBuffer) Write(entry LogEntry) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.entries[rb.head] = entry
	rb.head = (rb.head + 1) % len(rb.entries)
	if rb.count < len(rb.entries) {
		rb.count++
	}
}

// ReadAll returns every entry, oldest first.
func (rb *RingBuffer) ReadAll() []LogEntry {
	return rb.Tail(0, "")
}

// Tail returns up to n of the newest entries, oldest first. n <= 0 means
// no limit. A non-empty module keeps only that module's entries.
func (rb *RingBuffer) Tail(n int, module string) []LogEntry {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	start := (rb.head - rb.count + len(rb.entries)) % len(rb.entries)
	var result []LogEntry
	for i := range rb.count {
		entry := rb.entries[(start+i)%len(rb.entries)]
		if module != "" && entry.Module != module {
			continue
		}
		result = append(result, entry)
	}
	if n > 0 && len(result) > n {
		result = result[len(result)-n:]
	}
	return result
}

// Count returns the number of entries held.
func (rb *RingBuffer) Count() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count
}

package logging

import (
	"sync"
	"time"
)

// LogEntry represents a single log line stored in the ring buffer.
type LogEntry struct {
	Seq        uint64         `json:"seq"`
	Timestamp  time.Time      `json:"timestamp"`
	Level      string         `json:"level"`
	Module     string         `json:"module"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// RingBuffer keeps the most recent log entries. Each written entry gets the
// next sequence number, starting at 1, so readers can resume where they left.
type RingBuffer struct {
	mu      sync.RWMutex
	entries []LogEntry
	next    int // slot for the next write
	full    bool
	seq     uint64
}

// NewRingBuffer creates a buffer holding up to size entries.
func NewRingBuffer(size int) *RingBuffer {
	if size < 1 {
		size = 1
	}
	return &RingBuffer{entries: make([]LogEntry, size)}
}

// Write stores entry, evicting the oldest one when full, and returns it
// with its sequence number set.
func (rb *RingBuffer) Write(entry LogEntry) LogEntry {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.seq++
	entry.Seq = rb.seq
	rb.entries[rb.next] = entry
	rb.next++
	if rb.next == len(rb.entries) {
		rb.next = 0
		rb.full = true
	}
	return entry
}

// ReadAll returns all entries, oldest first.
func (rb *RingBuffer) ReadAll() []LogEntry {
	return rb.ReadSince(0)
}

// ReadSince returns the buffered entries with a sequence number above seq,
// oldest first.
func (rb *RingBuffer) ReadSince(seq uint64) []LogEntry {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	var ordered []LogEntry
	if rb.full {
		ordered = append(ordered, rb.entries[rb.next:]...)
	}
	ordered = append(ordered, rb.entries[:rb.next]...)

	out := ordered[:0]
	for _, e := range ordered {
		if e.Seq > seq {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Count returns the number of entries in the buffer.
func (rb *RingBuffer) Count() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	if rb.full {
		return len(rb.entries)
	}
	return rb.next
}

// LastSeq returns the sequence number of the newest entry, or 0.
func (rb *RingBuffer) LastSeq() uint64 {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.seq
}

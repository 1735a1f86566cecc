package framebuf

import (
	"bytes"
	"context"
	"sync"
)

// Latest holds the newest completed frame. Put never blocks; a slow
// consumer simply misses intermediate frames.
type Latest struct {
	mu     sync.Mutex
	frame  []byte
	seq    uint64
	notify chan struct{}
}

// NewLatest creates an empty frame mailbox.
func NewLatest() *Latest {
	return &Latest{notify: make(chan struct{})}
}

// Put copies frame into the mailbox, replacing any previous frame.
func (l *Latest) Put(frame []byte) {
	l.mu.Lock()
	l.frame = append(l.frame[:0], frame...)
	l.seq++
	ch := l.notify
	l.notify = make(chan struct{})
	l.mu.Unlock()

	close(ch)
}

// Get returns a copy of the newest frame and its sequence number.
// Sequence numbers start at 1; ok is false until the first Put.
func (l *Latest) Get() (frame []byte, seq uint64, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seq == 0 {
		return nil, 0, false
	}
	return bytes.Clone(l.frame), l.seq, true
}

// Wait blocks until a frame with a sequence number greater than after is
// available or ctx ends.
func (l *Latest) Wait(ctx context.Context, after uint64) ([]byte, uint64, error) {
	for {
		l.mu.Lock()
		if l.seq > after {
			frame, seq := bytes.Clone(l.frame), l.seq
			l.mu.Unlock()
			return frame, seq, nil
		}
		ch := l.notify
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		case <-ch:
		}
	}
}

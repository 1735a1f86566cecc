// Package framebuf accumulates camera output into frames.
//
// A Buffer is fed by the camera driver's push-based write callback. Each
// chunk that starts with a JPEG start-of-image marker (0xFF 0xD8) begins a
// new frame: the buffer is truncated and rewound before the chunk is
// appended. Any other chunk is appended to the frame in progress, so the
// buffer never holds more than one frame.
//
//	buf := framebuf.New(framebuf.WithOnFrame(func(frame []byte) {
//		latest.Put(frame)
//	}))
//	camera.Stream(ctx, buf)
package framebuf

import (
	"bytes"
	"errors"
	"sync"
)

// DefaultMaxSize bounds a single in-progress frame.
const DefaultMaxSize = 4 << 20

// StartOfImage is the JPEG SOI marker that starts a new frame.
var StartOfImage = []byte{0xFF, 0xD8}

// ErrFrameTooLarge is returned by Write when a frame outgrows the size limit.
// The in-progress frame is dropped; the next SOI chunk starts cleanly.
var ErrFrameTooLarge = errors.New("framebuf: frame exceeds maximum size")

// Option configures a Buffer.
type Option func(*Buffer)

// WithOnFrame registers a callback that receives the completed frame each
// time a start-of-image chunk discards a non-empty buffer. The slice aliases
// the buffer's storage and is only valid during the call.
func WithOnFrame(fn func(frame []byte)) Option {
	return func(b *Buffer) {
		b.onFrame = fn
	}
}

// WithMaxSize sets the largest in-progress frame the buffer will hold.
// Values <= 0 disable the limit.
func WithMaxSize(n int) Option {
	return func(b *Buffer) {
		b.maxSize = n
	}
}

// Buffer holds at most one in-progress frame.
type Buffer struct {
	mu       sync.Mutex
	data     []byte
	frames   uint64
	overflow bool
	maxSize  int
	onFrame  func([]byte)
}

// New creates an empty frame buffer.
func New(opts ...Option) *Buffer {
	b := &Buffer{maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Write applies the reset rule to chunk and always reports len(chunk)
// consumed unless the frame size limit is hit.
func (b *Buffer) Write(chunk []byte) (int, error) {
	if len(chunk) == 0 {
		return 0, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if bytes.HasPrefix(chunk, StartOfImage) {
		if len(b.data) > 0 && !b.overflow && b.onFrame != nil {
			b.onFrame(b.data)
		}
		// Truncate and rewind, keeping the backing array for reuse.
		b.data = b.data[:0]
		b.overflow = false
		b.frames++
	} else if b.overflow {
		return len(chunk), nil
	}

	if b.maxSize > 0 && len(b.data)+len(chunk) > b.maxSize {
		b.data = b.data[:0]
		b.overflow = true
		return 0, ErrFrameTooLarge
	}

	b.data = append(b.data, chunk...)
	return len(chunk), nil
}

// Bytes returns a copy of the in-progress frame.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.data)
}

// Len returns the size of the in-progress frame.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Cap returns the capacity of the reused backing storage.
func (b *Buffer) Cap() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cap(b.data)
}

// Frames returns how many start-of-image resets have been observed.
func (b *Buffer) Frames() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames
}

// Reset discards the in-progress frame.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = b.data[:0]
	b.overflow = false
}

package fifo

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// Writer writes to a named pipe, waiting for a reader when none is attached.
// When the reader goes away the chunk being written is dropped and the next
// Write waits for a new reader.
type Writer struct {
	ctx          context.Context
	path         string
	pollInterval time.Duration
	logger       *slog.Logger

	mu      sync.Mutex
	file    *os.File
	opens   atomic.Uint64
	dropped atomic.Uint64
}

// NewWriter creates a Writer for path. ctx bounds every wait for a reader.
func NewWriter(ctx context.Context, path string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		ctx:          ctx,
		path:         path,
		pollInterval: DefaultPollInterval,
		logger:       logger,
	}
}

// Write sends p to the reader.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		w.logger.Debug("Waiting for pipe reader", "path", w.path)
		f, err := OpenWriter(w.ctx, w.path, w.pollInterval)
		if err != nil {
			return 0, err
		}
		w.file = f
		w.opens.Add(1)
		w.logger.Info("Pipe reader attached", "path", w.path)
	}

	n, err := w.file.Write(p)
	if err != nil && errors.Is(err, syscall.EPIPE) {
		w.logger.Warn("Pipe reader went away, dropping chunk", "path", w.path, "bytes", len(p))
		_ = w.file.Close()
		w.file = nil
		w.dropped.Add(1)
		return len(p), nil
	}
	return n, err
}

// Close releases the pipe.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// Opens returns how many times a reader has been attached.
func (w *Writer) Opens() uint64 { return w.opens.Load() }

// Dropped returns how many chunks were dropped because the reader left.
func (w *Writer) Dropped() uint64 { return w.dropped.Load() }

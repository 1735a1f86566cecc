// Package fifo creates and writes the named pipe that carries camera output
// to the display process.
package fifo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// DefaultPath is where the camera stream is published.
const DefaultPath = "/tmp/hudview_camera_output"

// DefaultPollInterval is how often OpenWriter retries while no reader is attached.
const DefaultPollInterval = 100 * time.Millisecond

// ErrNotFIFO is returned when the pipe path is occupied by something else.
var ErrNotFIFO = errors.New("fifo: path exists and is not a named pipe")

// Create makes a named pipe at path. An existing pipe is reused.
func Create(path string, perm os.FileMode) error {
	err := unix.Mkfifo(path, uint32(perm.Perm()))
	if err == nil {
		return nil
	}
	if !errors.Is(err, unix.EEXIST) {
		return fmt.Errorf("mkfifo %s: %w", path, err)
	}

	info, statErr := os.Stat(path)
	if statErr != nil {
		return fmt.Errorf("stat %s: %w", path, statErr)
	}
	if info.Mode()&fs.ModeNamedPipe == 0 {
		return fmt.Errorf("%s: %w", path, ErrNotFIFO)
	}
	return nil
}

// IsFIFO reports whether path is a named pipe.
func IsFIFO(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode()&fs.ModeNamedPipe != 0
}

// OpenWriter opens the pipe for writing once a reader is attached.
// A plain open(2) would block with no way to cancel, so the pipe is opened
// non-blocking and retried every pollInterval while it reports ENXIO.
// The returned file stays registered with the runtime poller; writes park
// the goroutine instead of failing with EAGAIN.
func OpenWriter(ctx context.Context, path string, pollInterval time.Duration) (*os.File, error) {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		f, err := os.OpenFile(path, os.O_WRONLY|syscall.O_NONBLOCK, 0)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, syscall.ENXIO) {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

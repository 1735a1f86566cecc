package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"
)

// libcameraCommands are tried in order; Bookworm renamed libcamera-* to rpicam-*.
var libcameraCommands = []string{"rpicam-vid", "libcamera-vid"}

const (
	readChunkSize   = 32 * 1024
	stopGracePeriod = 3 * time.Second
)

type libcameraSource struct {
	cfg      Config
	logger   *slog.Logger
	lookPath func(string) (string, error)
}

func newLibcamera(cfg Config, logger *slog.Logger) *libcameraSource {
	return &libcameraSource{cfg: cfg, logger: logger, lookPath: exec.LookPath}
}

// libcameraCodec maps a Format onto rpicam-vid's --codec values.
func libcameraCodec(f Format) (string, error) {
	switch f {
	case FormatYUV:
		return "yuv420", nil
	case FormatMJPEG:
		return "mjpeg", nil
	case FormatH264:
		return "h264", nil
	default:
		return "", fmt.Errorf("libcamera backend does not support %s", f)
	}
}

// LibcameraArgs builds the rpicam-vid argument list for cfg.
func LibcameraArgs(cfg Config) ([]string, error) {
	codec, err := libcameraCodec(cfg.Format)
	if err != nil {
		return nil, err
	}

	args := []string{
		"--timeout", "0",
		"--nopreview",
		"--codec", codec,
		"--width", strconv.Itoa(cfg.Width),
		"--height", strconv.Itoa(cfg.Height),
		"--framerate", strconv.Itoa(cfg.FPS),
	}
	if cfg.Format == FormatH264 {
		args = append(args, "--inline")
	}
	if cfg.HFlip {
		args = append(args, "--hflip")
	}
	args = append(args, "--output", "-")
	return args, nil
}

func (s *libcameraSource) findCommand() (string, error) {
	for _, name := range libcameraCommands {
		if path, err := s.lookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("camera capture failed: neither rpicam-vid nor libcamera-vid found " +
		"(install with: sudo apt install -y rpicam-apps)")
}

func (s *libcameraSource) Stream(ctx context.Context, w io.Writer) error {
	path, err := s.findCommand()
	if err != nil {
		return err
	}
	args, err := LibcameraArgs(s.cfg)
	if err != nil {
		return err
	}
	if s.cfg.Format == FormatMJPEG {
		w = newSOISplitter(w)
	}
	return streamCommand(ctx, path, args, w, s.logger)
}

// streamCommand runs a capture program and pushes its stdout into w.
// stderr is forwarded to the logger line by line.
func streamCommand(ctx context.Context, path string, args []string, w io.Writer, logger *slog.Logger) error {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGINT)
	}
	cmd.WaitDelay = stopGracePeriod

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	// Wait finishes copying stderr before it returns.
	stderr := &lineLogger{logger: logger}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", path, err)
	}
	logger.Info("Capture process started", "command", path, "pid", cmd.Process.Pid, "args", args)

	copyErr := pump(stdout, w)
	if copyErr != nil {
		// The writer failed; stop the producer so Wait returns.
		_ = cmd.Process.Signal(syscall.SIGINT)
	}
	waitErr := cmd.Wait()
	stderr.Flush()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if copyErr != nil {
		return copyErr
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return fmt.Errorf("%s exited with code %d", path, exitErr.ExitCode())
		}
		return fmt.Errorf("wait %s: %w", path, waitErr)
	}
	return io.ErrUnexpectedEOF
}

// pump copies r into w one read at a time so each driver chunk reaches w
// as a separate Write call. A writer with a Flush method is flushed at EOF.
func pump(r io.Reader, w io.Writer) error {
	buf := make([]byte, readChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			if f, ok := w.(interface{ Flush() error }); ok {
				return f.Flush()
			}
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// lineLogger logs each line written to it at debug level.
type lineLogger struct {
	logger  *slog.Logger
	mu      sync.Mutex
	partial []byte
}

func (l *lineLogger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.partial = append(l.partial, p...)
	for {
		i := bytes.IndexByte(l.partial, '\n')
		if i < 0 {
			break
		}
		l.log(l.partial[:i])
		l.partial = l.partial[i+1:]
	}
	return len(p), nil
}

// Flush logs an unterminated last line.
func (l *lineLogger) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log(l.partial)
	l.partial = nil
}

func (l *lineLogger) log(line []byte) {
	if text := strings.TrimSpace(string(line)); text != "" {
		l.logger.Debug(text, "source", "stderr")
	}
}

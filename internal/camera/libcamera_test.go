package camera

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLibcameraArgs(t *testing.T) {
	cfg := DefaultConfig()
	args, err := LibcameraArgs(cfg)
	if err != nil {
		t.Fatalf("LibcameraArgs() error: %v", err)
	}

	want := []string{
		"--timeout", "0",
		"--nopreview",
		"--codec", "yuv420",
		"--width", "160",
		"--height", "120",
		"--framerate", "10",
		"--hflip",
		"--output", "-",
	}
	if !slices.Equal(args, want) {
		t.Errorf("LibcameraArgs() = %v\nwant %v", args, want)
	}
}

func TestLibcameraArgsH264Inline(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Format = FormatH264
	cfg.HFlip = false
	args, err := LibcameraArgs(cfg)
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "--codec h264") || !strings.Contains(joined, "--inline") {
		t.Errorf("args %q missing h264 options", joined)
	}
	if slices.Contains(args, "--hflip") {
		t.Error("--hflip present with HFlip=false")
	}
}

func TestLibcameraArgsRejectsRGB(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Format = FormatRGB
	if _, err := LibcameraArgs(cfg); err == nil {
		t.Error("LibcameraArgs(rgb) succeeded")
	}
}

func TestLibcameraFindCommand(t *testing.T) {
	s := newLibcamera(DefaultConfig(), testLogger())

	s.lookPath = func(name string) (string, error) {
		if name == "libcamera-vid" {
			return "/usr/bin/libcamera-vid", nil
		}
		return "", errors.New("not found")
	}
	path, err := s.findCommand()
	if err != nil || path != "/usr/bin/libcamera-vid" {
		t.Errorf("findCommand() = %q, %v; want libcamera-vid fallback", path, err)
	}

	s.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	if _, err := s.findCommand(); err == nil {
		t.Error("findCommand() with no tools succeeded")
	}
}

type chunkRecorder struct {
	chunks [][]byte
}

func (r *chunkRecorder) Write(p []byte) (int, error) {
	r.chunks = append(r.chunks, bytes.Clone(p))
	return len(p), nil
}

func TestStreamCommandCopiesOutput(t *testing.T) {
	rec := &chunkRecorder{}
	err := streamCommand(context.Background(), "/bin/sh", []string{"-c", "printf hello"}, rec, testLogger())
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("streamCommand() error = %v, want ErrUnexpectedEOF", err)
	}
	if got := string(bytes.Join(rec.chunks, nil)); got != "hello" {
		t.Errorf("output = %q, want hello", got)
	}
}

func TestStreamCommandExitCode(t *testing.T) {
	err := streamCommand(context.Background(), "/bin/sh", []string{"-c", "exit 3"}, io.Discard, testLogger())
	if err == nil || !strings.Contains(err.Error(), "code 3") {
		t.Errorf("streamCommand() error = %v, want exit code 3", err)
	}
}

func TestStreamCommandCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := streamCommand(ctx, "/bin/sh", []string{"-c", "while :; do sleep 0.05; done"}, io.Discard, testLogger())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("streamCommand() error = %v, want DeadlineExceeded", err)
	}
	if time.Since(start) > stopGracePeriod+2*time.Second {
		t.Error("streamCommand() did not stop promptly")
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("sink closed") }

func TestStreamCommandWriterError(t *testing.T) {
	err := streamCommand(context.Background(), "/bin/sh",
		[]string{"-c", "trap 'exit 0' INT; while :; do echo x; sleep 0.05; done"}, failWriter{}, testLogger())
	if err == nil || !strings.Contains(err.Error(), "sink closed") {
		t.Errorf("streamCommand() error = %v, want writer error", err)
	}
}

package streamer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hudview/hudview/internal/camera"
	"github.com/hudview/hudview/internal/events"
	"github.com/hudview/hudview/internal/fifo"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedSource writes its chunks then returns err, or waits for ctx when err is nil.
type scriptedSource struct {
	chunks [][]byte
	err    error
}

func (s *scriptedSource) Stream(ctx context.Context, w io.Writer) error {
	for _, c := range s.chunks {
		if _, err := w.Write(c); err != nil {
			return err
		}
	}
	if s.err != nil {
		return s.err
	}
	<-ctx.Done()
	return ctx.Err()
}

// drain reads the pipe until the writer closes it.
func drain(t *testing.T, path string) <-chan []byte {
	t.Helper()
	out := make(chan []byte, 1)
	go func() {
		f, err := os.Open(path)
		if err != nil {
			out <- nil
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		out <- data
	}()
	return out
}

func waitPipe(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !fifo.IsFIFO(path) {
		if time.Now().After(deadline) {
			t.Fatal("pipe was not created")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSessionForwardsChunks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camera")
	chunks := [][]byte{
		[]byte("\xff\xd8AAA"),
		[]byte("BBB"),
		[]byte("\xff\xd8CC"),
	}
	src := &scriptedSource{chunks: chunks, err: io.ErrUnexpectedEOF}
	s := New(Options{Source: src, PipePath: path, Logger: testLogger()})

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()
	waitPipe(t, path)
	got := drain(t, path)

	select {
	case err := <-done:
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Fatalf("Run error = %v, want ErrUnexpectedEOF", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return")
	}

	if data := <-got; !bytes.Equal(data, bytes.Join(chunks, nil)) {
		t.Errorf("pipe data = %q", data)
	}

	st := s.Stats()
	if st.Chunks != 3 || st.Bytes != 12 || st.Frames != 2 || st.Dropped != 0 {
		t.Errorf("stats = %+v", st)
	}

	frame, seq, ok := s.Latest().Get()
	if !ok || seq != 1 || string(frame) != "\xff\xd8AAABBB" {
		t.Errorf("latest = %q seq=%d ok=%v", frame, seq, ok)
	}
}

func TestSessionCancelIsClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camera")
	cfg := camera.DefaultConfig()
	cfg.Backend = camera.BackendTest
	cfg.Format = camera.FormatMJPEG
	cfg.FPS = 100

	bus := events.New()
	stats := make(chan events.FrameStatsEvent, 16)
	unsub := bus.Subscribe(func(e events.FrameStatsEvent) {
		select {
		case stats <- e:
		default:
		}
	})
	defer unsub()

	s := New(Options{
		Source:        camera.NewTestSource(cfg),
		PipePath:      path,
		StatsInterval: 20 * time.Millisecond,
		Bus:           bus,
		Logger:        testLogger(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	waitPipe(t, path)
	got := drain(t, path)

	if _, _, err := s.Latest().Wait(withTimeout(t, 2*time.Second), 0); err != nil {
		t.Fatalf("no frame completed: %v", err)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run after cancel = %v, want nil", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	data := <-got
	if !bytes.HasPrefix(data, []byte{0xFF, 0xD8}) {
		t.Errorf("pipe data does not start with SOI: % x", data[:min(len(data), 8)])
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case e := <-stats:
			if e.Chunks > 0 {
				return
			}
		case <-timeout:
			t.Fatal("no FrameStatsEvent with chunks published")
		}
	}
}

func TestSessionCancelWithoutReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camera")
	src := &scriptedSource{chunks: [][]byte{[]byte("\xff\xd8x")}}
	s := New(Options{Source: src, PipePath: path, Logger: testLogger()})

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run = %v, want nil", err)
	}
	if !fifo.IsFIFO(path) {
		t.Error("pipe was not created")
	}
}

func TestSessionRawFrameAccounting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camera")
	src := &scriptedSource{
		chunks: [][]byte{make([]byte, 10), make([]byte, 15), make([]byte, 5)},
		err:    io.ErrUnexpectedEOF,
	}
	s := New(Options{Source: src, PipePath: path, RawFrameSize: 12, Logger: testLogger()})

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()
	waitPipe(t, path)
	got := drain(t, path)
	<-done
	<-got

	if st := s.Stats(); st.Frames != 2 || st.Bytes != 30 {
		t.Errorf("stats = %+v, want 2 frames from 30 bytes", st)
	}
	if _, _, ok := s.Latest().Get(); ok {
		t.Error("raw streams should not fill the frame mailbox")
	}
}

func TestSessionErrors(t *testing.T) {
	dir := t.TempDir()
	regular := filepath.Join(dir, "regular")
	if err := os.WriteFile(regular, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(Options{Source: &scriptedSource{}, PipePath: regular, Logger: testLogger()})
	if err := s.Run(context.Background()); !errors.Is(err, fifo.ErrNotFIFO) {
		t.Errorf("Run on regular file = %v, want ErrNotFIFO", err)
	}

	s = New(Options{PipePath: filepath.Join(dir, "p"), Logger: testLogger()})
	if err := s.Run(context.Background()); err == nil {
		t.Error("expected error without a source")
	}
}

func TestRawFrameSize(t *testing.T) {
	tests := []struct {
		format camera.Format
		want   int
	}{
		{camera.FormatRGB, 160 * 120 * 3},
		{camera.FormatYUV, 160 * 120 * 3 / 2},
		{camera.FormatMJPEG, 0},
		{camera.FormatH264, 0},
	}
	for _, tt := range tests {
		cfg := camera.DefaultConfig()
		cfg.Format = tt.format
		if got := RawFrameSize(cfg); got != tt.want {
			t.Errorf("RawFrameSize(%s) = %d, want %d", tt.format, got, tt.want)
		}
	}
}

func withTimeout(t *testing.T, d time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	t.Cleanup(cancel)
	return ctx
}

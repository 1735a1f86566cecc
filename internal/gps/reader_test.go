package gps

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"testing/iotest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReaderEmitsSentences(t *testing.T) {
	input := frame(sampleRMC) + "\r\n" + "$" + sampleRMC + "*00\r\n" + frame(sampleRMC) + "\r\n"
	r := NewReader(iotest.OneByteReader(strings.NewReader(input)), testLogger())

	var got []string
	err := r.Run(context.Background(), func(s string) { got = append(got, s) })
	if !errors.Is(err, io.EOF) {
		t.Fatalf("Run = %v, want io.EOF", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d sentences, want 2", len(got))
	}
	if st := r.Stats(); st.Sentences != 2 || st.Checksum != 1 {
		t.Errorf("stats = %+v", st)
	}
}

// idleReader mimics a serial port read timeout with no data.
type idleReader struct{}

func (idleReader) Read([]byte) (int, error) { return 0, nil }

func TestReaderStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewReader(idleReader{}, testLogger())
	if err := r.Run(ctx, func(string) {}); err != nil {
		t.Errorf("Run = %v, want nil", err)
	}
}

func TestReaderReadError(t *testing.T) {
	boom := errors.New("device unplugged")
	r := NewReader(iotest.ErrReader(boom), testLogger())
	if err := r.Run(context.Background(), func(string) {}); !errors.Is(err, boom) {
		t.Errorf("Run = %v, want %v", err, boom)
	}
}

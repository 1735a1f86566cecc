package camera

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/hudview/hudview/internal/framebuf"
)

// mjpegStream returns n JPEG-shaped frames of size bytes each.
func mjpegStream(n, size int) ([]byte, [][]byte) {
	var stream []byte
	var frames [][]byte
	for i := 0; i < n; i++ {
		frame := make([]byte, 0, size)
		frame = append(frame, 0xFF, 0xD8)
		frame = append(frame, bytes.Repeat([]byte{byte(0x10 + i)}, size-4)...)
		frame = append(frame, 0xFF, 0xD9)
		frames = append(frames, frame)
		stream = append(stream, frame...)
	}
	return stream, frames
}

func TestSOISplitterChunks(t *testing.T) {
	rec := &chunkRecorder{}
	sp := newSOISplitter(rec)
	for _, in := range []string{"ab\xff", "\xd8cd\xff\xd8ef", "\xff"} {
		if n, err := sp.Write([]byte(in)); err != nil || n != len(in) {
			t.Fatalf("Write(%q) = %d, %v", in, n, err)
		}
	}
	if err := sp.Flush(); err != nil {
		t.Fatal(err)
	}

	var got []string
	for _, c := range rec.chunks {
		got = append(got, string(c))
	}
	want := []string{"ab", "\xff\xd8cd", "\xff\xd8ef", "\xff"}
	if !slices.Equal(got, want) {
		t.Errorf("chunks = %q, want %q", got, want)
	}
}

func TestPumpMJPEGIntoFrameBuffer(t *testing.T) {
	stream, frames := mjpegStream(5, 20_000)

	tests := []struct {
		name string
		r    func() io.Reader
	}{
		{"large reads", func() io.Reader { return bytes.NewReader(stream) }},
		{"single bytes", func() io.Reader { return iotest.OneByteReader(bytes.NewReader(stream)) }},
		{"half reads", func() io.Reader { return iotest.HalfReader(bytes.NewReader(stream)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var completed [][]byte
			buf := framebuf.New(framebuf.WithOnFrame(func(f []byte) {
				completed = append(completed, bytes.Clone(f))
			}))

			if err := pump(tt.r(), newSOISplitter(buf)); err != nil {
				t.Fatalf("pump() = %v", err)
			}
			if got := buf.Frames(); got != 5 {
				t.Errorf("Frames() = %d, want 5", got)
			}
			if len(completed) != 4 {
				t.Fatalf("completed = %d, want 4", len(completed))
			}
			for i, f := range completed {
				if !bytes.Equal(f, frames[i]) {
					t.Errorf("frame %d: %d bytes, want %d", i, len(f), len(frames[i]))
				}
			}
			if !bytes.Equal(buf.Bytes(), frames[4]) {
				t.Error("in-progress frame is not the last frame")
			}
		})
	}
}

func TestStreamCommandSplitsMJPEG(t *testing.T) {
	stream, _ := mjpegStream(5, 20_000)
	path := filepath.Join(t.TempDir(), "capture.mjpeg")
	if err := os.WriteFile(path, stream, 0o644); err != nil {
		t.Fatal(err)
	}

	buf := framebuf.New()
	err := streamCommand(context.Background(), "/bin/cat", []string{path}, newSOISplitter(buf), testLogger())
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("streamCommand() = %v, want ErrUnexpectedEOF", err)
	}
	if got := buf.Frames(); got != 5 {
		t.Errorf("Frames() = %d, want 5", got)
	}
}

func TestStreamCommandLogsStderr(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))

	err := streamCommand(context.Background(), "/bin/sh",
		[]string{"-c", "printf 'camera ready\\nlast words' >&2"}, io.Discard, logger)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("streamCommand() = %v", err)
	}
	logs := out.String()
	for _, want := range []string{`msg="camera ready"`, `msg="last words"`} {
		if !strings.Contains(logs, want) {
			t.Errorf("logs missing %s:\n%s", want, logs)
		}
	}
}

package camera

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func TestTestSourceFrames(t *testing.T) {
	tests := []struct {
		format Format
		check  func(t *testing.T, frame []byte)
	}{
		{FormatRGB, func(t *testing.T, frame []byte) {
			if len(frame) != 160*120*3 {
				t.Errorf("rgb frame size = %d", len(frame))
			}
		}},
		{FormatYUV, func(t *testing.T, frame []byte) {
			if len(frame) != 160*120*3/2 {
				t.Errorf("yuv frame size = %d", len(frame))
			}
		}},
		{FormatMJPEG, func(t *testing.T, frame []byte) {
			if !bytes.HasPrefix(frame, []byte{0xFF, 0xD8}) || !bytes.HasSuffix(frame, []byte{0xFF, 0xD9}) {
				t.Errorf("mjpeg frame % x not SOI..EOI", frame)
			}
		}},
		{FormatH264, func(t *testing.T, frame []byte) {
			if !bytes.HasPrefix(frame, []byte{0, 0, 0, 1}) {
				t.Errorf("h264 frame % x missing start code", frame)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Format = tt.format
			tt.check(t, NewTestSource(cfg).Frame(0))
		})
	}
}

func TestTestSourceFramesDiffer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Format = FormatMJPEG
	src := NewTestSource(cfg)
	if bytes.Equal(src.Frame(1), src.Frame(2)) {
		t.Error("consecutive frames are identical")
	}
}

func TestTestSourceStream(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = BackendTest
	cfg.Format = FormatMJPEG
	cfg.FPS = 100

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	rec := &chunkRecorder{}
	err := NewTestSource(cfg).Stream(ctx, rec)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Stream() error = %v, want DeadlineExceeded", err)
	}
	if len(rec.chunks) < 5 {
		t.Errorf("got %d frames in 200ms at 100fps", len(rec.chunks))
	}
}

func TestTestSourceStreamWriterError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FPS = 100
	err := NewTestSource(cfg).Stream(context.Background(), failWriter{})
	if err == nil || err.Error() != "sink closed" {
		t.Errorf("Stream() error = %v, want sink closed", err)
	}
}

package camera

import (
	"context"
	"encoding/binary"
	"io"
	"time"
)

// TestSource generates a synthetic pattern at the configured rate. Raw
// formats get full-size frames with a moving gradient; mjpeg frames are
// SOI..EOI wrapped so they exercise the frame buffer reset rule.
type TestSource struct {
	cfg Config
}

// NewTestSource returns a synthetic Source for cfg.
func NewTestSource(cfg Config) *TestSource {
	return &TestSource{cfg: cfg}
}

func (s *TestSource) Stream(ctx context.Context, w io.Writer) error {
	fps := s.cfg.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	var n uint32
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if _, err := w.Write(s.Frame(n)); err != nil {
			return err
		}
		n++
	}
}

// Frame builds frame number n.
func (s *TestSource) Frame(n uint32) []byte {
	switch s.cfg.Format {
	case FormatMJPEG:
		frame := make([]byte, 0, 12)
		frame = append(frame, 0xFF, 0xD8)
		frame = binary.BigEndian.AppendUint32(frame, n)
		frame = append(frame, byte(s.cfg.Width), byte(s.cfg.Height))
		return append(frame, 0xFF, 0xD9)
	case FormatH264:
		frame := []byte{0x00, 0x00, 0x00, 0x01, 0x65}
		return binary.BigEndian.AppendUint32(frame, n)
	default:
		frame := make([]byte, s.cfg.FrameSize())
		for i := range frame {
			frame[i] = byte(uint32(i) + n)
		}
		return frame
	}
}

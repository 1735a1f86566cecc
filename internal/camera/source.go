// Package camera captures video from the HUD camera.
//
// A Source pushes raw chunks into an io.Writer as the driver produces them,
// the same shape as a driver write callback. Three backends are provided:
// V4L2 devices through blackjack/webcam, the Raspberry Pi camera stack through
// an rpicam-vid/libcamera-vid subprocess, and a synthetic test pattern.
package camera

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Source produces camera data.
type Source interface {
	// Stream writes chunks to w until ctx is cancelled or capture fails.
	// It returns ctx.Err() on cancellation.
	Stream(ctx context.Context, w io.Writer) error
}

// New returns the Source for cfg.Backend.
func New(cfg Config, logger *slog.Logger) (Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Backend {
	case BackendV4L2:
		return newV4L2(cfg, logger), nil
	case BackendLibcamera:
		return newLibcamera(cfg, logger), nil
	case BackendTest:
		return NewTestSource(cfg), nil
	default:
		return nil, fmt.Errorf("unknown camera backend %q", cfg.Backend)
	}
}

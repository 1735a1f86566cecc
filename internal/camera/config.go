package camera

import (
	"fmt"
	"strconv"
	"strings"
)

// Format is the encoding the camera delivers.
type Format string

// Supported output formats.
const (
	FormatRGB   Format = "rgb"
	FormatYUV   Format = "yuv"
	FormatMJPEG Format = "mjpeg"
	FormatH264  Format = "h264"
)

// Backend selects how frames are captured.
type Backend string

// Supported capture backends.
const (
	BackendV4L2      Backend = "v4l2"
	BackendLibcamera Backend = "libcamera"
	BackendTest      Backend = "test"
)

// Defaults match the HUD's 160x120 display at 10 fps, mirrored.
// The Pi camera stack has no packed RGB output, so raw capture defaults to
// YUV420; V4L2 devices can still be asked for rgb.
const (
	DefaultWidth  = 160
	DefaultHeight = 120
	DefaultFPS    = 10
	DefaultDevice = "/dev/video0"
	maxFPS        = 120
)

// Config describes a capture session.
type Config struct {
	Backend Backend
	Device  string
	Format  Format
	Width   int
	Height  int
	FPS     int
	HFlip   bool
}

// DefaultConfig returns the stock HUD camera configuration.
func DefaultConfig() Config {
	return Config{
		Backend: BackendLibcamera,
		Device:  DefaultDevice,
		Format:  FormatYUV,
		Width:   DefaultWidth,
		Height:  DefaultHeight,
		FPS:     DefaultFPS,
		HFlip:   true,
	}
}

// Validate checks that the configuration can be handed to a backend.
func (c Config) Validate() error {
	if _, err := ParseFormat(string(c.Format)); err != nil {
		return err
	}
	switch c.Backend {
	case BackendV4L2, BackendLibcamera, BackendTest:
	default:
		return fmt.Errorf("unknown camera backend %q", c.Backend)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid resolution %dx%d", c.Width, c.Height)
	}
	if c.FPS < 1 || c.FPS > maxFPS {
		return fmt.Errorf("fps %d out of range 1-%d", c.FPS, maxFPS)
	}
	if c.Backend == BackendLibcamera && c.Format == FormatRGB {
		return fmt.Errorf("libcamera backend cannot produce rgb, use yuv or the v4l2 backend")
	}
	if c.Backend == BackendV4L2 && c.Device == "" {
		return fmt.Errorf("v4l2 backend requires a device")
	}
	return nil
}

// Resolution returns the configured size as WIDTHxHEIGHT.
func (c Config) Resolution() string {
	return fmt.Sprintf("%dx%d", c.Width, c.Height)
}

// FrameSize returns the size of one raw frame in bytes, or 0 for
// compressed formats.
func (c Config) FrameSize() int {
	switch c.Format {
	case FormatRGB:
		return c.Width * c.Height * 3
	case FormatYUV:
		return c.Width * c.Height * 3 / 2
	default:
		return 0
	}
}

// ParseFormat normalizes a format name. Common aliases are accepted.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rgb", "rgb24", "rgb888":
		return FormatRGB, nil
	case "yuv", "yuv420", "i420":
		return FormatYUV, nil
	case "mjpeg", "mjpg", "jpeg":
		return FormatMJPEG, nil
	case "h264", "h.264":
		return FormatH264, nil
	default:
		return "", fmt.Errorf("unsupported format %q", s)
	}
}

// ParseResolution parses WIDTHxHEIGHT.
func ParseResolution(s string) (width, height int, err error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid resolution %q, want WIDTHxHEIGHT", s)
	}
	width, err = strconv.Atoi(w)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width in %q: %w", s, err)
	}
	height, err = strconv.Atoi(h)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height in %q: %w", s, err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("invalid resolution %q", s)
	}
	return width, height, nil
}

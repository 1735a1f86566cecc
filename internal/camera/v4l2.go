package camera

import (
	"context"
	"io"
	"log/slog"

	"github.com/blackjack/webcam"
	"github.com/pkg/errors"
)

// v4l2HFlip is V4L2_CID_HFLIP.
const v4l2HFlip webcam.ControlID = 0x00980914

// frameWaitSeconds bounds each WaitForFrame so cancellation is noticed.
const frameWaitSeconds = 1

func fourcc(a, b, c, d byte) webcam.PixelFormat {
	return webcam.PixelFormat(uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24)
}

var pixelFormats = map[Format]webcam.PixelFormat{
	FormatRGB:   fourcc('R', 'G', 'B', '3'),
	FormatYUV:   fourcc('Y', 'U', '1', '2'),
	FormatMJPEG: fourcc('M', 'J', 'P', 'G'),
	FormatH264:  fourcc('H', '2', '6', '4'),
}

// FourCC renders a V4L2 pixel format code as text.
func FourCC(f webcam.PixelFormat) string {
	return string([]byte{byte(f), byte(f >> 8), byte(f >> 16), byte(f >> 24)})
}

type v4l2Source struct {
	cfg    Config
	logger *slog.Logger
}

func newV4L2(cfg Config, logger *slog.Logger) *v4l2Source {
	return &v4l2Source{cfg: cfg, logger: logger}
}

func (s *v4l2Source) Stream(ctx context.Context, w io.Writer) error {
	cam, err := webcam.Open(s.cfg.Device)
	if err != nil {
		return errors.Wrapf(err, "can not open device %s", s.cfg.Device)
	}
	defer cam.Close()

	if err := s.configure(cam); err != nil {
		return err
	}

	if err := cam.StartStreaming(); err != nil {
		return errors.Wrap(err, "can not start streaming")
	}
	defer func() {
		if err := cam.StopStreaming(); err != nil {
			s.logger.Debug("Stop streaming failed", "error", err)
		}
	}()

	s.logger.Info("V4L2 capture started",
		"device", s.cfg.Device,
		"format", s.cfg.Format,
		"resolution", s.cfg.Resolution(),
		"fps", s.cfg.FPS)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := cam.WaitForFrame(frameWaitSeconds)
		switch err.(type) {
		case nil:
		case *webcam.Timeout:
			s.logger.Debug("Timed out waiting for frame", "device", s.cfg.Device)
			continue
		default:
			return errors.Wrap(err, "frame wait failed")
		}

		frame, err := cam.ReadFrame()
		if err != nil {
			return errors.Wrap(err, "read frame failed")
		}
		if len(frame) == 0 {
			continue
		}

		if _, err := w.Write(frame); err != nil {
			return err
		}
	}
}

func (s *v4l2Source) configure(cam *webcam.Webcam) error {
	want, ok := pixelFormats[s.cfg.Format]
	if !ok {
		return errors.Errorf("format %s has no V4L2 pixel format", s.cfg.Format)
	}

	supported := cam.GetSupportedFormats()
	if _, ok := supported[want]; !ok {
		return errors.Errorf("device %s does not support %s (%s)", s.cfg.Device, s.cfg.Format, FourCC(want))
	}

	got, width, height, err := cam.SetImageFormat(want, uint32(s.cfg.Width), uint32(s.cfg.Height))
	if err != nil {
		return errors.Wrap(err, "can not set image format")
	}
	if got != want || int(width) != s.cfg.Width || int(height) != s.cfg.Height {
		s.logger.Warn("Device adjusted capture format",
			"requested", s.cfg.Resolution(),
			"width", width,
			"height", height,
			"format", FourCC(got))
	}

	if err := cam.SetFramerate(float32(s.cfg.FPS)); err != nil {
		s.logger.Warn("Can not set framerate", "fps", s.cfg.FPS, "error", err)
	}

	if s.cfg.HFlip {
		if err := cam.SetControl(v4l2HFlip, 1); err != nil {
			s.logger.Warn("Can not enable horizontal flip", "error", err)
		}
	}
	return nil
}

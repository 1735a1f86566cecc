// Package streamer runs a camera session: capture chunks flow through the
// frame buffer and on into the named pipe read by the display.
package streamer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/hudview/hudview/internal/camera"
	"github.com/hudview/hudview/internal/events"
	"github.com/hudview/hudview/internal/fifo"
	"github.com/hudview/hudview/internal/framebuf"
	"github.com/hudview/hudview/internal/metrics"
)

// DefaultStatsInterval is how often stats are published on the bus.
const DefaultStatsInterval = 5 * time.Second

// Options configures a Session.
type Options struct {
	Source   camera.Source
	PipePath string
	PipePerm os.FileMode

	// Format selects frame accounting. MJPEG goes through the frame buffer
	// and fills Latest; H.264 is counted by its slice headers.
	Format camera.Format

	// RawFrameSize is the byte size of one uncompressed frame. When set,
	// frames are counted by size since raw streams carry no markers.
	RawFrameSize int

	MaxFrameSize  int
	StatsInterval time.Duration
	Bus           *events.Bus // optional
	Logger        *slog.Logger
}

// Stats is a snapshot of session counters.
type Stats struct {
	Chunks   uint64 `json:"chunks"`
	Bytes    uint64 `json:"bytes"`
	Frames   uint64 `json:"frames"`
	Dropped  uint64 `json:"dropped"`
	Oversize uint64 `json:"oversize"`
}

// Session is a single-producer pipeline from a camera Source to a FIFO.
type Session struct {
	opts   Options
	logger *slog.Logger
	buf    *framebuf.Buffer
	latest *framebuf.Latest

	chunks   atomic.Uint64
	bytes    atomic.Uint64
	frames   atomic.Uint64
	dropped  atomic.Uint64
	oversize atomic.Uint64
	rawBytes int
	nal      annexBCounter
}

// New creates a session. Source is required.
func New(opts Options) *Session {
	if opts.PipePath == "" {
		opts.PipePath = fifo.DefaultPath
	}
	if opts.PipePerm == 0 {
		opts.PipePerm = 0o666
	}
	if opts.StatsInterval <= 0 {
		opts.StatsInterval = DefaultStatsInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Session{
		opts:   opts,
		logger: opts.Logger,
		latest: framebuf.NewLatest(),
	}
	bufOpts := []framebuf.Option{framebuf.WithOnFrame(s.latest.Put)}
	if opts.MaxFrameSize != 0 {
		bufOpts = append(bufOpts, framebuf.WithMaxSize(opts.MaxFrameSize))
	}
	s.buf = framebuf.New(bufOpts...)
	return s
}

// Latest returns the mailbox holding the newest completed MJPEG frame.
func (s *Session) Latest() *framebuf.Latest {
	return s.latest
}

// Stats returns the current counters.
func (s *Session) Stats() Stats {
	return Stats{
		Chunks:   s.chunks.Load(),
		Bytes:    s.bytes.Load(),
		Frames:   s.frames.Load(),
		Dropped:  s.dropped.Load(),
		Oversize: s.oversize.Load(),
	}
}

// Run creates the pipe and streams until ctx is cancelled or the source
// fails. Cancellation is a clean shutdown and returns nil.
func (s *Session) Run(ctx context.Context) error {
	if s.opts.Source == nil {
		return errors.New("streamer: no camera source")
	}
	if err := fifo.Create(s.opts.PipePath, s.opts.PipePerm); err != nil {
		return err
	}
	s.logger.Info("Camera session started", "pipe", s.opts.PipePath)

	pipe := fifo.NewWriter(ctx, s.opts.PipePath, s.logger)
	defer pipe.Close()

	statsCtx, stopStats := context.WithCancel(ctx)
	defer stopStats()
	go s.publishStats(statsCtx)

	err := s.opts.Source.Stream(ctx, &sink{session: s, pipe: pipe})
	s.publish()

	if ctx.Err() != nil {
		s.logger.Info("Camera session stopped", "chunks", s.chunks.Load(), "frames", s.frames.Load())
		return nil
	}
	if err != nil {
		return fmt.Errorf("camera stream: %w", err)
	}
	return nil
}

// sink is the io.Writer handed to the camera driver.
type sink struct {
	session *Session
	pipe    *fifo.Writer
}

func (k *sink) Write(chunk []byte) (int, error) {
	s := k.session
	s.chunks.Add(1)
	s.bytes.Add(uint64(len(chunk)))
	metrics.AddCameraChunk(len(chunk))

	s.countFrames(chunk)

	before := k.pipe.Dropped()
	n, err := k.pipe.Write(chunk)
	if k.pipe.Dropped() != before {
		s.dropped.Add(1)
		metrics.IncCameraDropped()
	}
	return n, err
}

func (s *Session) countFrames(chunk []byte) {
	switch {
	case s.opts.RawFrameSize > 0:
		s.rawBytes += len(chunk)
		for s.rawBytes >= s.opts.RawFrameSize {
			s.rawBytes -= s.opts.RawFrameSize
			s.addFrames(1)
		}
		return
	case s.opts.Format == camera.FormatH264:
		s.addFrames(s.nal.Count(chunk))
		return
	}

	before := s.buf.Frames()
	if _, err := s.buf.Write(chunk); errors.Is(err, framebuf.ErrFrameTooLarge) {
		s.oversize.Add(1)
		metrics.IncCameraOversize()
		s.logger.Debug("Frame exceeded buffer limit, dropped")
	}
	if s.buf.Frames() != before {
		s.addFrames(1)
	}
}

func (s *Session) addFrames(n int) {
	for range n {
		s.frames.Add(1)
		metrics.IncCameraFrames()
	}
}

func (s *Session) publishStats(ctx context.Context) {
	ticker := time.NewTicker(s.opts.StatsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.publish()
		}
	}
}

func (s *Session) publish() {
	st := s.Stats()
	s.logger.Debug("Camera stats", "chunks", st.Chunks, "bytes", st.Bytes, "frames", st.Frames, "dropped", st.Dropped)
	if s.opts.Bus != nil {
		s.opts.Bus.Publish(events.FrameStatsEvent{
			Chunks:  st.Chunks,
			Bytes:   st.Bytes,
			Frames:  st.Frames,
			Dropped: st.Dropped,
		})
	}
}

// RawFrameSize returns the frame size used for raw frame accounting, or 0
// for formats that carry frame markers.
func RawFrameSize(cfg camera.Config) int {
	if cfg.Format == camera.FormatMJPEG || cfg.Format == camera.FormatH264 {
		return 0
	}
	return cfg.FrameSize()
}

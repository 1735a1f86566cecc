package cmd

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hudview/hudview/internal/camera"
	"github.com/hudview/hudview/internal/fifo"
	"github.com/hudview/hudview/internal/framebuf"
	"github.com/hudview/hudview/internal/metrics"
	"github.com/hudview/hudview/internal/streamer"
	"github.com/spf13/cobra"
)

// CreateCameraCmd creates the camera command.
func CreateCameraCmd() *cobra.Command {
	var (
		logs       logFlags
		backend    string
		device     string
		format     string
		resolution string
		fps        int
		hflip      bool
		pipePath   string
		maxFrame   int
		httpAddr   string
	)

	cmd := &cobra.Command{
		Use:   "camera",
		Short: "Stream the camera into the display pipe",
		Long: `Captures frames from the camera and writes every chunk to a named pipe ` +
			`for the display process. The pipe is created if missing; chunks are dropped while no reader is attached.`,
		Args: cobra.NoArgs,
		Run: logs.run("camera", func(logger *slog.Logger) error {
			cfg := camera.DefaultConfig()
			cfg.Backend = camera.Backend(backend)
			cfg.Device = device
			cfg.FPS = fps
			cfg.HFlip = hflip

			f, err := camera.ParseFormat(format)
			if err != nil {
				return failure("Invalid format", err)
			}
			cfg.Format = f
			if cfg.Width, cfg.Height, err = camera.ParseResolution(resolution); err != nil {
				return failure("Invalid resolution", err)
			}

			source, err := camera.New(cfg, logger)
			if err != nil {
				return failure("Invalid camera configuration", err)
			}

			session := streamer.New(streamer.Options{
				Source:       source,
				PipePath:     pipePath,
				Format:       cfg.Format,
				RawFrameSize: streamer.RawFrameSize(cfg),
				MaxFrameSize: maxFrame,
				Logger:       logger,
			})

			ctx, stop := signalContext()
			defer stop()

			if httpAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("GET /metrics", metrics.Handler())
				mux.Handle("GET /snapshot.jpg", streamer.SnapshotHandler(session.Latest()))
				mux.Handle("GET /stream.mjpg", streamer.MJPEGHandler(session.Latest(), logger))
				srv := &http.Server{Addr: httpAddr, Handler: mux}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Warn("HTTP listener failed", "addr", httpAddr, "error", err)
					}
				}()
				defer srv.Close()
			}

			logger.Info("Starting camera stream",
				"backend", cfg.Backend,
				"format", cfg.Format,
				"resolution", cfg.Resolution(),
				"fps", cfg.FPS,
				"pipe", pipePath)

			if err := session.Run(ctx); err != nil {
				return failure("Camera stream failed", err)
			}
			stats := session.Stats()
			logger.Info("Camera stream stopped",
				"chunks", stats.Chunks,
				"frames", stats.Frames,
				"dropped", stats.Dropped)
			return nil
		}),
	}

	def := camera.DefaultConfig()
	cmd.Flags().StringVar(&backend, "backend", string(def.Backend), "Capture backend (libcamera, v4l2, test)")
	cmd.Flags().StringVar(&device, "device", def.Device, "V4L2 device for the v4l2 backend")
	cmd.Flags().StringVarP(&format, "format", "f", string(def.Format), "Output format (rgb, yuv, mjpeg, h264)")
	cmd.Flags().StringVarP(&resolution, "resolution", "r", def.Resolution(), "Resolution as WIDTHxHEIGHT")
	cmd.Flags().IntVar(&fps, "fps", def.FPS, "Frames per second")
	cmd.Flags().BoolVar(&hflip, "hflip", def.HFlip, "Mirror the image horizontally")
	cmd.Flags().StringVarP(&pipePath, "pipe", "o", fifo.DefaultPath, "Named pipe to write to")
	cmd.Flags().IntVar(&maxFrame, "max-frame-size", framebuf.DefaultMaxSize, "Largest MJPEG frame accepted, in bytes")
	cmd.Flags().StringVar(&httpAddr, "http-addr", "", "Serve /metrics, /snapshot.jpg and /stream.mjpg on this address (empty disables)")
	logs.register(cmd)
	return cmd
}

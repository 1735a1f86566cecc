package streamer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hudview/hudview/internal/framebuf"
)

const mjpegBoundary = "hudviewframe"

// snapshotWait bounds how long a snapshot request with ?after= blocks.
const snapshotWait = 5 * time.Second

// SnapshotHandler serves the newest frame in latest as image/jpeg.
// With ?after=<seq> it waits for a newer frame than seq. The frame's
// sequence number is returned in X-Frame-Seq.
func SnapshotHandler(latest *framebuf.Latest) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			frame []byte
			seq   uint64
		)
		if after := r.URL.Query().Get("after"); after != "" {
			n, err := strconv.ParseUint(after, 10, 64)
			if err != nil {
				http.Error(w, "invalid after", http.StatusBadRequest)
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), snapshotWait)
			defer cancel()
			frame, seq, err = latest.Wait(ctx, n)
			if err != nil {
				http.Error(w, "no new frame", http.StatusServiceUnavailable)
				return
			}
		} else {
			var ok bool
			if frame, seq, ok = latest.Get(); !ok {
				http.Error(w, "no frame yet", http.StatusServiceUnavailable)
				return
			}
		}

		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("X-Frame-Seq", strconv.FormatUint(seq, 10))
		_, _ = w.Write(frame)
	})
}

// MJPEGHandler streams frames from latest as multipart/x-mixed-replace at
// the client's own pace; frames arriving while a write is in flight are
// skipped.
func MJPEGHandler(latest *framebuf.Latest, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+mjpegBoundary)
		w.Header().Set("Cache-Control", "no-store")
		rc := http.NewResponseController(w)

		var seq uint64
		for {
			frame, next, err := latest.Wait(r.Context(), seq)
			if err != nil {
				return
			}
			seq = next
			if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n",
				mjpegBoundary, len(frame)); err != nil {
				return
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
			if _, err := w.Write([]byte("\r\n")); err != nil {
				return
			}
			if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
				logger.Debug("MJPEG client gone", "error", err)
				return
			}
		}
	})
}

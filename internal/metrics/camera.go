package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cameraChunks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "camera",
		Name:      "chunks_total",
		Help:      "Chunks delivered by the camera driver",
	})

	cameraBytes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "camera",
		Name:      "bytes_total",
		Help:      "Bytes delivered by the camera driver",
	})

	cameraFrames = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "camera",
		Name:      "frames_total",
		Help:      "Frame starts observed in the camera stream",
	})

	cameraDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "camera",
		Name:      "dropped_chunks_total",
		Help:      "Chunks dropped because the pipe reader went away",
	})

	cameraOversize = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "camera",
		Name:      "oversize_frames_total",
		Help:      "Frames discarded for exceeding the frame buffer limit",
	})
)

// AddCameraChunk records one chunk of n bytes.
func AddCameraChunk(n int) {
	cameraChunks.Inc()
	cameraBytes.Add(float64(n))
}

// IncCameraFrames records a frame start.
func IncCameraFrames() {
	cameraFrames.Inc()
}

// IncCameraDropped records a chunk dropped at the pipe.
func IncCameraDropped() {
	cameraDropped.Inc()
}

// IncCameraOversize records a frame dropped by the size limit.
func IncCameraOversize() {
	cameraOversize.Inc()
}

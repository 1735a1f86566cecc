package gps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.bug.st/serial"
)

// DefaultPort is the Pi's primary UART.
const DefaultPort = "/dev/ttyS0"

// DefaultBaudRate is the module's factory rate.
const DefaultBaudRate = 9600

// readTimeout bounds each serial read so cancellation is noticed.
const readTimeout = 200 * time.Millisecond

// OpenPort opens a serial port at baud 8N1.
func OpenPort(name string, baud int) (serial.Port, error) {
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", name, err)
	}
	// Discard whatever queued up before we started listening.
	_ = port.ResetInputBuffer()
	return port, nil
}

// Stats counts decoder outcomes.
type Stats struct {
	Sentences uint64
	Checksum  uint64
	Malformed uint64
}

// Reader decodes sentences from a byte stream.
type Reader struct {
	r      io.Reader
	dec    Decoder
	logger *slog.Logger
	stats  Stats
}

// NewReader creates a Reader on r. A serial.Port with a read timeout
// returns (0, nil) on timeout, which Reader treats as "no data yet".
func NewReader(r io.Reader, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{r: r, logger: logger}
}

// Stats returns decode counters. Not safe for use while Run is active.
func (r *Reader) Stats() Stats {
	return r.stats
}

// Run reads until ctx ends or the stream fails, calling emit for each valid
// sentence. It returns nil on cancellation and io.EOF if the stream ends.
func (r *Reader) Run(ctx context.Context, emit func(sentence string)) error {
	buf := make([]byte, 256)
	for {
		if ctx.Err() != nil {
			return nil
		}
		n, err := r.r.Read(buf)
		for _, b := range buf[:n] {
			sentence, decErr := r.dec.Feed(b)
			switch {
			case decErr != nil:
				r.countError(decErr)
			case sentence != "":
				r.stats.Sentences++
				emit(sentence)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return io.EOF
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read gps: %w", err)
		}
	}
}

func (r *Reader) countError(err error) {
	if errors.Is(err, ErrChecksum) {
		r.stats.Checksum++
	} else {
		r.stats.Malformed++
	}
	r.logger.Debug("Dropped NMEA sentence", "error", err)
}

package control

import (
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hudview/hudview/internal/button"
	"github.com/hudview/hudview/internal/events"
	"github.com/hudview/hudview/internal/gps"
	"github.com/hudview/hudview/internal/metrics"
)

// DefaultLightFile is where the light sensor appends its readings.
const DefaultLightFile = "/tmp/hudview_light_sensor_output"

// handleReading interprets a stdout line from a known component.
func (s *Supervisor) handleReading(id ID, line string) {
	switch id {
	case Accelerometer:
		if x, y, z, ok := parseAccelLine(line); ok {
			metrics.SetAcceleration(x, y, z)
		}

	case GPS:
		fix, err := gps.ParseRMC(line)
		if err != nil {
			metrics.IncGPSSentences("malformed")
			s.logger.Debug("Unparsable GPS sentence", "line", line, "error", err)
			return
		}
		metrics.IncGPSSentences("ok")
		metrics.SetGPSFix(fix.Valid, fix.SpeedKMH)

	case HandlebarButtons:
		if strings.TrimSpace(line) != button.PushedMessage {
			return
		}
		metrics.IncButtonPresses()
		s.presses.Add(1)
		s.publish(events.ButtonPressedEvent{
			Pin:       button.DefaultPin,
			Count:     s.presses.Load(),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func parseAccelLine(line string) (x, y, z float64, ok bool) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	var v [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, 0, 0, false
		}
		v[i] = f
	}
	return v[0], v[1], v[2], true
}

// luxTail is how much of the light file end is read; readings are short lines.
const luxTail = 256

// lastLux returns the last reading in the light sensor output file. Only
// the end of the file is read since the sensor appends without bound.
func lastLux(path string) (float64, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, false
	}
	offset := max(info.Size()-luxTail, 0)
	buf := make([]byte, info.Size()-offset)
	if _, err := f.ReadAt(buf, offset); err != nil && !errors.Is(err, io.EOF) {
		return 0, false
	}

	lines := strings.Split(strings.TrimRight(string(buf), "\r\n \t"), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if last == "" || (offset > 0 && len(lines) == 1) {
		// A tail without a newline may start mid-line.
		return 0, false
	}
	v, err := strconv.ParseFloat(last, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

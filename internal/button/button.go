// Package button listens for presses of the handlebar button.
//
// The button pulls BCM pin 27 high when pushed. The pin is configured as a
// pulled-down input with rising-edge detection and every accepted edge is
// reported as a Press.
package button

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// DefaultPin is the BCM pin the button is wired to.
const DefaultPin = "GPIO27"

// DefaultDebounce ignores contact bounce after a press.
const DefaultDebounce = 200 * time.Millisecond

// PushedMessage is the line written for every press.
const PushedMessage = "BUTTON PUSHED"

// edgeTimeout bounds each WaitForEdge call so cancellation is noticed.
const edgeTimeout = 250 * time.Millisecond

// Press is one accepted button press.
type Press struct {
	Pin   string
	Count uint64
	Time  time.Time
}

var initOnce = sync.OnceValue(func() error {
	_, err := host.Init()
	return err
})

// Open initializes the host drivers and looks up the named pin.
func Open(name string) (gpio.PinIO, error) {
	if err := initOnce(); err != nil {
		return nil, fmt.Errorf("gpio init: %w", err)
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("gpio pin %s not found", name)
	}
	return pin, nil
}

// Listener turns rising edges on a pin into presses.
type Listener struct {
	pin      gpio.PinIn
	debounce time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewListener creates a listener on pin. A debounce of 0 accepts every edge.
func NewListener(pin gpio.PinIn, debounce time.Duration, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{pin: pin, debounce: debounce, logger: logger, now: time.Now}
}

// Run configures the pin and calls onPress for each press until ctx ends.
// It returns nil on cancellation.
func (l *Listener) Run(ctx context.Context, onPress func(Press)) error {
	if err := l.pin.In(gpio.PullDown, gpio.RisingEdge); err != nil {
		return fmt.Errorf("configure %s: %w", l.pin.Name(), err)
	}
	defer func() {
		// Stop edge detection on the way out.
		_ = l.pin.In(gpio.PullDown, gpio.NoEdge)
	}()
	l.logger.Info("Listening for button presses", "pin", l.pin.Name(), "debounce", l.debounce)

	var (
		count uint64
		last  time.Time
	)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if !l.pin.WaitForEdge(edgeTimeout) {
			continue
		}
		if l.pin.Read() != gpio.High {
			continue
		}

		now := l.now()
		if !last.IsZero() && now.Sub(last) < l.debounce {
			l.logger.Debug("Ignoring bounce", "pin", l.pin.Name(), "since_last", now.Sub(last))
			continue
		}
		last = now
		count++
		onPress(Press{Pin: l.pin.Name(), Count: count, Time: now})
	}
}

// PrintPress returns a callback writing PushedMessage to w for each press.
func PrintPress(w io.Writer) func(Press) {
	return func(Press) {
		fmt.Fprintln(w, PushedMessage)
	}
}

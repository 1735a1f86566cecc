package button

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type pressRecorder struct {
	mu      sync.Mutex
	presses []Press
	ch      chan Press
}

func newPressRecorder() *pressRecorder {
	return &pressRecorder{ch: make(chan Press, 16)}
}

func (r *pressRecorder) record(p Press) {
	r.mu.Lock()
	r.presses = append(r.presses, p)
	r.mu.Unlock()
	r.ch <- p
}

func (r *pressRecorder) wait(t *testing.T) Press {
	t.Helper()
	select {
	case p := <-r.ch:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for press")
		return Press{}
	}
}

// startListener runs l and returns once the pin is configured. In flushes
// pending edges, so an edge sent before then would be lost.
func startListener(t *testing.T, pin *gpiotest.Pin, l *Listener, onPress func(Press)) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx, onPress) }()
	t.Cleanup(cancel)
	waitConfigured(t, pin)
	return cancel, done
}

func waitConfigured(t *testing.T, pin *gpiotest.Pin) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		pin.Lock()
		pull := pin.P
		pin.Unlock()
		if pull == gpio.PullDown {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("pin pull = %v, never configured", pull)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestListenerConfiguresPin(t *testing.T) {
	pin := &gpiotest.Pin{N: DefaultPin, EdgesChan: make(chan gpio.Level)}
	l := NewListener(pin, 0, testLogger())
	rec := newPressRecorder()
	_, _ = startListener(t, pin, l, rec.record)

	pin.EdgesChan <- gpio.High
	if p := rec.wait(t); p.Count != 1 {
		t.Errorf("press count = %d, want 1", p.Count)
	}

	pin.Lock()
	pull := pin.P
	pin.Unlock()
	if pull != gpio.PullDown {
		t.Errorf("pull = %v, want PullDown", pull)
	}
}

func TestListenerFirstEdgeAfterStart(t *testing.T) {
	// A burst of presses right after start must all be reported.
	for run := 0; run < 5; run++ {
		pin := &gpiotest.Pin{N: DefaultPin, EdgesChan: make(chan gpio.Level)}
		l := NewListener(pin, 0, testLogger())
		rec := newPressRecorder()
		cancel, done := startListener(t, pin, l, rec.record)

		pin.EdgesChan <- gpio.High
		if p := rec.wait(t); p.Count != 1 {
			t.Fatalf("run %d: first press count = %d, want 1", run, p.Count)
		}
		cancel()
		<-done
	}
}

func TestListenerReportsPresses(t *testing.T) {
	pin := &gpiotest.Pin{N: DefaultPin, EdgesChan: make(chan gpio.Level)}
	l := NewListener(pin, 0, testLogger())
	rec := newPressRecorder()
	_, _ = startListener(t, pin, l, rec.record)

	for i := uint64(1); i <= 3; i++ {
		pin.EdgesChan <- gpio.High
		p := rec.wait(t)
		if p.Count != i || p.Pin != DefaultPin {
			t.Errorf("press %d = %+v", i, p)
		}
	}
}

func TestListenerIgnoresLowLevel(t *testing.T) {
	pin := &gpiotest.Pin{N: DefaultPin, EdgesChan: make(chan gpio.Level)}
	l := NewListener(pin, 0, testLogger())
	rec := newPressRecorder()
	_, _ = startListener(t, pin, l, rec.record)

	pin.EdgesChan <- gpio.Low
	pin.EdgesChan <- gpio.High
	if p := rec.wait(t); p.Count != 1 {
		t.Errorf("first accepted press count = %d, want 1", p.Count)
	}
}

func TestListenerDebounce(t *testing.T) {
	pin := &gpiotest.Pin{N: DefaultPin, EdgesChan: make(chan gpio.Level)}
	l := NewListener(pin, 100*time.Millisecond, testLogger())

	base := time.Unix(1000, 0)
	offsets := []time.Duration{0, 30 * time.Millisecond, 90 * time.Millisecond, 150 * time.Millisecond}
	var mu sync.Mutex
	i := 0
	l.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := base.Add(offsets[i])
		i++
		return t
	}

	rec := newPressRecorder()
	_, _ = startListener(t, pin, l, rec.record)

	for range offsets {
		pin.EdgesChan <- gpio.High
	}
	first := rec.wait(t)
	second := rec.wait(t)
	if first.Count != 1 || second.Count != 2 {
		t.Errorf("counts = %d, %d", first.Count, second.Count)
	}
	if got := second.Time.Sub(first.Time); got != 150*time.Millisecond {
		t.Errorf("second press offset = %v, want 150ms", got)
	}

	select {
	case p := <-rec.ch:
		t.Errorf("unexpected extra press %+v", p)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestListenerStopsOnCancel(t *testing.T) {
	pin := &gpiotest.Pin{N: DefaultPin, EdgesChan: make(chan gpio.Level)}
	l := NewListener(pin, 0, testLogger())
	cancel, done := startListener(t, pin, l, func(Press) {})

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestListenerConfigureError(t *testing.T) {
	// gpiotest refuses edge detection without an edge channel.
	pin := &gpiotest.Pin{N: DefaultPin}
	l := NewListener(pin, 0, testLogger())
	if err := l.Run(context.Background(), func(Press) {}); err == nil {
		t.Fatal("expected configuration error")
	}
}

func TestPrintPress(t *testing.T) {
	var buf bytes.Buffer
	cb := PrintPress(&buf)
	cb(Press{Count: 1})
	cb(Press{Count: 2})
	if got := buf.String(); got != "BUTTON PUSHED\nBUTTON PUSHED\n" {
		t.Errorf("output = %q", got)
	}
}

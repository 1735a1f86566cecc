package sensors

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"periph.io/x/conn/v3/i2c/i2ctest"
)

func noWait(context.Context, time.Duration) error { return nil }

func tslInitOps() []i2ctest.IO {
	return []i2ctest.IO{
		{Addr: TSL2561Addr, W: []byte{0x8A}, R: []byte{0x50}},
		{Addr: TSL2561Addr, W: []byte{0x80, 0x03}},
		{Addr: TSL2561Addr, W: []byte{0x81, 0x00}},
	}
}

func channelOps(ch0, ch1 uint16) []i2ctest.IO {
	return []i2ctest.IO{
		{Addr: TSL2561Addr, W: []byte{0xAC}, R: []byte{byte(ch0), byte(ch0 >> 8)}},
		{Addr: TSL2561Addr, W: []byte{0xAE}, R: []byte{byte(ch1), byte(ch1 >> 8)}},
	}
}

func checkConsumed(t *testing.T, bus *i2ctest.Playback) {
	t.Helper()
	if err := bus.Close(); err != nil {
		t.Errorf("playback not fully consumed: %v", err)
	}
}

func TestCalculateLux(t *testing.T) {
	tests := []struct {
		name        string
		ch0, ch1    uint16
		integration Integration
		gain16      bool
		want        uint32
	}{
		{"bright 13ms", 1000, 200, Integration13ms, false, 11086},
		{"dim with gain", 100, 10, Integration13ms, true, 81},
		{"402ms", 30000, 3000, Integration402ms, false, 13283},
		{"dark", 0, 0, Integration13ms, false, 0},
		{"infrared heavy", 100, 100, Integration13ms, false, 17},
		{"infrared exceeds broadband", 20, 50, Integration13ms, false, 0},
		{"clipped", 4901, 0, Integration13ms, false, SaturatedLux},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateLux(tt.ch0, tt.ch1, tt.integration, tt.gain16); got != tt.want {
				t.Errorf("CalculateLux(%d, %d) = %d, want %d", tt.ch0, tt.ch1, got, tt.want)
			}
		})
	}
}

func TestTSL2561Lux(t *testing.T) {
	ops := append(tslInitOps(), channelOps(1000, 200)...)
	ops = append(ops, i2ctest.IO{Addr: TSL2561Addr, W: []byte{0x80, 0x00}})
	bus := &i2ctest.Playback{Ops: ops, DontPanic: true}

	s, err := NewTSL2561(bus, TSL2561Addr)
	if err != nil {
		t.Fatalf("NewTSL2561: %v", err)
	}
	s.wait = noWait

	lux, err := s.Lux(context.Background())
	if err != nil {
		t.Fatalf("Lux: %v", err)
	}
	if lux != 11086 {
		t.Errorf("lux = %d, want 11086", lux)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	checkConsumed(t, bus)
}

func TestTSL2561AutoGain(t *testing.T) {
	ops := append(tslInitOps(), channelOps(50, 5)...)
	ops = append(ops, i2ctest.IO{Addr: TSL2561Addr, W: []byte{0x81, 0x10}})
	ops = append(ops, channelOps(800, 80)...)
	bus := &i2ctest.Playback{Ops: ops, DontPanic: true}

	s, err := NewTSL2561(bus, TSL2561Addr)
	if err != nil {
		t.Fatalf("NewTSL2561: %v", err)
	}
	s.wait = noWait

	lux, err := s.Lux(context.Background())
	if err != nil {
		t.Fatalf("Lux: %v", err)
	}
	if lux != 648 {
		t.Errorf("lux = %d, want 648", lux)
	}
	if !s.gain16 {
		t.Error("expected 16x gain after dim reading")
	}
	checkConsumed(t, bus)
}

func TestTSL2561WrongPart(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops:       []i2ctest.IO{{Addr: TSL2561Addr, W: []byte{0x8A}, R: []byte{0x20}}},
		DontPanic: true,
	}
	if _, err := NewTSL2561(bus, TSL2561Addr); err == nil {
		t.Fatal("expected error for unknown part id")
	}
}

func TestTSL2561WaitCancelled(t *testing.T) {
	bus := &i2ctest.Playback{Ops: tslInitOps(), DontPanic: true}
	s, err := NewTSL2561(bus, TSL2561Addr)
	if err != nil {
		t.Fatalf("NewTSL2561: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Lux(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Lux = %v, want context.Canceled", err)
	}
}

func mmaInitOps() []i2ctest.IO {
	return []i2ctest.IO{
		{Addr: MMA8451Addr, W: []byte{0x0D}, R: []byte{0x1A}},
		{Addr: MMA8451Addr, W: []byte{0x2B, 0x40}},
		{Addr: MMA8451Addr, W: []byte{0x2B}, R: []byte{0x40}},
		{Addr: MMA8451Addr, W: []byte{0x2B}, R: []byte{0x00}},
		{Addr: MMA8451Addr, W: []byte{0x2A, 0x00}},
		{Addr: MMA8451Addr, W: []byte{0x0E, 0x01}},
		{Addr: MMA8451Addr, W: []byte{0x2A, 0x05}},
	}
}

func TestMMA8451Acceleration(t *testing.T) {
	ops := append(mmaInitOps(), i2ctest.IO{
		Addr: MMA8451Addr,
		W:    []byte{0x01},
		R:    []byte{0x40, 0x00, 0xC0, 0x00, 0x10, 0x04},
	})
	bus := &i2ctest.Playback{Ops: ops, DontPanic: true}

	s, err := NewMMA8451(bus, MMA8451Addr, Range4G)
	if err != nil {
		t.Fatalf("NewMMA8451: %v", err)
	}
	v, err := s.Acceleration()
	if err != nil {
		t.Fatalf("Acceleration: %v", err)
	}

	want := Vector{X: 2 * StandardGravity, Y: -2 * StandardGravity, Z: 1025.0 / 2048 * StandardGravity}
	for _, c := range []struct {
		axis      string
		got, want float64
	}{{"x", v.X, want.X}, {"y", v.Y, want.Y}, {"z", v.Z, want.Z}} {
		if math.Abs(c.got-c.want) > 1e-9 {
			t.Errorf("%s = %f, want %f", c.axis, c.got, c.want)
		}
	}
	checkConsumed(t, bus)

	if got := AccelLine(Vector{X: 1, Y: -0.5, Z: 9.80665}); got != "1.000000,-0.500000,9.806650\n" {
		t.Errorf("AccelLine = %q", got)
	}
}

func TestMMA8451Errors(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops:       []i2ctest.IO{{Addr: MMA8451Addr, W: []byte{0x0D}, R: []byte{0x2A}}},
		DontPanic: true,
	}
	if _, err := NewMMA8451(bus, MMA8451Addr, Range4G); err == nil {
		t.Error("expected error for wrong device id")
	}

	if _, _, err := Range(3).config(); err == nil {
		t.Error("expected error for unsupported range")
	}
}

func TestPoll(t *testing.T) {
	var buf bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	n := 0
	err := Poll(ctx, time.Millisecond, &buf, func(context.Context) (string, error) {
		n++
		if n == 3 {
			cancel()
		}
		return LightLine(uint32(n * 10)), nil
	})
	if err != nil {
		t.Fatalf("Poll = %v", err)
	}
	if got := buf.String(); got != "10\n20\n30\n" {
		t.Errorf("output = %q", got)
	}
}

func TestPollSampleError(t *testing.T) {
	boom := errors.New("bus fault")
	err := Poll(context.Background(), time.Millisecond, &strings.Builder{}, func(context.Context) (string, error) {
		return "", boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("Poll = %v, want %v", err, boom)
	}
}

package sensors

import (
	"context"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
)

// MMA8451Addr is the accelerometer address with SA0 pulled high.
const MMA8451Addr = 0x1D

// StandardGravity converts g to m/s².
const StandardGravity = 9.80665

const (
	mmaRegOutXMSB     = 0x01
	mmaRegWhoAmI      = 0x0D
	mmaRegXYZDataCfg  = 0x0E
	mmaRegCtrl1       = 0x2A
	mmaRegCtrl2       = 0x2B
	mmaDeviceID       = 0x1A
	mmaCtrl1Active    = 0x01
	mmaCtrl1LowNoise  = 0x04
	mmaCtrl2Reset     = 0x40
	mmaResetPollLimit = 10
)

// Range is the full-scale range in g.
type Range int

// Supported ranges.
const (
	Range2G Range = 2
	Range4G Range = 4
	Range8G Range = 8
)

func (r Range) config() (cfg byte, countsPerG float64, err error) {
	switch r {
	case Range2G:
		return 0x00, 4096, nil
	case Range4G:
		return 0x01, 2048, nil
	case Range8G:
		return 0x02, 1024, nil
	}
	return 0, 0, fmt.Errorf("mma8451: unsupported range %dg", int(r))
}

// Vector is an acceleration in m/s².
type Vector struct {
	X, Y, Z float64
}

// MMA8451 is an MMA8451 three-axis accelerometer.
type MMA8451 struct {
	dev        *i2c.Dev
	countsPerG float64
}

// NewMMA8451 verifies the device, resets it and activates it at rng.
func NewMMA8451(bus i2c.Bus, addr uint16, rng Range) (*MMA8451, error) {
	s := &MMA8451{dev: &i2c.Dev{Bus: bus, Addr: addr}}

	id, err := readReg(s.dev, mmaRegWhoAmI, 1)
	if err != nil {
		return nil, fmt.Errorf("mma8451: %w", err)
	}
	if id[0] != mmaDeviceID {
		return nil, fmt.Errorf("mma8451: unexpected device id 0x%02X", id[0])
	}

	if err := writeReg(s.dev, mmaRegCtrl2, mmaCtrl2Reset); err != nil {
		return nil, fmt.Errorf("mma8451: reset: %w", err)
	}
	for i := 0; ; i++ {
		v, err := readReg(s.dev, mmaRegCtrl2, 1)
		if err != nil {
			return nil, fmt.Errorf("mma8451: %w", err)
		}
		if v[0]&mmaCtrl2Reset == 0 {
			break
		}
		if i >= mmaResetPollLimit {
			return nil, fmt.Errorf("mma8451: reset did not complete")
		}
		time.Sleep(time.Millisecond)
	}

	if err := s.SetRange(rng); err != nil {
		return nil, err
	}
	return s, nil
}

// SetRange puts the device in standby, changes the range and reactivates it.
func (s *MMA8451) SetRange(rng Range) error {
	cfg, counts, err := rng.config()
	if err != nil {
		return err
	}
	if err := writeReg(s.dev, mmaRegCtrl1, 0x00); err != nil {
		return fmt.Errorf("mma8451: standby: %w", err)
	}
	if err := writeReg(s.dev, mmaRegXYZDataCfg, cfg); err != nil {
		return fmt.Errorf("mma8451: set range: %w", err)
	}
	if err := writeReg(s.dev, mmaRegCtrl1, mmaCtrl1Active|mmaCtrl1LowNoise); err != nil {
		return fmt.Errorf("mma8451: activate: %w", err)
	}
	s.countsPerG = counts
	return nil
}

// Acceleration reads all three axes.
func (s *MMA8451) Acceleration() (Vector, error) {
	r, err := readReg(s.dev, mmaRegOutXMSB, 6)
	if err != nil {
		return Vector{}, fmt.Errorf("mma8451: %w", err)
	}
	axis := func(msb, lsb byte) float64 {
		// 14-bit left-justified two's complement
		raw := int16(uint16(msb)<<8|uint16(lsb)) >> 2
		return float64(raw) / s.countsPerG * StandardGravity
	}
	return Vector{
		X: axis(r[0], r[1]),
		Y: axis(r[2], r[3]),
		Z: axis(r[4], r[5]),
	}, nil
}

// Close puts the device in standby.
func (s *MMA8451) Close() error {
	return writeReg(s.dev, mmaRegCtrl1, 0x00)
}

// AccelLine formats a reading as "x,y,z".
func AccelLine(v Vector) string {
	return fmt.Sprintf("%f,%f,%f\n", v.X, v.Y, v.Z)
}

// AccelSampler adapts the sensor to Poll.
func AccelSampler(s *MMA8451) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		v, err := s.Acceleration()
		if err != nil {
			return "", err
		}
		return AccelLine(v), nil
	}
}

// LightSampler adapts the sensor to Poll.
func LightSampler(s *TSL2561) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		lux, err := s.Lux(ctx)
		if err != nil {
			return "", err
		}
		return LightLine(lux), nil
	}
}

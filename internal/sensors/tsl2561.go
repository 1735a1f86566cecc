package sensors

import (
	"context"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
)

// TSL2561Addr is the sensor address with the ADDR pin floating.
const TSL2561Addr = 0x39

// SaturatedLux is reported when either channel clips.
const SaturatedLux = 65536

const (
	tslCommand = 0x80
	tslWord    = 0x20

	tslRegControl = 0x00
	tslRegTiming  = 0x01
	tslRegID      = 0x0A
	tslRegChan0   = 0x0C
	tslRegChan1   = 0x0E

	tslPowerOn  = 0x03
	tslPowerOff = 0x00
	tslGain16x  = 0x10
)

// Integration is the ADC integration time.
type Integration byte

// Integration times.
const (
	Integration13ms  Integration = 0x00
	Integration101ms Integration = 0x01
	Integration402ms Integration = 0x02
)

// duration is the wait before a conversion is ready, with margin.
func (i Integration) duration() time.Duration {
	switch i {
	case Integration13ms:
		return 15 * time.Millisecond
	case Integration101ms:
		return 120 * time.Millisecond
	default:
		return 450 * time.Millisecond
	}
}

// limits per integration time: auto-gain window and clipping level.
func (i Integration) limits() (agcLow, agcHigh, clip uint16) {
	switch i {
	case Integration13ms:
		return 100, 4850, 4900
	case Integration101ms:
		return 200, 36000, 37000
	default:
		return 500, 63000, 65000
	}
}

// TSL2561 is a TSL2561 T/FN/CL package light sensor.
type TSL2561 struct {
	dev         *i2c.Dev
	integration Integration
	gain16      bool
	autoGain    bool
	wait        func(context.Context, time.Duration) error
}

// NewTSL2561 powers the sensor on and sets 13 ms integration with auto gain.
func NewTSL2561(bus i2c.Bus, addr uint16) (*TSL2561, error) {
	s := &TSL2561{
		dev:         &i2c.Dev{Bus: bus, Addr: addr},
		integration: Integration13ms,
		autoGain:    true,
		wait:        sleepCtx,
	}

	id, err := readReg(s.dev, tslCommand|tslRegID, 1)
	if err != nil {
		return nil, fmt.Errorf("tsl2561: %w", err)
	}
	if part := id[0] >> 4; part != 0x1 && part != 0x5 {
		return nil, fmt.Errorf("tsl2561: unexpected part id 0x%02X", id[0])
	}
	if err := writeReg(s.dev, tslCommand|tslRegControl, tslPowerOn); err != nil {
		return nil, fmt.Errorf("tsl2561: power on: %w", err)
	}
	if err := s.writeTiming(); err != nil {
		return nil, err
	}
	return s, nil
}

// SetIntegration changes the integration time.
func (s *TSL2561) SetIntegration(i Integration) error {
	s.integration = i
	return s.writeTiming()
}

// SetAutoGain toggles automatic switching between 1x and 16x gain.
func (s *TSL2561) SetAutoGain(on bool) {
	s.autoGain = on
}

func (s *TSL2561) writeTiming() error {
	v := byte(s.integration)
	if s.gain16 {
		v |= tslGain16x
	}
	if err := writeReg(s.dev, tslCommand|tslRegTiming, v); err != nil {
		return fmt.Errorf("tsl2561: set timing: %w", err)
	}
	return nil
}

// Channels waits one integration period and returns the broadband (CH0)
// and infrared (CH1) counts, adjusting gain once if auto gain is on.
func (s *TSL2561) Channels(ctx context.Context) (ch0, ch1 uint16, err error) {
	for attempt := 0; ; attempt++ {
		if err := s.wait(ctx, s.integration.duration()); err != nil {
			return 0, 0, err
		}
		if ch0, err = s.readWord(tslRegChan0); err != nil {
			return 0, 0, err
		}
		if ch1, err = s.readWord(tslRegChan1); err != nil {
			return 0, 0, err
		}
		if !s.autoGain || attempt > 0 {
			return ch0, ch1, nil
		}

		low, high, _ := s.integration.limits()
		switch {
		case !s.gain16 && ch0 < low:
			s.gain16 = true
		case s.gain16 && ch0 > high:
			s.gain16 = false
		default:
			return ch0, ch1, nil
		}
		if err := s.writeTiming(); err != nil {
			return 0, 0, err
		}
	}
}

func (s *TSL2561) readWord(reg byte) (uint16, error) {
	r, err := readReg(s.dev, tslCommand|tslWord|reg, 2)
	if err != nil {
		return 0, fmt.Errorf("tsl2561: %w", err)
	}
	return uint16(r[0]) | uint16(r[1])<<8, nil
}

// Lux takes a reading and converts it to lux.
func (s *TSL2561) Lux(ctx context.Context) (uint32, error) {
	ch0, ch1, err := s.Channels(ctx)
	if err != nil {
		return 0, err
	}
	return CalculateLux(ch0, ch1, s.integration, s.gain16), nil
}

// Close powers the sensor down.
func (s *TSL2561) Close() error {
	return writeReg(s.dev, tslCommand|tslRegControl, tslPowerOff)
}

// Fixed-point lux coefficients for the T/FN/CL package from the datasheet.
const (
	luxScale   = 14
	ratioScale = 9
	chScale    = 10

	chScaleTint0 = 0x7517 // 322/11 * 2^chScale
	chScaleTint1 = 0x0FE7 // 322/81 * 2^chScale
)

var luxSegments = []struct{ k, b, m uint32 }{
	{0x0040, 0x01f2, 0x01be},
	{0x0080, 0x0214, 0x02d1},
	{0x00c0, 0x023f, 0x037b},
	{0x0100, 0x0270, 0x03fe},
	{0x0138, 0x016f, 0x01fc},
	{0x019a, 0x00d2, 0x00fb},
	{0x029a, 0x0018, 0x0012},
}

// CalculateLux converts raw channel counts to lux using the datasheet's
// integer approximation.
func CalculateLux(ch0, ch1 uint16, integration Integration, gain16 bool) uint32 {
	_, _, clip := integration.limits()
	if ch0 > clip || ch1 > clip {
		return SaturatedLux
	}

	var scale uint64
	switch integration {
	case Integration13ms:
		scale = chScaleTint0
	case Integration101ms:
		scale = chScaleTint1
	default:
		scale = 1 << chScale
	}
	if !gain16 {
		scale <<= 4
	}

	channel0 := (uint64(ch0) * scale) >> chScale
	channel1 := (uint64(ch1) * scale) >> chScale

	var ratio1 uint64
	if channel0 != 0 {
		ratio1 = (channel1 << (ratioScale + 1)) / channel0
	}
	ratio := uint32((ratio1 + 1) >> 1)

	var b, m uint32 // above the last segment both are zero
	for _, seg := range luxSegments {
		if ratio <= seg.k {
			b, m = seg.b, seg.m
			break
		}
	}

	temp := int64(channel0)*int64(b) - int64(channel1)*int64(m)
	if temp < 0 {
		temp = 0
	}
	temp += 1 << (luxScale - 1)
	return uint32(temp >> luxScale)
}

// LightLine formats a lux reading for the light output file.
func LightLine(lux uint32) string {
	return fmt.Sprintf("%d\n", lux)
}

// Package sensors drives the HUD's I2C sensors: a TSL2561 ambient light
// sensor and an MMA8451 accelerometer.
package sensors

import (
	"context"
	"fmt"
	"io"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// DefaultBus is the Pi's user I2C bus.
const DefaultBus = "/dev/i2c-1"

// OpenBus initializes the host drivers and opens an I2C bus by name.
func OpenBus(name string) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %s: %w", name, err)
	}
	return bus, nil
}

func writeReg(d *i2c.Dev, reg, value byte) error {
	if err := d.Tx([]byte{reg, value}, nil); err != nil {
		return fmt.Errorf("write register 0x%02X: %w", reg, err)
	}
	return nil
}

func readReg(d *i2c.Dev, reg byte, n int) ([]byte, error) {
	r := make([]byte, n)
	if err := d.Tx([]byte{reg}, r); err != nil {
		return nil, fmt.Errorf("read register 0x%02X: %w", reg, err)
	}
	return r, nil
}

// sleepCtx waits for d or until ctx ends.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Poll calls sample immediately and then every interval until ctx ends,
// writing each returned line to w. It returns nil on cancellation and the
// first sample or write error otherwise.
func Poll(ctx context.Context, interval time.Duration, w io.Writer, sample func(context.Context) (string, error)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		line, err := sample(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if _, err := io.WriteString(w, line); err != nil {
			return fmt.Errorf("write reading: %w", err)
		}
		if ctx.Err() != nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

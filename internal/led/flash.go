package led

import (
	"context"
	"time"
)

// Flash switches ledType on for d, then off. It returns early if ctx ends,
// leaving the LED off.
func Flash(ctx context.Context, c Controller, ledType string, d time.Duration) error {
	if err := c.Set(ledType, true, "solid"); err != nil {
		return err
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
	return c.Set(ledType, false, "solid")
}

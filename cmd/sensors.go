package cmd

import (
	"log/slog"
	"os"
	"time"

	"github.com/hudview/hudview/internal/control"
	"github.com/hudview/hudview/internal/sensors"
	"github.com/spf13/cobra"
)

// CreateLightCmd creates the light command.
func CreateLightCmd() *cobra.Command {
	var (
		logs     logFlags
		bus      string
		output   string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "light",
		Short: "Log ambient light readings",
		Long:  `Reads the TSL2561 light sensor and appends the lux value to the output file at a fixed interval.`,
		Args:  cobra.NoArgs,
		Run: logs.run("light", func(logger *slog.Logger) error {
			b, err := sensors.OpenBus(bus)
			if err != nil {
				return failure("Failed to open I2C bus", err, "bus", bus)
			}
			defer b.Close()

			sensor, err := sensors.NewTSL2561(b, sensors.TSL2561Addr)
			if err != nil {
				return failure("Failed to initialize light sensor", err)
			}
			defer sensor.Close()

			f, err := os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
			if err != nil {
				return failure("Failed to open output file", err, "path", output)
			}
			defer f.Close()

			ctx, stop := signalContext()
			defer stop()

			logger.Info("Logging light readings", "path", output, "interval", interval)
			if err := sensors.Poll(ctx, interval, f, sensors.LightSampler(sensor)); err != nil {
				return failure("Light sensor failed", err)
			}
			logger.Info("Light sensor stopped")
			return nil
		}),
	}

	cmd.Flags().StringVar(&bus, "bus", sensors.DefaultBus, "I2C bus")
	cmd.Flags().StringVarP(&output, "output", "o", control.DefaultLightFile, "File the readings are appended to")
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "Time between readings")
	logs.register(cmd)
	return cmd
}

// CreateAccelCmd creates the accel command.
func CreateAccelCmd() *cobra.Command {
	var (
		logs     logFlags
		bus      string
		rng      int
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "accel",
		Short: "Print accelerometer readings",
		Long:  `Reads the MMA8451 accelerometer and prints x,y,z in m/s² on stdout at a fixed interval.`,
		Args:  cobra.NoArgs,
		Run: logs.run("accel", func(logger *slog.Logger) error {
			b, err := sensors.OpenBus(bus)
			if err != nil {
				return failure("Failed to open I2C bus", err, "bus", bus)
			}
			defer b.Close()

			sensor, err := sensors.NewMMA8451(b, sensors.MMA8451Addr, sensors.Range(rng))
			if err != nil {
				return failure("Failed to initialize accelerometer", err)
			}
			defer sensor.Close()

			ctx, stop := signalContext()
			defer stop()

			if err := sensors.Poll(ctx, interval, os.Stdout, sensors.AccelSampler(sensor)); err != nil {
				return failure("Accelerometer failed", err)
			}
			logger.Info("Accelerometer stopped")
			return nil
		}),
	}

	cmd.Flags().StringVar(&bus, "bus", sensors.DefaultBus, "I2C bus")
	cmd.Flags().IntVar(&rng, "range", int(sensors.Range4G), "Full-scale range in g (2, 4, 8)")
	cmd.Flags().DurationVar(&interval, "interval", 500*time.Millisecond, "Time between readings")
	logs.register(cmd)
	return cmd
}

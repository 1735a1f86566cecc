package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/hudview/hudview/internal/gps"
	"github.com/spf13/cobra"
)

// CreateGPSCmd creates the gps command.
func CreateGPSCmd() *cobra.Command {
	var (
		logs logFlags
		port string
		baud int
	)

	cmd := &cobra.Command{
		Use:   "gps",
		Short: "Read GPRMC sentences from the GPS receiver",
		Long:  `Decodes NMEA from the serial port and prints every GPRMC sentence with a valid checksum on stdout, one per line.`,
		Args:  cobra.NoArgs,
		Run: logs.run("gps", func(logger *slog.Logger) error {
			p, err := gps.OpenPort(port, baud)
			if err != nil {
				return failure("Failed to open serial port", err, "port", port)
			}
			defer p.Close()

			ctx, stop := signalContext()
			defer stop()

			reader := gps.NewReader(p, logger)
			err = reader.Run(ctx, func(sentence string) {
				fmt.Fprintln(os.Stdout, sentence)
			})
			stats := reader.Stats()
			logger.Info("GPS reader stopped",
				"sentences", stats.Sentences,
				"checksum_errors", stats.Checksum,
				"malformed", stats.Malformed)
			if err != nil && !errors.Is(err, io.EOF) {
				return failure("GPS reader failed", err)
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&port, "serial", gps.DefaultPort, "Serial port")
	cmd.Flags().IntVarP(&baud, "baud", "b", gps.DefaultBaudRate, "Baud rate")
	logs.register(cmd)
	return cmd
}

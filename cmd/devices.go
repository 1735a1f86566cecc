package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/hudview/hudview/internal/camera"
	"github.com/spf13/cobra"
)

// CreateDevicesCmd creates the devices command.
func CreateDevicesCmd() *cobra.Command {
	var (
		logs    logFlags
		pattern string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List V4L2 capture devices",
		Args:  cobra.NoArgs,
		Run: logs.run("devices", func(logger *slog.Logger) error {
			devices, err := camera.ListDevices(pattern)
			if err != nil {
				return failure("Failed to list devices", err)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(devices); err != nil {
					return failure("Failed to encode devices", err)
				}
				return nil
			}

			if len(devices) == 0 {
				fmt.Println("No devices found")
				return nil
			}
			for _, d := range devices {
				fmt.Println(d.Path)
				if d.Error != "" {
					fmt.Printf("  error: %s\n", d.Error)
					continue
				}
				for _, f := range d.Formats {
					fmt.Printf("  %s  %s  %s\n", f.FourCC, f.Description, strings.Join(f.Sizes, " "))
				}
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&pattern, "pattern", camera.DeviceGlob, "Glob matching device nodes")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	logs.register(cmd)
	return cmd
}

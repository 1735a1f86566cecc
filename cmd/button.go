package cmd

import (
	"log/slog"
	"os"
	"time"

	"github.com/hudview/hudview/internal/button"
	"github.com/hudview/hudview/internal/led"
	"github.com/spf13/cobra"
)

const pressFlash = 100 * time.Millisecond

// CreateButtonCmd creates the button command.
func CreateButtonCmd() *cobra.Command {
	var (
		logs     logFlags
		pin      string
		debounce time.Duration
		flash    bool
	)

	cmd := &cobra.Command{
		Use:   "button",
		Short: "Listen for handlebar button presses",
		Long:  `Waits for rising edges on the handlebar button pin and prints "` + button.PushedMessage + `" on stdout for each press.`,
		Args:  cobra.NoArgs,
		Run: logs.run("button", func(logger *slog.Logger) error {
			p, err := button.Open(pin)
			if err != nil {
				return failure("Failed to open button pin", err, "pin", pin)
			}

			ctx, stop := signalContext()
			defer stop()

			onPress := button.PrintPress(os.Stdout)
			if flash {
				ctrl := led.New(logger)
				printPress := onPress
				onPress = func(press button.Press) {
					printPress(press)
					go func() {
						if err := led.Flash(ctx, ctrl, led.StatusLED, pressFlash); err != nil {
							logger.Debug("LED flash failed", "error", err)
						}
					}()
				}
			}

			listener := button.NewListener(p, debounce, logger)
			if err := listener.Run(ctx, onPress); err != nil {
				return failure("Button listener failed", err)
			}
			logger.Info("Button listener stopped")
			return nil
		}),
	}

	cmd.Flags().StringVar(&pin, "pin", button.DefaultPin, "GPIO pin name")
	cmd.Flags().DurationVar(&debounce, "debounce", button.DefaultDebounce, "Ignore edges closer together than this")
	cmd.Flags().BoolVar(&flash, "led", false, "Flash the status LED on each press")
	logs.register(cmd)
	return cmd
}

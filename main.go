package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/hudview/hudview/cmd"
	"github.com/hudview/hudview/internal/api"
	"github.com/hudview/hudview/internal/config"
	"github.com/hudview/hudview/internal/control"
	"github.com/hudview/hudview/internal/events"
	"github.com/hudview/hudview/internal/led"
	"github.com/hudview/hudview/internal/logging"
	"github.com/hudview/hudview/internal/metrics"
	"github.com/spf13/cobra"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to the hudview options file" short:"c" default:"/etc/hudview/hudview.toml"`

	// Control settings
	ControlComponents    string `help:"Component configuration file" default:"/opt/HUDView/Control/default.toml" toml:"control.components" env:"CONTROL_COMPONENTS"`
	ControlWatch         bool   `help:"Reload the component configuration when it changes" default:"true" toml:"control.watch" env:"CONTROL_WATCH"`
	ControlStopTimeout   string `help:"Grace period before a stopping component is killed" default:"15s" toml:"control.stop_timeout" env:"CONTROL_STOP_TIMEOUT"`
	ControlLightFile     string `help:"File the light sensor appends readings to" default:"/tmp/hudview_light_sensor_output" toml:"control.light_file" env:"CONTROL_LIGHT_FILE"`
	ControlLightInterval string `help:"How often the light sensor file is read" default:"30s" toml:"control.light_interval" env:"CONTROL_LIGHT_INTERVAL"`

	// Server settings
	ServerEnabled bool   `help:"Serve the status API" default:"true" toml:"server.enabled" env:"SERVER_ENABLED"`
	Port          string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Features settings
	FeaturesLEDControl bool `help:"Drive the status LED from component state" default:"true" toml:"features.led_control_enabled" env:"FEATURES_LED_CONTROL"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingControl string `help:"Supervisor logging level" default:"info" toml:"logging.control" env:"LOGGING_CONTROL"`
	LoggingProcess string `help:"Component output logging level" default:"info" toml:"logging.process" env:"LOGGING_PROCESS"`
	LoggingAPI     string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

func main() {
	var root *cobra.Command

	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, root); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})

		// Subcommands share this callback, so the supervisor is only built
		// when the root command actually starts.
		hooks.OnStart(func() {
			// Extra module levels ([logging] led = "debug") come from the
			// options file; the named flags win for their modules.
			logCfg := config.LoadLoggingConfig(opts.Config)
			logCfg.Level = opts.LoggingLevel
			logCfg.Format = opts.LoggingFormat
			logCfg.Modules["control"] = opts.LoggingControl
			logCfg.Modules["process"] = opts.LoggingProcess
			logCfg.Modules["api"] = opts.LoggingAPI
			logCfg.Modules["http"] = opts.LoggingAPI
			logging.Initialize(logCfg)
			logger := logging.GetLogger("main")

			// Create event bus for in-process event handling
			eventBus := events.New()

			// Forward log records to SSE subscribers
			logging.SetLogCallback(func(entry logging.LogEntry) {
				eventBus.Publish(events.LogEntryEvent{
					Seq:        entry.Seq,
					Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
					Level:      entry.Level,
					Module:     entry.Module,
					Message:    entry.Message,
					Attributes: entry.Attributes,
				})
			})

			var ledController led.Controller
			if opts.FeaturesLEDControl {
				logger.Info("LED control enabled, initializing")
				ledController = led.New(logger)
			}

			supervisor := control.New(control.Options{
				ConfigPath:    opts.ControlComponents,
				Watch:         opts.ControlWatch,
				LightFile:     opts.ControlLightFile,
				LightInterval: parseDuration(logger, "control.light_interval", opts.ControlLightInterval, 30*time.Second),
				StopTimeout:   parseDuration(logger, "control.stop_timeout", opts.ControlStopTimeout, 15*time.Second),
				Bus:           eventBus,
				LED:           ledController,
				Logger:        logging.GetLogger("control"),
			})

			var server *api.Server
			if opts.ServerEnabled {
				server = api.NewServer(&api.Options{
					AuthUsername:   opts.AuthUsername,
					AuthPassword:   opts.AuthPassword,
					Components:     supervisor,
					EventBus:       eventBus,
					LEDController:  ledController,
					MetricsHandler: metrics.Handler(),
				})
			}

			if server != nil {
				go func() {
					logger.Info("Starting HTTP server", "port", opts.Port)
					if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
						logger.Error("HTTP server failed", "error", startErr)
					}
				}()
			}

			err := supervisor.Run(ctx)
			close(done)
			if server != nil {
				if stopErr := server.Stop(); stopErr != nil {
					logger.Error("Error stopping HTTP server", "error", stopErr)
				}
			}
			if err != nil {
				logger.Error("Control stopped with error", "error", err)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logging.GetLogger("main").Info("Shutting down")
			cancel()
			<-done
		})
	})

	root = cli.Root()
	root.Use = "hudview"
	root.Short = "Motorcycle HUD node: component supervisor and peripheral commands"

	root.AddCommand(
		cmd.CreateCameraCmd(),
		cmd.CreateButtonCmd(),
		cmd.CreateGPSCmd(),
		cmd.CreateLightCmd(),
		cmd.CreateAccelCmd(),
		cmd.CreateDevicesCmd(),
		cmd.CreateVersionCmd(),
	)

	cli.Run()
}

func parseDuration(logger *slog.Logger, key, value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		logger.Warn("Invalid duration, using default", "option", key, "value", value, "default", fallback)
		return fallback
	}
	return d
}

// Package logging provides structured logging with per-module log level configuration.
//
// Records go to the systemd journal when journald is available and to stderr
// otherwise. Stdout is never used: component processes print their readings
// there for the supervisor. Every record is also kept in an in-memory ring
// buffer served by the status API.
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"camera":  "debug",
//			"control": "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("gps")
//	logger.Info("Port opened", "port", "/dev/ttyS0")
//
// Loggers obtained before Initialize are cached and pick up the configured
// level when it runs.
//
// View journal output with:
//
//	journalctl -t hudview -f
//	journalctl -t hudview MODULE=camera
//
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	camera = "debug"
package logging

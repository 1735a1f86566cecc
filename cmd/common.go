package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hudview/hudview/internal/logging"
	"github.com/spf13/cobra"
)

// logFlags are shared by every component command. Components print their
// data on stdout, so logs always go to stderr or the journal.
type logFlags struct {
	level string
	json  bool
}

func (f *logFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.level, "log-level", "info", "Logging level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&f.json, "log-json", false, "Log in JSON format")
}

// logger initializes logging and returns the module logger.
func (f *logFlags) logger(module string) *slog.Logger {
	cfg := logging.Config{Level: f.level, Format: "text"}
	if f.json {
		cfg.Format = "json"
	}
	logging.Initialize(cfg)
	return logging.GetLogger(module)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// commandError carries the log message and attributes of a failed command.
type commandError struct {
	msg  string
	err  error
	args []any
}

func (e *commandError) Error() string { return e.msg + ": " + e.err.Error() }

func (e *commandError) Unwrap() error { return e.err }

// failure wraps err with the message logged when the command exits.
func failure(msg string, err error, args ...any) error {
	return &commandError{msg: msg, err: err, args: args}
}

// run adapts a command body to cobra. The body's deferred cleanup has run
// by the time a failure is logged and the process exits non-zero.
func (f *logFlags) run(module string, body func(logger *slog.Logger) error) func(*cobra.Command, []string) {
	return func(_ *cobra.Command, _ []string) {
		logger := f.logger(module)
		if err := body(logger); err != nil {
			logFailure(logger, err)
			os.Exit(1)
		}
	}
}

func logFailure(logger *slog.Logger, err error) {
	var ce *commandError
	if errors.As(err, &ce) {
		logger.Error(ce.msg, append([]any{"error", ce.err}, ce.args...)...)
		return
	}
	logger.Error("Command failed", "error", err)
}

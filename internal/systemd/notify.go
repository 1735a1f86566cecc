// Package systemd reports service state to the service manager.
package systemd

import (
	"fmt"
	"log/slog"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Notification states.
const (
	Ready     = daemon.SdNotifyReady
	Stopping  = daemon.SdNotifyStopping
	Reloading = daemon.SdNotifyReloading
	Watchdog  = daemon.SdNotifyWatchdog
)

// notify is replaced in tests.
var notify = daemon.SdNotify

// Notify sends state to systemd. Outside a notify-type unit it does nothing.
func Notify(logger *slog.Logger, state string) {
	sent, err := notify(false, state)
	switch {
	case err != nil:
		logger.Warn("sd_notify failed", "state", state, "error", err)
	case sent:
		logger.Debug("sd_notify sent", "state", state)
	}
}

// Status formats a free-form STATUS= line.
func Status(format string, args ...any) string {
	return "STATUS=" + fmt.Sprintf(format, args...)
}

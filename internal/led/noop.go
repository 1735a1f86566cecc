package led

import (
	"log/slog"
	"sync"
)

// noop stands in on boards without a usable LED. It remembers the last
// requested state per LED and logs only changes, since the manager re-applies
// the status LED on every component event.
type noop struct {
	logger *slog.Logger

	mu   sync.Mutex
	last map[string]string
}

func newNoop(logger *slog.Logger) *noop {
	return &noop{logger: logger, last: make(map[string]string)}
}

func (n *noop) Set(ledType string, enabled bool, pattern string) error {
	state := "off"
	if enabled {
		state = "on " + pattern
	}

	n.mu.Lock()
	changed := n.last[ledType] != state
	n.last[ledType] = state
	n.mu.Unlock()

	if changed {
		n.logger.Debug("LED not available, ignoring", "led_type", ledType, "state", state)
	}
	return nil
}

func (n *noop) Available() []string { return []string{} }

func (n *noop) Patterns() []string { return []string{} }

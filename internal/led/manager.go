package led

import (
	"log/slog"
	"sync"

	"github.com/hudview/hudview/internal/events"
)

// Manager subscribes to component events and drives the status LED from the
// aggregate state: solid when every component runs, blinking otherwise.
type Manager struct {
	controller  Controller
	eventBus    *events.Bus
	unsubscribe func()
	logger      *slog.Logger

	mu      sync.Mutex
	running map[string]bool // component -> running
}

// NewManager creates a new LED manager that reacts to component state changes
func NewManager(controller Controller, eventBus *events.Bus, logger *slog.Logger) *Manager {
	return &Manager{
		controller: controller,
		eventBus:   eventBus,
		logger:     logger,
		running:    make(map[string]bool),
	}
}

// Start begins listening for component state change events
func (m *Manager) Start() {
	m.unsubscribe = m.eventBus.Subscribe(func(e events.ComponentStateChangedEvent) {
		m.handleEvent(e)
	})
	m.updateStatusLED()
	m.logger.Info("LED manager started")
}

// Stop unsubscribes from events and switches the LED off.
func (m *Manager) Stop() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	if err := m.controller.Set(StatusLED, false, "solid"); err != nil {
		m.logger.Debug("Failed to switch status LED off", "error", err)
	}
	m.logger.Info("LED manager stopped")
}

// Forget drops a component that is no longer configured.
func (m *Manager) Forget(component string) {
	m.mu.Lock()
	delete(m.running, component)
	m.mu.Unlock()
	m.updateStatusLED()
}

func (m *Manager) handleEvent(event events.ComponentStateChangedEvent) {
	component := event.GetComponent()
	running := event.IsRunning()

	m.mu.Lock()
	m.running[component] = running
	m.mu.Unlock()

	m.logger.Debug("Component state changed", "component", component, "running", running)
	m.updateStatusLED()
}

// AllRunning reports whether at least one component is known and all are running.
func (m *Manager) AllRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.running) == 0 {
		return false
	}
	for _, running := range m.running {
		if !running {
			return false
		}
	}
	return true
}

func (m *Manager) updateStatusLED() {
	pattern := "blink"
	if m.AllRunning() {
		pattern = "solid"
	}
	if err := m.controller.Set(StatusLED, true, pattern); err != nil {
		m.logger.Warn("Failed to set status LED", "pattern", pattern, "error", err)
		return
	}
	m.logger.Debug("Status LED updated", "pattern", pattern)
}

// GetController returns the underlying LED controller
func (m *Manager) GetController() Controller {
	return m.controller
}

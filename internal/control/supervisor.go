package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hudview/hudview/internal/config"
	"github.com/hudview/hudview/internal/events"
	"github.com/hudview/hudview/internal/led"
	"github.com/hudview/hudview/internal/metrics"
	"github.com/hudview/hudview/internal/process"
	"github.com/hudview/hudview/internal/systemd"
)

// Options configures a Supervisor.
type Options struct {
	ConfigPath string
	// Watch enables hot reload of ConfigPath.
	Watch    bool
	Debounce time.Duration

	// LightFile is polled for the latest lux reading when LightSensor runs.
	LightFile     string
	LightInterval time.Duration

	StopTimeout time.Duration

	Bus    *events.Bus
	LED    led.Controller // optional
	Logger *slog.Logger
}

// Status describes one configured component.
type Status struct {
	Name         string     `json:"name"`
	Program      string     `json:"program"`
	Enabled      bool       `json:"enabled"`
	State        string     `json:"state"`
	PID          int        `json:"pid,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	ExitCode     int        `json:"exit_code"`
	RestartCount int        `json:"restart_count"`
	LastError    string     `json:"last_error,omitempty"`
	LastLine     string     `json:"last_line,omitempty"`
}

// Supervisor runs the configured components as child processes.
type Supervisor struct {
	opts   Options
	logger *slog.Logger
	bus    *events.Bus
	pool   process.Pool
	leds   *led.Manager

	mu       sync.RWMutex
	cfg      *Config
	lastLine map[string]string

	presses atomic.Uint64
}

// New creates a supervisor. Nothing runs until Run.
func New(opts Options) *Supervisor {
	if opts.ConfigPath == "" {
		opts.ConfigPath = DefaultConfigPath
	}
	if opts.Debounce <= 0 {
		opts.Debounce = time.Second
	}
	if opts.LightFile == "" {
		opts.LightFile = DefaultLightFile
	}
	if opts.LightInterval <= 0 {
		opts.LightInterval = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Bus == nil {
		opts.Bus = events.New()
	}

	s := &Supervisor{
		opts:     opts,
		logger:   opts.Logger,
		bus:      opts.Bus,
		lastLine: make(map[string]string),
	}
	s.pool = process.NewPool(&process.PoolOptions{
		CommandProvider:  s.commandFor,
		OnStateChange:    s.onStateChange,
		ConfigureProcess: s.configureProcess,
		StopTimeout:      opts.StopTimeout,
		Logger:           opts.Logger,
	})
	if opts.LED != nil {
		s.leds = led.NewManager(opts.LED, opts.Bus, opts.Logger)
	}
	return s
}

// Run loads the configuration, starts every enabled component and blocks
// until ctx ends. A component that fails to start stops the rest and makes
// Run return an error.
func (s *Supervisor) Run(ctx context.Context) error {
	cfg, err := LoadConfig(s.opts.ConfigPath)
	if err != nil {
		return err
	}
	s.logger.Info("Loaded component config", "path", s.opts.ConfigPath, "components", len(cfg.Components))

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()

	if s.leds != nil {
		s.leds.Start()
		defer s.leds.Stop()
	}

	var startErrs []error
	for _, comp := range cfg.Components {
		if !comp.Enabled {
			s.logger.Info("Component disabled", "component", comp.Name)
			continue
		}
		if err := s.pool.Start(comp.Name); err != nil {
			startErrs = append(startErrs, fmt.Errorf("component %s: %w", comp.Name, err))
			continue
		}
		s.logger.Info("Started component", "component", comp.Name, "pid", s.pool.GetStatus(comp.Name).PID)
	}
	if err := errors.Join(startErrs...); err != nil {
		s.pool.StopAll()
		return err
	}

	if s.opts.Watch {
		watcher := config.NewConfigWatcher(s.opts.ConfigPath, LoadConfig, s.logger,
			config.WithDebounce[*Config](s.opts.Debounce),
			config.WithErrorHandler[*Config](func(err error) {
				s.logger.Error("Rejected component config, keeping the running set", "error", err)
			}))
		watcher.OnReload(s.Apply)
		if err := watcher.Start(); err != nil {
			s.logger.Warn("Config hot reload unavailable", "error", err)
		} else {
			defer watcher.Stop()
		}
	}

	go s.pollLight(ctx)

	systemd.Notify(s.logger, systemd.Ready)
	systemd.Notify(s.logger, systemd.Status("%d components running", s.runningCount()))

	<-ctx.Done()

	systemd.Notify(s.logger, systemd.Stopping)
	s.logger.Info("Shutting down components")
	s.pool.StopAll()
	return nil
}

// Apply switches to cfg: removed or disabled components stop, changed ones
// restart and new ones start.
func (s *Supervisor) Apply(cfg *Config) {
	s.mu.Lock()
	old := s.cfg
	s.cfg = cfg
	s.mu.Unlock()

	systemd.Notify(s.logger, systemd.Reloading)
	defer systemd.Notify(s.logger, systemd.Ready)

	if old != nil {
		for _, prev := range old.Components {
			next, ok := cfg.Get(prev.Name)
			if !prev.Enabled || (ok && next.Enabled) {
				continue
			}
			s.logger.Info("Stopping component removed from config", "component", prev.Name)
			if err := s.pool.Stop(prev.Name); err != nil {
				s.logger.Warn("Failed to stop component", "component", prev.Name, "error", err)
			}
			s.forget(prev.Name)
		}
	}

	for _, next := range cfg.Components {
		if !next.Enabled {
			continue
		}
		var prev Component
		var existed bool
		if old != nil {
			prev, existed = old.Get(next.Name)
		}

		switch {
		case !existed || !prev.Enabled:
			s.logger.Info("Starting component added to config", "component", next.Name)
			if err := s.pool.Start(next.Name); err != nil {
				s.logger.Error("Failed to start component", "component", next.Name, "error", err)
			}
		case prev.Program != next.Program:
			s.logger.Info("Component program changed, restarting", "component", next.Name, "program", next.Program)
			if err := s.pool.Restart(next.Name); err != nil {
				s.logger.Error("Failed to restart component", "component", next.Name, "error", err)
			}
		}
	}
}

// Restart restarts one configured component by name.
func (s *Supervisor) Restart(name string) error {
	if _, err := ParseID(name); err != nil {
		return err
	}
	comp, ok := s.component(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotConfigured, name)
	}
	if !comp.Enabled {
		return fmt.Errorf("%w: %s", ErrDisabled, name)
	}
	return s.pool.Restart(name)
}

// Components returns the status of every configured component.
func (s *Supervisor) Components() []Status {
	s.mu.RLock()
	var comps []Component
	if s.cfg != nil {
		comps = append(comps, s.cfg.Components...)
	}
	s.mu.RUnlock()

	out := make([]Status, 0, len(comps))
	for _, comp := range comps {
		out = append(out, s.status(comp))
	}
	return out
}

// Component returns the status of one configured component.
func (s *Supervisor) Component(name string) (Status, error) {
	if _, err := ParseID(name); err != nil {
		return Status{}, err
	}
	comp, ok := s.component(name)
	if !ok {
		return Status{}, fmt.Errorf("%w: %s", ErrNotConfigured, name)
	}
	return s.status(comp), nil
}

func (s *Supervisor) status(comp Component) Status {
	info := s.pool.GetStatus(comp.Name)
	st := Status{
		Name:         comp.Name,
		Program:      comp.Program,
		Enabled:      comp.Enabled,
		State:        string(info.State),
		PID:          info.PID,
		ExitCode:     info.ExitCode,
		RestartCount: info.RestartCount,
	}
	if !info.StartedAt.IsZero() {
		t := info.StartedAt
		st.StartedAt = &t
	}
	if info.LastError != nil {
		st.LastError = info.LastError.Error()
	}
	s.mu.RLock()
	st.LastLine = s.lastLine[comp.Name]
	s.mu.RUnlock()
	return st
}

func (s *Supervisor) component(name string) (Component, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cfg == nil {
		return Component{}, false
	}
	return s.cfg.Get(name)
}

func (s *Supervisor) runningCount() int {
	n := 0
	for _, st := range s.Components() {
		if st.State == string(process.StateRunning) {
			n++
		}
	}
	return n
}

func (s *Supervisor) commandFor(name string) (string, error) {
	comp, ok := s.component(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownComponent, name)
	}
	return comp.Program, nil
}

func (s *Supervisor) configureProcess(name string, proc *process.Process) {
	id, _ := ParseID(name)
	proc.SetLogParser(s.logger.With("component", name), parseComponentLog)
	proc.SetOutputHandler(process.OutputHandlerFunc(func(source, line string) {
		if source != "stdout" {
			return
		}
		s.mu.Lock()
		s.lastLine[name] = line
		s.mu.Unlock()

		metrics.IncComponentOutput(name)
		s.publish(events.ComponentOutputEvent{
			Component: name,
			Line:      line,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
		s.handleReading(id, line)
	}))
}

// parseComponentLog keeps high-rate data lines at debug and lifts the level
// of stderr lines written by slog text handlers.
func parseComponentLog(source, line string) (string, string) {
	if source == "stdout" {
		return "debug", line
	}
	for _, lvl := range []string{"ERROR", "WARN", "DEBUG", "INFO"} {
		if strings.Contains(line, "level="+lvl) {
			return strings.ToLower(lvl), line
		}
	}
	return "info", line
}

func (s *Supervisor) onStateChange(name string, _, newState process.State, err error) {
	running := newState == process.StateRunning
	metrics.SetComponentUp(name, running)
	if err != nil && newState == process.StateError {
		s.logger.Error("Component failed", "component", name, "error", err)
	}
	s.publish(events.ComponentStateChangedEvent{
		Component: name,
		State:     string(newState),
		Running:   running,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Supervisor) forget(name string) {
	s.mu.Lock()
	delete(s.lastLine, name)
	s.mu.Unlock()
	metrics.DeleteComponentMetrics(name)
	if s.leds != nil {
		s.leds.Forget(name)
	}
}

func (s *Supervisor) publish(ev events.Event) {
	s.bus.Publish(ev)
}

// pollLight mirrors the light sensor's output file into metrics.
func (s *Supervisor) pollLight(ctx context.Context) {
	ticker := time.NewTicker(s.opts.LightInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if !s.pool.IsRunning(LightSensor.String()) {
			continue
		}
		if lux, ok := lastLux(s.opts.LightFile); ok {
			metrics.SetLightLux(lux)
		}
	}
}

package process

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const defaultStopTimeout = 15 * time.Second

// Pool manages multiple named processes with lifecycle control.
type Pool interface {
	// Start starts a process by ID. Returns error if already running or
	// if the executable could not be started.
	Start(id string) error

	// Stop gracefully stops a process by ID.
	Stop(id string) error

	// Restart stops and restarts a process.
	Restart(id string) error

	// GetStatus returns process info. Returns idle state if not found.
	GetStatus(id string) *Info

	// IsRunning checks if a process is currently running.
	IsRunning(id string) bool

	// StopAll gracefully stops all running processes.
	StopAll()
}

// managedProcess tracks a running process within the pool.
type managedProcess struct {
	proc         *Process
	id           string
	command      string
	state        State
	pid          int
	startedAt    time.Time
	exitCode     int
	restartCount int
	lastError    error
	cancel       context.CancelFunc
	done         chan struct{}
}

// pool implements the Pool interface.
type pool struct {
	opts      PoolOptions
	processes map[string]*managedProcess
	mu        sync.RWMutex
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewPool creates a new process pool.
func NewPool(opts *PoolOptions) Pool {
	if opts == nil || opts.CommandProvider == nil {
		panic("PoolOptions with CommandProvider is required")
	}

	ctx, cancel := context.WithCancel(context.Background())

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	o := *opts
	if o.StopTimeout <= 0 {
		o.StopTimeout = defaultStopTimeout
	}

	return &pool{
		opts:      o,
		processes: make(map[string]*managedProcess),
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start starts a process by ID.
func (p *pool) Start(id string) error {
	p.mu.Lock()
	if mp, exists := p.processes[id]; exists {
		if mp.state.Active() {
			p.mu.Unlock()
			return fmt.Errorf("process %s already running", id)
		}
	}

	command, err := p.opts.CommandProvider(id)
	if err != nil {
		p.mu.Unlock()
		return fmt.Errorf("failed to generate command: %w", err)
	}

	ctx, cancel := context.WithCancel(p.ctx)
	mp := &managedProcess{
		id:      id,
		command: command,
		state:   StateStarting,
		cancel:  cancel,
		done:    make(chan struct{}),
		proc:    NewProcess(id, command, p.logger),
	}
	if p.opts.ConfigureProcess != nil {
		p.opts.ConfigureProcess(id, mp.proc)
	}
	p.processes[id] = mp
	p.mu.Unlock()

	p.notifyStateChange(id, StateIdle, StateStarting, nil)

	if err := mp.proc.Start(); err != nil {
		cancel()
		close(mp.done)
		p.mu.Lock()
		mp.state = StateError
		mp.lastError = err
		mp.exitCode = 1
		p.mu.Unlock()
		p.logger.Error("Failed to start process", "id", id, "command", command, "error", err)
		p.notifyStateChange(id, StateStarting, StateError, err)
		return fmt.Errorf("start %s: %w", id, err)
	}

	p.mu.Lock()
	mp.pid = mp.proc.PID()
	mp.startedAt = time.Now()
	promoted := mp.state == StateStarting
	if promoted {
		mp.state = StateRunning
	}
	p.mu.Unlock()
	if promoted {
		p.notifyStateChange(id, StateStarting, StateRunning, nil)
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer close(mp.done)
		p.runProcess(ctx, mp)
	}()

	return nil
}

// runProcess waits for the process and records how it ended.
func (p *pool) runProcess(ctx context.Context, mp *managedProcess) {
	exitCode := mp.proc.Wait(ctx)

	p.mu.Lock()
	oldState := mp.state
	mp.exitCode = exitCode
	switch {
	case ctx.Err() != nil:
		mp.state = StateIdle
	case exitCode != 0:
		mp.state = StateError
		mp.lastError = fmt.Errorf("process exited with code %d", exitCode)
		p.logger.Error("Process crashed", "id", mp.id, "exit_code", exitCode)
	default:
		mp.state = StateIdle
	}
	newState := mp.state
	lastErr := mp.lastError
	p.mu.Unlock()

	p.notifyStateChange(mp.id, oldState, newState, lastErr)
	p.logger.Info("Process stopped", "id", mp.id, "exit_code", exitCode)
}

// Stop gracefully stops a process by ID.
func (p *pool) Stop(id string) error {
	p.mu.Lock()
	mp, exists := p.processes[id]
	if !exists {
		p.mu.Unlock()
		return nil
	}

	if mp.state != StateRunning && mp.state != StateStarting {
		p.mu.Unlock()
		return nil
	}

	oldState := mp.state
	mp.state = StateStopping
	p.mu.Unlock()

	p.notifyStateChange(id, oldState, StateStopping, nil)
	p.logger.Info("Stopping process", "id", id)

	mp.cancel()

	var err error
	select {
	case <-mp.done:
	case <-time.After(p.opts.StopTimeout):
		p.logger.Warn("Timeout waiting for process to stop", "id", id)
		err = fmt.Errorf("process %s did not stop within %s", id, p.opts.StopTimeout)
	}

	p.mu.Lock()
	if p.processes[id] == mp {
		delete(p.processes, id)
	}
	p.mu.Unlock()

	return err
}

// Restart stops and restarts a process.
func (p *pool) Restart(id string) error {
	p.logger.Info("Restarting process", "id", id)

	p.mu.RLock()
	restarts := 0
	if mp, ok := p.processes[id]; ok {
		restarts = mp.restartCount
	}
	p.mu.RUnlock()

	if err := p.Stop(id); err != nil {
		return fmt.Errorf("failed to stop process: %w", err)
	}
	err := p.Start(id)

	p.mu.Lock()
	if mp, ok := p.processes[id]; ok {
		mp.restartCount = restarts + 1
	}
	p.mu.Unlock()
	return err
}

// GetStatus returns process info.
func (p *pool) GetStatus(id string) *Info {
	p.mu.RLock()
	defer p.mu.RUnlock()

	mp, exists := p.processes[id]
	if !exists {
		return &Info{ID: id, State: StateIdle}
	}

	info := &Info{
		ID:           id,
		Command:      mp.command,
		State:        mp.state,
		StartedAt:    mp.startedAt,
		ExitCode:     mp.exitCode,
		RestartCount: mp.restartCount,
		LastError:    mp.lastError,
	}
	if mp.state == StateRunning || mp.state == StateStopping {
		info.PID = mp.pid
	}
	return info
}

// IsRunning checks if a process is currently running.
func (p *pool) IsRunning(id string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	mp, exists := p.processes[id]
	return exists && mp.state == StateRunning
}

// StopAll gracefully stops all running processes.
func (p *pool) StopAll() {
	p.logger.Info("Stopping all processes")

	p.mu.RLock()
	ids := make([]string, 0, len(p.processes))
	for id := range p.processes {
		ids = append(ids, id)
	}
	p.mu.RUnlock()

	for _, id := range ids {
		_ = p.Stop(id)
	}

	p.cancel()
	p.wg.Wait()
	p.logger.Info("All processes stopped")
}

// notifyStateChange invokes the OnStateChange callback if configured.
func (p *pool) notifyStateChange(id string, oldState, newState State, err error) {
	if p.opts.OnStateChange != nil {
		p.opts.OnStateChange(id, oldState, newState, err)
	}
}

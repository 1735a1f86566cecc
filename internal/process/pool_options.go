package process

import (
	"log/slog"
	"time"
)

// CommandProvider returns the command line for a process ID.
type CommandProvider func(id string) (command string, err error)

// StateChangeCallback is called when a process state changes.
type StateChangeCallback func(id string, oldState, newState State, err error)

// Configurer configures a Process before it starts.
type Configurer func(id string, proc *Process)

// PoolOptions configures a new Pool.
type PoolOptions struct {
	// CommandProvider generates the command for a given process ID (required).
	CommandProvider CommandProvider

	// OnStateChange is called when process state transitions (optional).
	OnStateChange StateChangeCallback

	// ConfigureProcess allows customization of the Process before start (optional).
	ConfigureProcess Configurer

	// StopTimeout bounds how long Stop waits for a process. Default 15s.
	StopTimeout time.Duration

	// Logger for pool operations. If nil, uses slog.Default().
	Logger *slog.Logger
}

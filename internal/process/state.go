package process

import "time"

// State is the lifecycle state of a pooled process.
type State string

// Process states. A process moves idle → starting → running → stopping →
// idle, or to error when it fails to start or exits on its own with a
// non-zero code.
const (
	StateIdle     State = "idle"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
	StateError    State = "error"
)

// Active reports whether a process exists for this state.
func (s State) Active() bool {
	return s == StateStarting || s == StateRunning || s == StateStopping
}

// Info is a snapshot of a pooled process.
type Info struct {
	ID           string
	Command      string
	State        State
	PID          int // only while running or stopping
	StartedAt    time.Time
	ExitCode     int
	RestartCount int
	LastError    error
}

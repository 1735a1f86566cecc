package events

// Event type constants for kelindar/event.
const (
	TypeButtonPressed uint32 = iota + 1
	TypeComponentStateChanged
	TypeComponentOutput
	TypeFrameStats
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// ButtonPressedEvent is published for each debounced rising edge.
type ButtonPressedEvent struct {
	Pin       string `json:"pin" example:"GPIO27" doc:"Pin name"`
	Count     uint64 `json:"count" example:"3" doc:"Presses since start"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Press timestamp"`
}

// Type returns the event type identifier for ButtonPressedEvent.
func (e ButtonPressedEvent) Type() uint32 { return TypeButtonPressed }

// ComponentStateChangedEvent is published when a supervised component
// changes process state.
// Used for LED control and other reactive subsystems.
type ComponentStateChangedEvent struct {
	Component string `json:"component" example:"GPS" doc:"Component name"`
	State     string `json:"state" example:"running" doc:"Process state"`
	Running   bool   `json:"running" example:"true" doc:"Whether the component is running"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ComponentStateChangedEvent.
func (e ComponentStateChangedEvent) Type() uint32 { return TypeComponentStateChanged }

// GetComponent implements the ComponentStateEvent interface for LED manager.
func (e ComponentStateChangedEvent) GetComponent() string {
	return e.Component
}

// IsRunning implements the ComponentStateEvent interface for LED manager.
func (e ComponentStateChangedEvent) IsRunning() bool {
	return e.Running
}

// ComponentOutputEvent carries one line printed by a component.
type ComponentOutputEvent struct {
	Component string `json:"component" example:"Accelerometer" doc:"Component name"`
	Line      string `json:"line" example:"0.12,9.81,0.03" doc:"Output line"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ComponentOutputEvent.
func (e ComponentOutputEvent) Type() uint32 { return TypeComponentOutput }

// FrameStatsEvent reports camera session counters.
type FrameStatsEvent struct {
	Chunks  uint64 `json:"chunks" doc:"Chunks delivered by the camera"`
	Bytes   uint64 `json:"bytes" doc:"Bytes delivered by the camera"`
	Frames  uint64 `json:"frames" doc:"Frame starts observed"`
	Dropped uint64 `json:"dropped" doc:"Chunks dropped because the pipe reader left"`
}

// Type returns the event type identifier for FrameStatsEvent.
func (e FrameStatsEvent) Type() uint32 { return TypeFrameStats }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Monotonic sequence number for deduplication"`
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"control" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }

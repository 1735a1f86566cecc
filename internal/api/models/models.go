package models

import (
	"time"

	"github.com/hudview/hudview/internal/camera"
	"github.com/hudview/hudview/internal/logging"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
	Running int    `json:"running" example:"5" doc:"Components currently running"`
	Total   int    `json:"total" example:"5" doc:"Components configured"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit SHA"`
	BuildDate string `json:"build_date" example:"2024-12-15 14:30" doc:"Build timestamp"`
	BuildID   string `json:"build_id" example:"a1b2c3d4" doc:"Unique build identifier"`
	GoVersion string `json:"go_version" example:"go1.21.0" doc:"Go compiler version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Compiler used"`
	Platform  string `json:"platform" example:"linux/arm" doc:"Platform"`
}

type VersionResponse struct {
	Body VersionData
}

// Component models
type ComponentData struct {
	Name         string     `json:"name" example:"GPS" doc:"Component name"`
	Program      string     `json:"program" example:"/opt/HUDView/GPS/gps" doc:"Configured command line"`
	Enabled      bool       `json:"enabled" example:"true" doc:"Whether the component is enabled"`
	State        string     `json:"state" example:"running" doc:"Process state"`
	PID          int        `json:"pid,omitempty" example:"1234" doc:"Process ID while running"`
	StartedAt    *time.Time `json:"started_at,omitempty" doc:"When the current process was started"`
	ExitCode     int        `json:"exit_code" example:"0" doc:"Exit code of the last run"`
	RestartCount int        `json:"restart_count" example:"0" doc:"Restarts since the supervisor started"`
	LastError    string     `json:"last_error,omitempty" doc:"Last start or exit error"`
	LastLine     string     `json:"last_line,omitempty" example:"0.12,9.81,0.03" doc:"Last line printed on stdout"`
}

type ComponentListData struct {
	Components []ComponentData `json:"components" doc:"Supervised components"`
	Count      int             `json:"count" example:"5" doc:"Number of components"`
}

type ComponentListResponse struct {
	Body ComponentListData
}

type ComponentResponse struct {
	Body ComponentData
}

// Device models
type DeviceListData struct {
	Devices []camera.DeviceInfo `json:"devices" doc:"V4L2 capture nodes"`
	Count   int                 `json:"count" example:"1" doc:"Number of devices"`
}

type DeviceListResponse struct {
	Body DeviceListData
}

// Log models
type LogListData struct {
	Entries []logging.LogEntry `json:"entries" doc:"Buffered log entries, oldest first"`
	Count   int                `json:"count" example:"100" doc:"Number of entries"`
}

type LogListResponse struct {
	Body LogListData
}

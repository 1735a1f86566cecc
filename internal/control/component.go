// Package control supervises the HUD components.
//
// Each configured component runs as a child process. The supervisor starts
// them, follows their output, keeps the status LED in step with their state
// and applies configuration changes without a restart.
package control

import (
	"errors"
	"fmt"
)

// ID identifies a HUD component.
type ID int

// Known components. Names are matched case-sensitively.
const (
	Accelerometer ID = iota + 1
	Camera
	CameraDisplay
	Control
	ControlDisplay
	GPS
	HandlebarButtons
	LightSensor
)

// ErrUnknownComponent is returned for names that are not a known component.
var ErrUnknownComponent = errors.New("unknown component")

// Lookup errors for known components missing from the running configuration.
var (
	ErrNotConfigured = errors.New("component not configured")
	ErrDisabled      = errors.New("component disabled")
)

var componentNames = map[ID]string{
	Accelerometer:    "Accelerometer",
	Camera:           "Camera",
	CameraDisplay:    "CameraDisplay",
	Control:          "Control",
	ControlDisplay:   "ControlDisplay",
	GPS:              "GPS",
	HandlebarButtons: "HandlebarButtons",
	LightSensor:      "LightSensor",
}

func (id ID) String() string {
	if name, ok := componentNames[id]; ok {
		return name
	}
	return "Unknown"
}

// ParseID maps a component name to its ID.
func ParseID(name string) (ID, error) {
	for id, n := range componentNames {
		if n == name {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownComponent, name)
}

// IDs returns every known component in declaration order.
func IDs() []ID {
	ids := make([]ID, 0, len(componentNames))
	for id := Accelerometer; id <= LightSensor; id++ {
		ids = append(ids, id)
	}
	return ids
}

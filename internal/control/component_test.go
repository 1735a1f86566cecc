package control

import (
	"errors"
	"testing"
)

func TestParseID(t *testing.T) {
	for _, id := range IDs() {
		got, err := ParseID(id.String())
		if err != nil || got != id {
			t.Errorf("ParseID(%q) = %v, %v", id.String(), got, err)
		}
	}

	for _, name := range []string{"gps", "CAMERA", "Unknown", "", "Light Sensor"} {
		if _, err := ParseID(name); !errors.Is(err, ErrUnknownComponent) {
			t.Errorf("ParseID(%q) error = %v, want ErrUnknownComponent", name, err)
		}
	}
}

func TestIDs(t *testing.T) {
	ids := IDs()
	if len(ids) != 8 {
		t.Fatalf("len(IDs()) = %d, want 8", len(ids))
	}
	if ids[0] != Accelerometer || ids[7] != LightSensor {
		t.Errorf("IDs() order = %v", ids)
	}
	if ID(0).String() != "Unknown" || ID(99).String() != "Unknown" {
		t.Error("out of range IDs should print Unknown")
	}
}

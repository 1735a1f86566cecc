package control

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeExecutable(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseConfigTOML(t *testing.T) {
	data := `
[components.GPS]
program = "/opt/HUDView/GPS/gps --port /dev/ttyS0"

[components.Accelerometer]
program = "/opt/HUDView/Accelerometer/accel"
enabled = false
`
	cfg, err := ParseConfig([]byte(data))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if len(cfg.Components) != 2 {
		t.Fatalf("components = %+v", cfg.Components)
	}
	// Ordered by ID: Accelerometer before GPS.
	accel, gps := cfg.Components[0], cfg.Components[1]
	if accel.ID != Accelerometer || accel.Enabled {
		t.Errorf("accelerometer = %+v", accel)
	}
	if gps.ID != GPS || !gps.Enabled || gps.Executable() != "/opt/HUDView/GPS/gps" {
		t.Errorf("gps = %+v", gps)
	}
}

func TestParseConfigLegacy(t *testing.T) {
	data := "Camera:/opt/HUDView/Camera/camera\n\nHandlebarButtons:/opt/HUDView/RF/button\n"
	cfg, err := ParseConfig([]byte(data))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	want := []Component{
		{ID: Camera, Name: "Camera", Program: "/opt/HUDView/Camera/camera", Enabled: true},
		{ID: HandlebarButtons, Name: "HandlebarButtons", Program: "/opt/HUDView/RF/button", Enabled: true},
	}
	if len(cfg.Components) != len(want) {
		t.Fatalf("components = %+v", cfg.Components)
	}
	for i := range want {
		if cfg.Components[i] != want[i] {
			t.Errorf("component %d = %+v, want %+v", i, cfg.Components[i], want[i])
		}
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
		substr  string
	}{
		{name: "empty", data: "  \n", substr: "empty config"},
		{name: "legacy unknown", data: "Radio:/bin/true", wantErr: ErrUnknownComponent},
		{name: "legacy lowercase", data: "gps:/bin/true", wantErr: ErrUnknownComponent},
		{name: "legacy duplicate", data: "GPS:/bin/true\nGPS:/bin/false", substr: "listed twice"},
		{name: "toml unknown", data: "[components.Radio]\nprogram = \"/bin/true\"", wantErr: ErrUnknownComponent},
		{name: "toml no components", data: "[other]\nx = 1", substr: "no components"},
		{name: "not toml", data: "GPS = = broken", substr: "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.substr != "" && !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("error = %v, want it to mention %q", err, tt.substr)
			}
		})
	}
}

func TestLoadConfigValidates(t *testing.T) {
	dir := t.TempDir()
	prog := writeExecutable(t, dir, "gps", "#!/bin/sh\n")

	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{name: "valid", data: "GPS:" + prog},
		{name: "valid with args", data: "[components.GPS]\nprogram = \"" + prog + " --baud 9600\""},
		{name: "missing path", data: "GPS:" + filepath.Join(dir, "nope"), wantErr: "program"},
		{name: "missing program", data: "[components.GPS]\nenabled = true", wantErr: "missing program"},
		{name: "disabled missing program ok", data: "[components.GPS]\nprogram = \"" + prog + "\"\n[components.Camera]\nenabled = false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "default.toml")
			if err := os.WriteFile(path, []byte(tt.data), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadConfig(path)
			switch {
			case tt.wantErr == "" && err != nil:
				t.Errorf("unexpected error: %v", err)
			case tt.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErr)):
				t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}

	if _, err := LoadConfig(filepath.Join(dir, "absent.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })
	Version = "v1.2.3"

	info := Get()
	if info.Version != "v1.2.3" {
		t.Errorf("Version = %q", info.Version)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q", info.GoVersion)
	}
	if info.Platform != runtime.GOOS+"/"+runtime.GOARCH {
		t.Errorf("Platform = %q", info.Platform)
	}
	if info.GitCommit == "" {
		t.Error("GitCommit is empty")
	}
}

func TestInfoString(t *testing.T) {
	s := Info{Version: "v1", GitCommit: "abc1234", BuildDate: "2025-01-01", GoVersion: "go1.24", Platform: "linux/arm"}.String()
	for _, want := range []string{"hudview v1", "commit abc1234", "linux/arm"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}

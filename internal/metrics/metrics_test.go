package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHandler(t *testing.T) {
	handler := Handler()
	if handler == nil {
		t.Fatal("expected non-nil handler")
	}

	SetComponentUp("http-test", true)
	defer DeleteComponentMetrics("http-test")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `hudview_component_up{component="http-test"} 1`) {
		t.Error("expected component metric in response")
	}
}

func TestComponentMetricsCache(t *testing.T) {
	name := "cache-test"
	DeleteComponentMetrics(name)

	if m := GetComponentMetrics(name); m != nil {
		t.Error("expected nil for unknown component")
	}

	SetComponentUp(name, true)
	SetComponentUp(name, true)
	SetComponentUp(name, false)
	SetComponentUp(name, true)
	IncComponentOutput(name)
	IncComponentOutput(name)

	m := GetComponentMetrics(name)
	if m == nil {
		t.Fatal("expected non-nil metrics")
	}
	if !m.Up {
		t.Error("Up = false, want true")
	}
	if m.Starts != 2 {
		t.Errorf("Starts = %d, want 2", m.Starts)
	}
	if m.OutputLines != 2 {
		t.Errorf("OutputLines = %d, want 2", m.OutputLines)
	}
	if got := testutil.ToFloat64(componentStarts.WithLabelValues(name)); got != 2 {
		t.Errorf("starts_total = %v, want 2", got)
	}

	// Returned copy is independent
	m.Starts = 99
	if GetComponentMetrics(name).Starts != 2 {
		t.Error("cache was modified through returned copy")
	}

	DeleteComponentMetrics(name)
	if GetComponentMetrics(name) != nil {
		t.Error("expected nil after delete")
	}
}

func TestCameraCounters(t *testing.T) {
	chunks := testutil.ToFloat64(cameraChunks)
	bytes := testutil.ToFloat64(cameraBytes)

	AddCameraChunk(100)
	AddCameraChunk(20)

	if got := testutil.ToFloat64(cameraChunks) - chunks; got != 2 {
		t.Errorf("chunks delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(cameraBytes) - bytes; got != 120 {
		t.Errorf("bytes delta = %v, want 120", got)
	}
}

func TestReadings(t *testing.T) {
	SetAcceleration(1, 2, 9.8)
	if got := testutil.ToFloat64(acceleration.WithLabelValues("z")); got != 9.8 {
		t.Errorf("z = %v, want 9.8", got)
	}

	SetGPSFix(true, 42.5)
	if testutil.ToFloat64(gpsFix) != 1 || testutil.ToFloat64(gpsSpeed) != 42.5 {
		t.Error("gps fix not recorded")
	}
	SetGPSFix(false, 0)
	if testutil.ToFloat64(gpsFix) != 0 {
		t.Error("gps fix still valid")
	}

	SetLightLux(310)
	if testutil.ToFloat64(lightLux) != 310 {
		t.Error("lux not recorded")
	}
}

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	componentUp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "component",
		Name:      "up",
		Help:      "Whether the component process is running",
	}, []string{"component"})

	componentStarts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "component",
		Name:      "starts_total",
		Help:      "Times the component process was started",
	}, []string{"component"})

	componentOutputLines = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "component",
		Name:      "output_lines_total",
		Help:      "Lines printed by the component",
	}, []string{"component"})

	// Local cache for API access.
	componentCache   = make(map[string]*ComponentMetrics)
	componentCacheMu sync.RWMutex
)

// ComponentMetrics holds current metric values for a component.
type ComponentMetrics struct {
	Up          bool
	Starts      uint64
	OutputLines uint64
}

// SetComponentUp records whether a component is running. A transition to
// up counts as a start.
func SetComponentUp(component string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	componentUp.WithLabelValues(component).Set(v)
	updateComponent(component, func(m *ComponentMetrics) {
		if up && !m.Up {
			m.Starts++
			componentStarts.WithLabelValues(component).Inc()
		}
		m.Up = up
	})
}

// IncComponentOutput counts one output line.
func IncComponentOutput(component string) {
	componentOutputLines.WithLabelValues(component).Inc()
	updateComponent(component, func(m *ComponentMetrics) { m.OutputLines++ })
}

// DeleteComponentMetrics removes all metrics for a component.
func DeleteComponentMetrics(component string) {
	componentUp.DeleteLabelValues(component)
	componentStarts.DeleteLabelValues(component)
	componentOutputLines.DeleteLabelValues(component)

	componentCacheMu.Lock()
	delete(componentCache, component)
	componentCacheMu.Unlock()
}

// GetComponentMetrics returns current metric values for a component.
func GetComponentMetrics(component string) *ComponentMetrics {
	componentCacheMu.RLock()
	defer componentCacheMu.RUnlock()
	if m, ok := componentCache[component]; ok {
		dup := *m
		return &dup
	}
	return nil
}

func updateComponent(component string, update func(*ComponentMetrics)) {
	componentCacheMu.Lock()
	defer componentCacheMu.Unlock()
	m, ok := componentCache[component]
	if !ok {
		m = &ComponentMetrics{}
		componentCache[component] = m
	}
	update(m)
}

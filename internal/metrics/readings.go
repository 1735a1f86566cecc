package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	buttonPresses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "button",
		Name:      "presses_total",
		Help:      "Handlebar button presses",
	})

	lightLux = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "light",
		Name:      "lux",
		Help:      "Last ambient light reading",
	})

	acceleration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "accel",
		Name:      "meters_per_second_squared",
		Help:      "Last acceleration reading per axis",
	}, []string{"axis"})

	gpsFix = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "gps",
		Name:      "fix_valid",
		Help:      "Whether the last RMC sentence reported a valid fix",
	})

	gpsSpeed = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "gps",
		Name:      "speed_kmh",
		Help:      "Ground speed from the last RMC sentence",
	})

	gpsSentences = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gps",
		Name:      "sentences_total",
		Help:      "NMEA sentences by decode result",
	}, []string{"result"})
)

// IncButtonPresses counts a button press.
func IncButtonPresses() {
	buttonPresses.Inc()
}

// SetLightLux records a light sensor reading.
func SetLightLux(lux float64) {
	lightLux.Set(lux)
}

// SetAcceleration records an accelerometer reading.
func SetAcceleration(x, y, z float64) {
	acceleration.WithLabelValues("x").Set(x)
	acceleration.WithLabelValues("y").Set(y)
	acceleration.WithLabelValues("z").Set(z)
}

// SetGPSFix records the last RMC fix.
func SetGPSFix(valid bool, speedKMH float64) {
	if valid {
		gpsFix.Set(1)
	} else {
		gpsFix.Set(0)
	}
	gpsSpeed.Set(speedKMH)
}

// IncGPSSentences counts a sentence with result "ok" or an error class.
func IncGPSSentences(result string) {
	gpsSentences.WithLabelValues(result).Inc()
}

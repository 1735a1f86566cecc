// Package metrics provides Prometheus metrics for the camera session,
// supervised components and the values they report.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hudview"

// Handler returns the Prometheus metrics HTTP handler.
// This collects all promauto-registered metrics automatically.
func Handler() http.Handler {
	return promhttp.Handler()
}

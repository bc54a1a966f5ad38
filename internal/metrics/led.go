// Package metrics provides Prometheus metrics for the LED daemon.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ledd"

var (
	backendWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "backend",
		Name:      "writes_total",
		Help:      "LED state writes sent to the backend",
	}, []string{"led", "result"})

	flashTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "flash",
		Name:      "ticks_total",
		Help:      "Emulated flash timer firings",
	}, []string{"led"})

	ledLocked = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "led",
		Name:      "locked",
		Help:      "Whether the LED holds a lock (1) or not (0)",
	}, []string{"led"})

	ledPriority = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "led",
		Name:      "priority",
		Help:      "Priority level that last wrote the LED (0 is the highest)",
	}, []string{"led"})

	requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_total",
		Help:      "Control requests by operation and result",
	}, []string{"operation", "result"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordBackendWrite counts a backend write and its outcome.
func RecordBackendWrite(led string, priority int, err error) {
	backendWrites.WithLabelValues(led, result(err)).Inc()
	if err == nil {
		ledPriority.WithLabelValues(led).Set(float64(priority))
	}
}

// RecordFlashTick counts an emulated flash toggle.
func RecordFlashTick(led string) {
	flashTicks.WithLabelValues(led).Inc()
}

// SetLEDLocked records the lock state of an LED.
func SetLEDLocked(led string, locked bool) {
	v := 0.0
	if locked {
		v = 1
	}
	ledLocked.WithLabelValues(led).Set(v)
}

// RecordRequest counts a control request. A request counts as failed when
// the whole batch failed or any record in it did.
func RecordRequest(operation string, err error) {
	requests.WithLabelValues(operation, result(err)).Inc()
}

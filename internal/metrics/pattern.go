package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	patternStarts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pattern",
		Name:      "starts_total",
		Help:      "Patterns started",
	}, []string{"pattern"})

	patternStops = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pattern",
		Name:      "stops_total",
		Help:      "Patterns stopped, completed or displaced",
	}, []string{"pattern"})

	patternsPlaying = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "pattern",
		Name:      "playing",
		Help:      "Number of patterns currently playing",
	})

	definitionReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "definitions",
		Name:      "reloads_total",
		Help:      "Pattern and alias definition reloads",
	}, []string{"result"})
)

// RecordPatternStarted counts a pattern start.
func RecordPatternStarted(pattern string) {
	patternStarts.WithLabelValues(pattern).Inc()
	patternsPlaying.Inc()
}

// RecordPatternStopped counts a pattern stop.
func RecordPatternStopped(pattern string) {
	patternStops.WithLabelValues(pattern).Inc()
	patternsPlaying.Dec()
}

// RecordReload counts a definition reload.
func RecordReload(err error) {
	definitionReloads.WithLabelValues(result(err)).Inc()
}

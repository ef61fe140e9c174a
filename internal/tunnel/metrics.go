package tunnel

import "github.com/prometheus/client_golang/prometheus"

var (
	passesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tunneld",
			Subsystem: "reconcile",
			Name:      "passes_total",
			Help:      "Total reconcile passes by outcome",
		},
		[]string{"outcome"},
	)

	passDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tunneld",
			Subsystem: "reconcile",
			Name:      "pass_duration_seconds",
			Help:      "Duration of reconcile passes in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	effectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tunneld",
			Subsystem: "reconcile",
			Name:      "effects_total",
			Help:      "Total install/remove/configure/restart effect calls",
		},
		[]string{"effect"},
	)

	desiredInstances = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tunneld",
			Subsystem: "reconcile",
			Name:      "desired_instances",
			Help:      "Number of desired tunnel instances after resolution",
		},
	)
)

func init() {
	prometheus.MustRegister(passesTotal, passDuration, effectsTotal, desiredInstances)
}

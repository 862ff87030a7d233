package kernel

import "github.com/prometheus/client_golang/prometheus"

var (
	// Registry holds the kernel's own Prometheus collectors, kept
	// separate from the default registry so embedding applications choose
	// whether and how to expose it.
	Registry = prometheus.NewRegistry()

	invocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "govkernel",
			Subsystem: "invocation",
			Name:      "total",
			Help:      "Total governed invocations, grouped by target module and outcome.",
		},
		[]string{"module", "result"},
	)

	invocationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "govkernel",
			Subsystem: "invocation",
			Name:      "duration_seconds",
			Help:      "Duration of governed invocations.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
		[]string{"module"},
	)

	bulkheadRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "govkernel",
			Subsystem: "invocation",
			Name:      "rejected_total",
			Help:      "Invocations rejected before dispatch, grouped by module and reason kind.",
		},
		[]string{"module", "kind"},
	)
)

func init() {
	Registry.MustRegister(invocationsTotal, invocationDuration, bulkheadRejections)
}

func recordInvocation(module, result string, seconds float64) {
	invocationsTotal.WithLabelValues(module, result).Inc()
	invocationDuration.WithLabelValues(module).Observe(seconds)
}

func recordRejection(module, kind string) {
	bulkheadRejections.WithLabelValues(module, kind).Inc()
}

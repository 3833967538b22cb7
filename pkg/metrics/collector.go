// Package metrics exposes Prometheus collectors for FSM store activity.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const unknownLabel = "unknown"

var (
	storeOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fsm_store_operations_total",
			Help: "Total number of FSM store operations labeled by backend, operation and outcome",
		},
		[]string{"backend", "op", "outcome"},
	)
	storeOperationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fsm_store_operation_duration_seconds",
			Help:    "Duration of FSM store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "op"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by type and severity",
		},
		[]string{"type", "severity"},
	)
)

// RecordStoreOperation increments the operation counter and records its duration.
func RecordStoreOperation(backend, op, outcome string, duration time.Duration) {
	backend = labelOrUnknown(backend)
	op = labelOrUnknown(op)

	storeOperationsTotal.WithLabelValues(backend, op, labelOrUnknown(outcome)).Inc()
	storeOperationDurationSeconds.WithLabelValues(backend, op).Observe(duration.Seconds())
}

// RecordError increments error counters with metadata.
func RecordError(errType, severity string) {
	errorsTotal.WithLabelValues(labelOrUnknown(errType), labelOrUnknown(severity)).Inc()
}

func labelOrUnknown(v string) string {
	if v == "" {
		return unknownLabel
	}
	return v
}

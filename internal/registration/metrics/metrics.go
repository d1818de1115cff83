package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

// Metrics provides observability for the registration module.
// Tracks write outcomes, authorization denials and operation durations.
type Metrics struct {
	WriteOutcomes     *prometheus.CounterVec
	Denials           *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	LocationsWritten  prometheus.Counter
}

// New creates a Metrics instance registered with reg. A nil reg registers
// with the default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		WriteOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gmh_registration_writes_total",
			Help: "Total number of register/upsert operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		Denials: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gmh_registration_denials_total",
			Help: "Total number of authorization denials by reason",
		}, []string{"reason"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gmh_registration_operation_duration_seconds",
			Help:    "Duration of registration engine operations",
			Buckets: durationBuckets,
		}, []string{"operation"}),
		LocationsWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "gmh_registration_locations_written_total",
			Help: "Total number of location rows inserted",
		}),
	}
}

// IncrementWrite records a successful register or upsert.
func (m *Metrics) IncrementWrite(operation, outcome string, locations int) {
	m.WriteOutcomes.WithLabelValues(operation, outcome).Inc()
	m.LocationsWritten.Add(float64(locations))
}

// IncrementDenial records a policy denial.
func (m *Metrics) IncrementDenial(reason string) {
	m.Denials.WithLabelValues(reason).Inc()
}

// ObserveOperation records the duration of an engine operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

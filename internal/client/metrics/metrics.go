package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Validation outcome labels.
const (
	OutcomeValid           = "valid"
	OutcomeNoLocalClient   = "no_local_client"
	OutcomeRemovedRemotely = "removed_remotely"
	OutcomeDatabaseFailure = "database_failure"
)

// Metrics provides observability for the client registry.
type Metrics struct {
	Validations        *prometheus.CounterVec
	ValidationDuration prometheus.Histogram
	StoreDuration      *prometheus.HistogramVec
	LocalDeletions     prometheus.Counter
}

// New registers the client registry metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers on reg; tests pass a fresh prometheus.NewRegistry().
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Validations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "registrar_client_validations_total",
			Help: "Local client validations by outcome",
		}, []string{"outcome"}),
		ValidationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "registrar_client_validation_duration_seconds",
			Help:    "Duration of local client validation including the backend round trip",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		StoreDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registrar_local_store_duration_seconds",
			Help:    "Latency of local client store operations",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}, []string{"op"}),
		LocalDeletions: factory.NewCounter(prometheus.CounterOpts{
			Name: "registrar_local_client_deletions_total",
			Help: "Local current-client records removed because the backend no longer knows them",
		}),
	}
}

// ObserveValidation records one validation outcome.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveValidation(outcome string, start time.Time) {
	m.Validations.WithLabelValues(outcome).Inc()
	m.ValidationDuration.Observe(time.Since(start).Seconds())
}

// ObserveStore records the duration of a local store call.
func (m *Metrics) ObserveStore(op string, start time.Time) {
	m.StoreDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// IncrementLocalDeletions records a not-found cleanup.
func (m *Metrics) IncrementLocalDeletions() {
	m.LocalDeletions.Inc()
}

// metrics/form.go
package metrics

import (
	"time"

	"github.com/dalemusser/applyform/internal/application"
	"github.com/prometheus/client_golang/prometheus"
)

// FormMetrics counts application submissions and validation failures.
// It satisfies the form controller's Observer interface.
type FormMetrics struct {
	submissions      *prometheus.CounterVec
	submitDuration   prometheus.Histogram
	validationErrors *prometheus.CounterVec
}

// Form is the process-wide instance registered by RegisterDefault.
var Form = NewFormMetrics()

// NewFormMetrics creates unregistered form collectors.
func NewFormMetrics() *FormMetrics {
	return &FormMetrics{
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "applyform_submissions_total",
				Help: "Application submits by result (invalid, submitted, failed).",
			},
			[]string{"result"},
		),
		submitDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "applyform_submission_duration_seconds",
				Help:    "Time spent posting applications to the collection endpoint.",
				Buckets: []float64{0.1, 0.3, 1, 3, 10, 30},
			},
		),
		validationErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "applyform_validation_errors_total",
				Help: "Validation failures by field.",
			},
			[]string{"field"},
		),
	}
}

type namedCollector struct {
	name      string
	collector prometheus.Collector
}

func (m *FormMetrics) collectors() []namedCollector {
	return []namedCollector{
		{"submission counter", m.submissions},
		{"submission duration histogram", m.submitDuration},
		{"validation error counter", m.validationErrors},
	}
}

// MustRegister registers the collectors with reg.
func (m *FormMetrics) MustRegister(reg prometheus.Registerer) {
	for _, c := range m.collectors() {
		reg.MustRegister(c.collector)
	}
}

// ObserveSubmission records a submit that reached the network stage.
func (m *FormMetrics) ObserveSubmission(result string, elapsed time.Duration) {
	m.submissions.WithLabelValues(result).Inc()
	m.submitDuration.Observe(elapsed.Seconds())
}

// ObserveValidation records a submit rejected by validation.
func (m *FormMetrics) ObserveValidation(fields []application.Field) {
	m.submissions.WithLabelValues("invalid").Inc()
	for _, f := range fields {
		m.validationErrors.WithLabelValues(string(f)).Inc()
	}
}

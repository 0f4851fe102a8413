// Package metrics defines the Prometheus instruments recorded by the engine.
package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine counters. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Classifications    *prometheus.CounterVec
	ClassificationTime prometheus.Histogram
	Corrections        *prometheus.CounterVec
	Predictions        *prometheus.CounterVec
	LockContention     prometheus.Counter
}

// New registers the instruments on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Classifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kvitt_classifications_total",
				Help: "Total number of receipts classified, by merchant match source",
			},
			[]string{"matched_by"},
		),
		ClassificationTime: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "kvitt_classification_duration_seconds",
				Help:    "Duration of a single receipt classification",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
		Corrections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kvitt_corrections_total",
				Help: "Total number of submitted corrections, by whether they were applied",
			},
			[]string{"applied"},
		),
		Predictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kvitt_predictions_total",
				Help: "Total number of spend predictions, by analysis type",
			},
			[]string{"analysis_type"},
		),
		LockContention: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "kvitt_lock_contention_total",
				Help: "Total number of learning store lock acquisition failures",
			},
		),
	}
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveClassification records one classification.
func (m *Metrics) ObserveClassification(matchedBy string, seconds float64) {
	if m == nil {
		return
	}
	m.Classifications.WithLabelValues(matchedBy).Inc()
	m.ClassificationTime.Observe(seconds)
}

// ObserveCorrection records one correction submission.
func (m *Metrics) ObserveCorrection(applied bool) {
	if m == nil {
		return
	}
	m.Corrections.WithLabelValues(strconv.FormatBool(applied)).Inc()
}

// ObservePrediction records one prediction request.
func (m *Metrics) ObservePrediction(analysisType string) {
	if m == nil {
		return
	}
	if analysisType == "" {
		analysisType = "default"
	}
	m.Predictions.WithLabelValues(analysisType).Inc()
}

// ObserveLockContention records a failed lock acquisition.
func (m *Metrics) ObserveLockContention() {
	if m == nil {
		return
	}
	m.LockContention.Inc()
}

// WriteTextfile writes the current values in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

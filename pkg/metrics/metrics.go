// Package metrics holds the Prometheus collectors for training and inference.
// All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "eagleai"

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics groups every collector of the module.
type Metrics struct {
	Predictions        *prometheus.CounterVec
	PredictionDuration prometheus.Histogram
	TrainingRuns       *prometheus.CounterVec
	TrainingRows       prometheus.Gauge
	TrainingAccuracy   prometheus.Gauge
	BundleLoads        *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Predictions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Routine predictions by outcome (success or error kind).",
		}, []string{"outcome"}),
		PredictionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "Latency of a single routine prediction.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		TrainingRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "training_runs_total",
			Help:      "Training passes by result.",
		}, []string{"result"}),
		TrainingRows: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "training_rows",
			Help:      "Rows used by the last training pass.",
		}),
		TrainingAccuracy: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "training_accuracy",
			Help:      "Resubstitution accuracy of the last training pass.",
		}),
		BundleLoads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bundle_loads_total",
			Help:      "Model bundle loads by result.",
		}, []string{"result"}),
	}
}

// ObservePrediction records one prediction.
func (m *Metrics) ObservePrediction(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Predictions.WithLabelValues(outcome).Inc()
	m.PredictionDuration.Observe(d.Seconds())
}

// ObserveTraining records one training pass.
func (m *Metrics) ObserveTraining(err error, rows int, accuracy float64) {
	if m == nil {
		return
	}
	if err != nil {
		m.TrainingRuns.WithLabelValues(OutcomeFailure).Inc()
		return
	}
	m.TrainingRuns.WithLabelValues(OutcomeSuccess).Inc()
	m.TrainingRows.Set(float64(rows))
	m.TrainingAccuracy.Set(accuracy)
}

// ObserveBundleLoad records one bundle load.
func (m *Metrics) ObserveBundleLoad(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.BundleLoads.WithLabelValues(OutcomeFailure).Inc()
		return
	}
	m.BundleLoads.WithLabelValues(OutcomeSuccess).Inc()
}

// WriteTextfile dumps the gatherer in the node_exporter textfile format, for
// batch runs that exit before they could be scraped.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}

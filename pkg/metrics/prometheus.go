package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	verdictsTotal *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	stageScore    *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		verdictsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalguard_verdicts_total",
				Help: "Total number of verdicts issued",
			},
			[]string{"action", "symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalguard_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		stageScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "signalguard_stage_score",
				Help: "Last recorded score per validation stage",
			},
			[]string{"stage"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signalguard_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordVerdict records an issued verdict by action and symbol.
func (r *Recorder) RecordVerdict(action, symbol string) {
	r.verdictsTotal.WithLabelValues(action, symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordStageScore records the last score produced by a stage.
func (r *Recorder) RecordStageScore(stage string, score float64) {
	r.stageScore.WithLabelValues(stage).Set(score)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ValidationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "signalguard",
			Subsystem: "validation",
			Name:      "latency_seconds",
			Help:      "Latency of validation endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	ValidationErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "signalguard",
			Subsystem: "validation",
			Name:      "errors_total",
			Help:      "Errors by validation endpoint",
		},
		[]string{"endpoint"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(ValidationLatency, ValidationErrors)
	})
}

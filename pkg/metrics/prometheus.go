package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	messagesSent *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	batchSize    *prometheus.HistogramVec
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		messagesSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "neurofeat_messages_sent_total",
				Help: "Total number of messages sent to backend",
			},
			[]string{"backend", "session"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "neurofeat_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		batchSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "neurofeat_batch_signals",
				Help:    "Number of signals per featurization batch",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"backend"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "neurofeat_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordMessageSent records a message sent to a backend.
func (r *Recorder) RecordMessageSent(backend, session string) {
	r.messagesSent.WithLabelValues(backend, session).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordBatchSize records how many signals one featurization batch carried.
func (r *Recorder) RecordBatchSize(backend string, signals int) {
	r.batchSize.WithLabelValues(backend).Observe(float64(signals))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

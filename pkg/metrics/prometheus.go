package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	predictions *prometheus.CounterVec
	uplift      *prometheus.HistogramVec
	errorsTotal *prometheus.CounterVec
	cache       *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder registered on reg.
// A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Recorder{
		predictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uplift_predictions_total",
				Help: "Total number of offer recommendations by chosen offer",
			},
			[]string{"offer"},
		),
		uplift: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "uplift_estimate",
				Help:    "Distribution of estimated uplift per treatment model",
				Buckets: prometheus.LinearBuckets(-0.5, 0.1, 11),
			},
			[]string{"model"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uplift_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		cache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uplift_decision_cache_total",
				Help: "Decision cache lookups by result",
			},
			[]string{"result"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "uplift_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordPrediction counts a recommendation.
func (r *Recorder) RecordPrediction(offer string) {
	r.predictions.WithLabelValues(offer).Inc()
}

// RecordUplift observes one model's uplift estimate.
func (r *Recorder) RecordUplift(model string, uplift float64) {
	r.uplift.WithLabelValues(model).Observe(uplift)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordCache records a cache hit, miss or error.
func (r *Recorder) RecordCache(result string) {
	r.cache.WithLabelValues(result).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

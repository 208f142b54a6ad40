package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels successfully served predictions.
	OutcomeSuccess = "success"
	// OutcomeError labels failed predictions (pipeline or dependency issues).
	OutcomeError = "error"
	// OutcomeRejected labels requests refused by the readiness gate or
	// validation.
	OutcomeRejected = "rejected"
)

var (
	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sales_advisor",
			Name:      "predictions_total",
			Help:      "Total number of prediction requests handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	predictionDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sales_advisor",
			Name:      "prediction_seconds",
			Help:      "Prediction latency in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
	)

	pipelineFitSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sales_advisor",
			Name:      "pipeline_fit_seconds",
			Help:      "Wall time of the one-time pipeline fit.",
		},
	)
)

// Register attaches sales-advisor collectors to the supplied registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		predictionsTotal,
		predictionDurationSeconds,
		pipelineFitSeconds,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObservePrediction records a prediction duration and outcome label.
func ObservePrediction(duration time.Duration, outcome string) {
	switch outcome {
	case OutcomeError, OutcomeRejected:
	default:
		outcome = OutcomeSuccess
	}
	predictionsTotal.WithLabelValues(outcome).Inc()
	if duration < 0 {
		duration = 0
	}
	predictionDurationSeconds.Observe(duration.Seconds())
}

// ObserveFit records the duration of the pipeline fit.
func ObserveFit(duration time.Duration) {
	if duration < 0 {
		duration = 0
	}
	pipelineFitSeconds.Set(duration.Seconds())
}

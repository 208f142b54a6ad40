package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/retailstack/sales-advisor/internal/metrics"
	"github.com/retailstack/sales-advisor/internal/models"
	"github.com/retailstack/sales-advisor/internal/utils"
)

// Recommender is the pipeline surface the service depends on.
type Recommender interface {
	Ready() bool
	Recommend(ctx context.Context, req models.ScenarioRequest) (models.Advice, error)
	DetailedRecommend(ctx context.Context, req models.ScenarioRequest) (models.DetailedAdvice, error)
}

// AdvisorService fronts the prediction pipeline with latency tracking and
// metrics. It carries no state of its own beyond the tracker.
type AdvisorService struct {
	logger    *slog.Logger
	pipeline  Recommender
	latencies *utils.LatencyTracker
}

// NewAdvisorService constructs the service facade.
func NewAdvisorService(logger *slog.Logger, pipeline Recommender) *AdvisorService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdvisorService{
		logger:    logger,
		pipeline:  pipeline,
		latencies: utils.NewLatencyTracker(1024),
	}
}

// Ready reports whether the underlying pipeline can serve predictions.
func (s *AdvisorService) Ready() bool {
	return s.pipeline != nil && s.pipeline.Ready()
}

// Predict runs a scenario through the pipeline and records timing.
func (s *AdvisorService) Predict(ctx context.Context, req models.ScenarioRequest) (models.Advice, error) {
	if s.pipeline == nil {
		return models.Advice{}, utils.NewAppError("services.Predict", "pipeline not configured", nil)
	}

	start := time.Now()
	advice, err := s.pipeline.Recommend(ctx, req)
	duration := time.Since(start)
	if err != nil {
		metrics.ObservePrediction(duration, outcomeFor(err))
		return models.Advice{}, err
	}
	s.observe(duration)

	s.logger.Debug("prediction served",
		slog.Int("store_id", req.StoreID),
		slog.Float64("forecast", advice.Forecast),
		slog.Duration("duration", duration))
	return advice, nil
}

// PredictDetailed runs a scenario and returns the extended response with
// cohort statistics and the benchmark comparison.
func (s *AdvisorService) PredictDetailed(ctx context.Context, req models.ScenarioRequest) (models.DetailedAdvice, error) {
	if s.pipeline == nil {
		return models.DetailedAdvice{}, utils.NewAppError("services.PredictDetailed", "pipeline not configured", nil)
	}

	start := time.Now()
	detailed, err := s.pipeline.DetailedRecommend(ctx, req)
	duration := time.Since(start)
	if err != nil {
		metrics.ObservePrediction(duration, outcomeFor(err))
		return models.DetailedAdvice{}, err
	}
	s.observe(duration)

	s.logger.Debug("detailed prediction served",
		slog.Int("store_id", req.StoreID),
		slog.Float64("forecast", detailed.Forecast),
		slog.Duration("duration", duration))
	return detailed, nil
}

// LatencyP95 returns the current p95 prediction latency.
func (s *AdvisorService) LatencyP95() time.Duration {
	if s.latencies == nil {
		return 0
	}
	return s.latencies.Percentile(95)
}

func (s *AdvisorService) observe(duration time.Duration) {
	s.latencies.Observe(duration)
	metrics.ObservePrediction(duration, metrics.OutcomeSuccess)
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		s.logger.Info("prediction latency",
			slog.Duration("p95", s.latencies.Percentile(95)),
			slog.Int("samples", count))
	}
}

func outcomeFor(err error) string {
	if utils.IsNotReady(err) || utils.IsStoreNotFound(err) {
		return metrics.OutcomeRejected
	}
	return metrics.OutcomeError
}

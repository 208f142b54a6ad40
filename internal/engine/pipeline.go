package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/retailstack/sales-advisor/internal/cohort"
	"github.com/retailstack/sales-advisor/internal/features"
	"github.com/retailstack/sales-advisor/internal/forecast"
	"github.com/retailstack/sales-advisor/internal/models"
	"github.com/retailstack/sales-advisor/internal/utils"
)

// CorpusSource yields the historical training corpus.
type CorpusSource interface {
	FetchObservations(ctx context.Context) ([]models.HistoricalObservation, error)
	FetchStoreProfiles(ctx context.Context) ([]models.StoreProfile, error)
}

// ProfileSource resolves a single store profile, returning
// utils.ErrStoreNotFound on a miss.
type ProfileSource interface {
	StoreProfile(ctx context.Context, storeID int) (models.StoreProfile, error)
}

// Pipeline composes the encoder, forecaster, cohort index, and rule engine
// behind a single readiness-gated surface. It starts Uninitialized and
// transitions to Ready exactly once, on successful Fit; there is no way back.
// After that transition all fitted state is immutable, so concurrent requests
// need no locking beyond the gate itself.
type Pipeline struct {
	logger    *slog.Logger
	corpus    CorpusSource
	profiles  ProfileSource
	rules     *Rules
	modelPath string
	neighbors int

	encoder    *features.Encoder
	index      *cohort.Index
	forecaster forecast.Forecaster
	ready      atomic.Bool
}

// NewPipeline constructs an uninitialized pipeline.
func NewPipeline(logger *slog.Logger, corpus CorpusSource, profiles ProfileSource, modelPath string, neighbors int) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if neighbors <= 0 {
		neighbors = 5
	}
	return &Pipeline{
		logger:    logger,
		corpus:    corpus,
		profiles:  profiles,
		rules:     NewRules(),
		modelPath: modelPath,
		neighbors: neighbors,
		encoder:   features.NewEncoder(),
		index:     cohort.NewIndex(),
	}
}

// Ready reports whether the one-time fit has completed.
func (p *Pipeline) Ready() bool {
	return p.ready.Load()
}

// Degraded reports whether the forecaster runs the placeholder model.
func (p *Pipeline) Degraded() bool {
	return p.Ready() && p.forecaster.Degraded()
}

// Fit loads the historical corpus, drops closed-day and non-positive-sales
// rows, fits the encoder and cohort index, loads the model artifact, and
// opens the readiness gate. It must complete before any request is served.
func (p *Pipeline) Fit(ctx context.Context) error {
	if p.ready.Load() {
		return utils.NewAppError("engine.Fit", "pipeline already fitted", nil)
	}
	if p.corpus == nil {
		return utils.NewAppError("engine.Fit", "corpus source not configured", nil)
	}

	var (
		observations []models.HistoricalObservation
		profiles     []models.StoreProfile
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		observations, err = p.corpus.FetchObservations(groupCtx)
		if err != nil {
			return fmt.Errorf("fetch observations: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		var err error
		profiles, err = p.corpus.FetchStoreProfiles(groupCtx)
		if err != nil {
			return fmt.Errorf("fetch store profiles: %w", err)
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		return utils.NewAppError("engine.Fit", "load historical corpus", err)
	}

	byStore := make(map[int]models.StoreProfile, len(profiles))
	for _, profile := range profiles {
		byStore[profile.StoreID] = profile
	}

	records := make([]features.Record, 0, len(observations))
	targets := make([]float64, 0, len(observations))
	unmatched := 0
	for _, obs := range observations {
		if !obs.Open || obs.Sales <= 0 {
			continue
		}
		profile, ok := byStore[obs.StoreID]
		if !ok {
			unmatched++
			continue
		}
		records = append(records, features.MergeRecord(obs, profile))
		targets = append(targets, obs.Sales)
	}
	if unmatched > 0 {
		p.logger.Warn("observations without store profile skipped", slog.Int("count", unmatched))
	}
	if len(records) == 0 {
		return utils.NewAppError("engine.Fit", "no valid observations after validation", nil)
	}
	p.logger.Info("historical corpus validated",
		slog.Int("observations", len(observations)),
		slog.Int("valid", len(records)),
		slog.Int("stores", len(byStore)))

	matrix, err := p.encoder.FitTransform(records)
	if err != nil {
		return utils.NewAppError("engine.Fit", "fit feature encoder", err)
	}
	if err := p.index.Fit(matrix, targets); err != nil {
		return utils.NewAppError("engine.Fit", "fit cohort index", err)
	}

	p.forecaster = forecast.Load(p.modelPath, p.encoder.FeatureCount(), p.logger)

	p.ready.Store(true)
	p.logger.Info("pipeline ready",
		slog.Int("features", p.encoder.FeatureCount()),
		slog.Int("indexed_rows", p.index.Size()),
		slog.Bool("model_degraded", p.forecaster.Degraded()))
	return nil
}

// Recommend evaluates a scenario: scenario vector, forecast, cohort
// retrieval, benchmark, and rule evaluation.
func (p *Pipeline) Recommend(ctx context.Context, req models.ScenarioRequest) (models.Advice, error) {
	advice, _, err := p.evaluate(ctx, req)
	return advice, err
}

// DetailedRecommend returns Recommend plus cohort summary statistics and the
// benchmark comparison.
func (p *Pipeline) DetailedRecommend(ctx context.Context, req models.ScenarioRequest) (models.DetailedAdvice, error) {
	advice, vector, err := p.evaluate(ctx, req)
	if err != nil {
		return models.DetailedAdvice{}, err
	}

	summary, err := p.index.Summarize(vector, p.neighbors)
	if err != nil {
		return models.DetailedAdvice{}, utils.NewAppError("engine.DetailedRecommend", "summarize cohort", err)
	}

	return models.DetailedAdvice{
		Advice:     advice,
		Summary:    summary,
		Comparison: CompareToBenchmark(advice.Forecast, advice.CohortSales),
	}, nil
}

func (p *Pipeline) evaluate(ctx context.Context, req models.ScenarioRequest) (models.Advice, []float64, error) {
	if !p.ready.Load() {
		return models.Advice{}, nil, utils.ErrNotReady
	}

	profile, err := p.profiles.StoreProfile(ctx, req.StoreID)
	if err != nil {
		return models.Advice{}, nil, err
	}

	vector, err := p.encoder.BuildScenarioVector(req.StoreID, req.Date, req.Promo, profile)
	if err != nil {
		return models.Advice{}, nil, utils.NewAppError("engine.Recommend", "build scenario vector", err)
	}

	prediction, err := p.forecaster.Predict(vector)
	if err != nil {
		return models.Advice{}, nil, utils.NewAppError("engine.Recommend", "forecast", err)
	}

	result, err := p.index.Query(vector, p.neighbors)
	if err != nil {
		return models.Advice{}, nil, utils.NewAppError("engine.Recommend", "query cohort", err)
	}

	cal := features.CalendarFor(req.Date)
	recommendations := p.rules.Evaluate(prediction, result.Targets, ScenarioAttributes{
		Promo:                  req.Promo,
		CompetitionDistance:    profile.CompetitionDistance,
		HasCompetitionDistance: profile.HasCompetitionDistance,
		IsWeekend:              cal.IsWeekend,
	})

	advice := models.Advice{
		Forecast:        prediction,
		Benchmark:       cohort.Mean(result.Targets),
		Recommendations: recommendations,
		CohortSales:     result.Targets,
		Store: models.StoreBrief{
			StoreID:    profile.StoreID,
			StoreType:  profile.StoreType,
			Assortment: profile.Assortment,
		},
		ModelDegraded: p.forecaster.Degraded(),
	}
	return advice, vector, nil
}

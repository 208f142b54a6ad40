package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/retailstack/sales-advisor/internal/models"
	"github.com/retailstack/sales-advisor/internal/utils"
)

type fakeRecommender struct {
	ready    bool
	advice   models.Advice
	detailed models.DetailedAdvice
	err      error
	calls    int
}

func (f *fakeRecommender) Ready() bool { return f.ready }

func (f *fakeRecommender) Recommend(_ context.Context, _ models.ScenarioRequest) (models.Advice, error) {
	f.calls++
	if f.err != nil {
		return models.Advice{}, f.err
	}
	return f.advice, nil
}

func (f *fakeRecommender) DetailedRecommend(_ context.Context, _ models.ScenarioRequest) (models.DetailedAdvice, error) {
	f.calls++
	if f.err != nil {
		return models.DetailedAdvice{}, f.err
	}
	return f.detailed, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPredictPassesThroughAdvice(t *testing.T) {
	fake := &fakeRecommender{
		ready: true,
		advice: models.Advice{
			Forecast:  7200,
			Benchmark: 6900,
		},
	}
	svc := NewAdvisorService(discardLogger(), fake)

	advice, err := svc.Predict(context.Background(), models.ScenarioRequest{StoreID: 1})
	if err != nil {
		t.Fatalf("Predict returned error: %v", err)
	}
	if advice.Forecast != 7200 {
		t.Fatalf("forecast = %v, want 7200", advice.Forecast)
	}
	if fake.calls != 1 {
		t.Fatalf("pipeline called %d times, want 1", fake.calls)
	}
}

func TestPredictPreservesErrorTaxonomy(t *testing.T) {
	for _, sentinel := range []error{utils.ErrNotReady, utils.ErrStoreNotFound} {
		fake := &fakeRecommender{ready: true, err: sentinel}
		svc := NewAdvisorService(discardLogger(), fake)

		_, err := svc.Predict(context.Background(), models.ScenarioRequest{StoreID: 1})
		if !errors.Is(err, sentinel) {
			t.Fatalf("Predict error = %v, want %v", err, sentinel)
		}
	}
}

func TestPredictDetailedPassesThroughSummary(t *testing.T) {
	fake := &fakeRecommender{
		ready: true,
		detailed: models.DetailedAdvice{
			Advice:  models.Advice{Forecast: 5000},
			Summary: models.CohortSummary{MeanSales: 4800},
		},
	}
	svc := NewAdvisorService(discardLogger(), fake)

	detailed, err := svc.PredictDetailed(context.Background(), models.ScenarioRequest{StoreID: 2})
	if err != nil {
		t.Fatalf("PredictDetailed returned error: %v", err)
	}
	if detailed.Summary.MeanSales != 4800 {
		t.Fatalf("summary mean = %v, want 4800", detailed.Summary.MeanSales)
	}
}

func TestReadyReflectsPipeline(t *testing.T) {
	svc := NewAdvisorService(discardLogger(), &fakeRecommender{ready: false})
	if svc.Ready() {
		t.Fatal("service ready before pipeline fit")
	}

	svc = NewAdvisorService(discardLogger(), &fakeRecommender{ready: true})
	if !svc.Ready() {
		t.Fatal("service not ready with fitted pipeline")
	}
}

func TestPredictWithoutPipeline(t *testing.T) {
	svc := NewAdvisorService(discardLogger(), nil)
	if _, err := svc.Predict(context.Background(), models.ScenarioRequest{StoreID: 1}); err == nil {
		t.Fatal("expected error without pipeline")
	}
}

func TestLatencyTracked(t *testing.T) {
	fake := &fakeRecommender{ready: true}
	svc := NewAdvisorService(discardLogger(), fake)

	for i := 0; i < 5; i++ {
		if _, err := svc.Predict(context.Background(), models.ScenarioRequest{StoreID: 1}); err != nil {
			t.Fatalf("Predict returned error: %v", err)
		}
	}
	if svc.LatencyP95() < 0 {
		t.Fatal("negative latency percentile")
	}
	if svc.latencies.Count() != 5 {
		t.Fatalf("latency samples = %d, want 5", svc.latencies.Count())
	}
}

func TestLatencyP95WithoutTracker(t *testing.T) {
	svc := &AdvisorService{}
	if got := svc.LatencyP95(); got != time.Duration(0) {
		t.Fatalf("LatencyP95 = %v, want 0", got)
	}
}

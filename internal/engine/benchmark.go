package engine

import (
	"github.com/retailstack/sales-advisor/internal/cohort"
	"github.com/retailstack/sales-advisor/internal/models"
)

// CompareToBenchmark relates a forecast to the mean and median of its cohort
// and assigns a performance category from the forecast/mean ratio.
func CompareToBenchmark(forecast float64, cohortTargets []float64) models.BenchmarkComparison {
	mean := cohort.Mean(cohortTargets)
	med := medianOf(cohortTargets)

	comparison := models.BenchmarkComparison{
		Prediction:          forecast,
		BenchmarkMean:       mean,
		BenchmarkMedian:     med,
		DiffMean:            forecast - mean,
		DiffMedian:          forecast - med,
		PerformanceCategory: categorize(forecast, mean),
	}
	if mean != 0 {
		comparison.DiffPctMean = (forecast/mean - 1) * 100
	}
	if med != 0 {
		comparison.DiffPctMedian = (forecast/med - 1) * 100
	}
	return comparison
}

func categorize(forecast, benchmark float64) string {
	// A zero or undefined benchmark is treated as on target rather than a
	// division failure.
	ratio := 1.0
	if benchmark > 0 {
		ratio = forecast / benchmark
	}

	switch {
	case ratio < 0.85:
		return models.PerformanceSignificantlyBelow
	case ratio < 0.95:
		return models.PerformanceBelow
	case ratio <= 1.05:
		return models.PerformanceOnTarget
	case ratio <= 1.15:
		return models.PerformanceAbove
	default:
		return models.PerformanceSignificantlyAbove
	}
}

func medianOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Percentile(values, 50)
}

package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/retailstack/sales-advisor/internal/cohort"
	"github.com/retailstack/sales-advisor/internal/models"
)

// Rule thresholds, expressed as ratios of forecast to cohort mean.
const (
	underperformRatio = 0.85
	competitiveRatio  = 0.90
	weekendRatio      = 0.95
	strongRatio       = 1.15
	closeCompetitionM = 1000.0
	highPerformerPct  = 75.0
	// Share of high-performing cohort days assumed to have run a promotion.
	// TODO: derive from per-neighbor promo flags once the cohort index
	// retains them alongside the sales targets.
	promoShareStub = 0.75
)

// ScenarioAttributes carries the scenario facts the rules inspect. The
// weekend flag comes from the same calendar derivation the encoder uses.
type ScenarioAttributes struct {
	Promo                  bool
	CompetitionDistance    float64
	HasCompetitionDistance bool
	IsWeekend              bool
}

// Rules maps a forecast-vs-cohort delta onto operational recommendations.
// Evaluation is deterministic: rules fire independently in a fixed order.
type Rules struct{}

// NewRules constructs the rule evaluator.
func NewRules() *Rules {
	return &Rules{}
}

// Evaluate applies the rule set to a forecast, its cohort targets, and the
// scenario attributes. More than one rule may fire; when none does, a single
// neutral recommendation is returned.
func (r *Rules) Evaluate(forecast float64, cohortTargets []float64, attrs ScenarioAttributes) []models.Recommendation {
	meanCohort := cohort.Mean(cohortTargets)
	recs := make([]models.Recommendation, 0, 3)

	if forecast < meanCohort*underperformRatio {
		recs = append(recs, models.Recommendation{
			Category: models.CategoryUnderperformance,
			Message: fmt.Sprintf("Revenue forecast is below typical for similar days (%.0f vs %.0f). Review practices of the stronger stores.",
				forecast, meanCohort),
		})
	}

	if !attrs.Promo {
		threshold := Percentile(cohortTargets, highPerformerPct)
		if countAbove(cohortTargets, threshold) > 0 && promoShareStub > 0.5 {
			recs = append(recs, models.Recommendation{
				Category: models.CategoryPromoOpportunity,
				Message: fmt.Sprintf("%.0f%% of high-performing similar days ran a promotion. Consider scheduling one.",
					promoShareStub*100),
			})
		}
	}

	if attrs.HasCompetitionDistance && attrs.CompetitionDistance > 0 && attrs.CompetitionDistance < closeCompetitionM {
		if forecast < meanCohort*competitiveRatio {
			recs = append(recs, models.Recommendation{
				Category: models.CategoryCompetitivePressure,
				Message: fmt.Sprintf("Operating in a competitive environment (competitor at %.0fm). Review pricing and assortment strategies.",
					attrs.CompetitionDistance),
			})
		}
	}

	if attrs.IsWeekend && forecast < meanCohort*weekendRatio {
		recs = append(recs, models.Recommendation{
			Category: models.CategoryWeekendReadiness,
			Message:  "Weekend sales forecast is below typical. Ensure adequate staffing and inventory.",
		})
	}

	if forecast > meanCohort*strongRatio {
		recs = append(recs, models.Recommendation{
			Category: models.CategoryStrongPerformance,
			Message: fmt.Sprintf("Forecast shows strong performance (%.0f vs %.0f). Prepare for increased customer flow.",
				forecast, meanCohort),
		})
	}

	if len(recs) == 0 {
		recs = append(recs, models.Recommendation{
			Category: models.CategoryOnTrack,
			Message: fmt.Sprintf("Forecast aligns with similar days (%.0f vs %.0f). Continue current practices.",
				forecast, meanCohort),
		})
	}

	return recs
}

// AnalyzePromoImpact summarises the slice of the cohort above the given
// percentile threshold.
func (r *Rules) AnalyzePromoImpact(cohortTargets []float64, percentile float64) models.PromoImpact {
	if len(cohortTargets) == 0 {
		return models.PromoImpact{}
	}

	threshold := Percentile(cohortTargets, percentile)
	high := make([]float64, 0, len(cohortTargets))
	for _, v := range cohortTargets {
		if v > threshold {
			high = append(high, v)
		}
	}

	impact := models.PromoImpact{
		Threshold:          threshold,
		HighPerformerCount: len(high),
		HighPerformerRatio: float64(len(high)) / float64(len(cohortTargets)),
	}
	if len(high) > 0 {
		impact.HighPerformerMean = cohort.Mean(high)
	}
	return impact
}

// Percentile returns the p-th percentile (0-100) of values using linear
// interpolation between the closest ranks.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	frac := rank - float64(lower)
	if lower+1 >= len(sorted) {
		return sorted[lower]
	}
	return sorted[lower] + frac*(sorted[lower+1]-sorted[lower])
}

func countAbove(values []float64, threshold float64) int {
	count := 0
	for _, v := range values {
		if v > threshold {
			count++
		}
	}
	return count
}

package models

// Recommendation category tags, in rule-evaluation order.
const (
	CategoryUnderperformance    = "underperformance"
	CategoryPromoOpportunity    = "promo_opportunity"
	CategoryCompetitivePressure = "competitive_pressure"
	CategoryWeekendReadiness    = "weekend_readiness"
	CategoryStrongPerformance   = "strong_performance"
	CategoryOnTrack             = "on_track"
)

// Performance categories returned by the benchmark comparison.
const (
	PerformanceSignificantlyBelow = "significantly_below"
	PerformanceBelow              = "below"
	PerformanceOnTarget           = "on_target"
	PerformanceAbove              = "above"
	PerformanceSignificantlyAbove = "significantly_above"
)

// Recommendation is one piece of operational guidance.
type Recommendation struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// CohortResult holds the k nearest training targets with their distances,
// ordered by increasing distance. Ephemeral, produced per query.
type CohortResult struct {
	Targets   []float64
	Distances []float64
}

// CohortSummary aggregates a cohort query.
type CohortSummary struct {
	MeanSales    float64   `json:"mean_sales"`
	MedianSales  float64   `json:"median_sales"`
	MinSales     float64   `json:"min_sales"`
	MaxSales     float64   `json:"max_sales"`
	StdSales     float64   `json:"std_sales"`
	MeanDistance float64   `json:"mean_distance"`
	SalesValues  []float64 `json:"sales_values"`
	Distances    []float64 `json:"distances"`
}

// BenchmarkComparison relates a forecast to its cohort baseline.
type BenchmarkComparison struct {
	Prediction          float64 `json:"prediction"`
	BenchmarkMean       float64 `json:"benchmark_mean"`
	BenchmarkMedian     float64 `json:"benchmark_median"`
	DiffMean            float64 `json:"difference_mean"`
	DiffPctMean         float64 `json:"difference_pct_mean"`
	DiffMedian          float64 `json:"difference_median"`
	DiffPctMedian       float64 `json:"difference_pct_median"`
	PerformanceCategory string  `json:"performance_category"`
}

// PromoImpact summarises the high-performing slice of a cohort.
type PromoImpact struct {
	Threshold          float64 `json:"threshold"`
	HighPerformerCount int     `json:"high_performer_count"`
	HighPerformerRatio float64 `json:"high_performer_ratio"`
	HighPerformerMean  float64 `json:"high_performer_mean"`
}

// StoreBrief is the slice of the store profile echoed in responses.
type StoreBrief struct {
	StoreID    int    `json:"store_id"`
	StoreType  string `json:"store_type"`
	Assortment string `json:"assortment"`
}

// Advice is the basic pipeline result for one scenario.
type Advice struct {
	Forecast        float64
	Benchmark       float64
	Recommendations []Recommendation
	CohortSales     []float64
	Store           StoreBrief
	ModelDegraded   bool
}

// DetailedAdvice extends Advice with cohort statistics and the benchmark
// comparison.
type DetailedAdvice struct {
	Advice
	Summary    CohortSummary
	Comparison BenchmarkComparison
}

// Messages flattens the advice recommendations into plain strings for the
// basic response shape.
func (a Advice) Messages() []string {
	out := make([]string, 0, len(a.Recommendations))
	for _, rec := range a.Recommendations {
		out = append(out, rec.Message)
	}
	return out
}

package cohort

import (
	"math"
	"sort"

	"github.com/retailstack/sales-advisor/internal/models"
	"github.com/retailstack/sales-advisor/internal/utils"
)

// Index answers Euclidean nearest-neighbor queries over the fitted feature
// matrix. After Fit it is immutable and safe for concurrent queries.
type Index struct {
	fitted  bool
	matrix  [][]float64
	targets []float64
}

// NewIndex constructs an unfitted index.
func NewIndex() *Index {
	return &Index{}
}

// Fitted reports whether Fit has completed.
func (idx *Index) Fitted() bool { return idx.fitted }

// Size returns the number of indexed training rows.
func (idx *Index) Size() int { return len(idx.matrix) }

// Fit stores the training matrix and aligned targets. Row counts must match.
func (idx *Index) Fit(matrix [][]float64, targets []float64) error {
	if idx.fitted {
		return utils.NewAppError("cohort.Fit", "index already fitted", nil)
	}
	if len(matrix) == 0 {
		return utils.NewAppError("cohort.Fit", "empty training matrix", nil)
	}
	if len(matrix) != len(targets) {
		return utils.NewAppError("cohort.Fit", "matrix and target row counts differ", nil)
	}

	idx.matrix = matrix
	idx.targets = targets
	idx.fitted = true
	return nil
}

// Query returns the min(k, size) nearest training targets and distances,
// ordered by non-decreasing distance. Equal distances keep training row
// order, which makes results deterministic for a given fit.
func (idx *Index) Query(x []float64, k int) (models.CohortResult, error) {
	if !idx.fitted {
		return models.CohortResult{}, utils.NewAppError("cohort.Query", "index used before fit", utils.ErrNotFitted)
	}
	if k <= 0 {
		k = 1
	}
	if k > len(idx.matrix) {
		k = len(idx.matrix)
	}

	order := make([]int, len(idx.matrix))
	dists := make([]float64, len(idx.matrix))
	for i, row := range idx.matrix {
		order[i] = i
		dists[i] = euclidean(x, row)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return dists[order[a]] < dists[order[b]]
	})

	result := models.CohortResult{
		Targets:   make([]float64, k),
		Distances: make([]float64, k),
	}
	for i := 0; i < k; i++ {
		result.Targets[i] = idx.targets[order[i]]
		result.Distances[i] = dists[order[i]]
	}
	return result, nil
}

// Summarize aggregates a neighbor query into descriptive statistics.
func (idx *Index) Summarize(x []float64, k int) (models.CohortSummary, error) {
	result, err := idx.Query(x, k)
	if err != nil {
		return models.CohortSummary{}, err
	}

	return models.CohortSummary{
		MeanSales:    Mean(result.Targets),
		MedianSales:  median(result.Targets),
		MinSales:     minOf(result.Targets),
		MaxSales:     maxOf(result.Targets),
		StdSales:     stdDev(result.Targets),
		MeanDistance: Mean(result.Distances),
		SalesValues:  result.Targets,
		Distances:    result.Distances,
	}, nil
}

func euclidean(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Mean returns the arithmetic mean, or zero for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

func minOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	min := values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

func maxOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

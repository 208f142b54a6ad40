package cohort

import (
	"errors"
	"math"
	"testing"

	"github.com/retailstack/sales-advisor/internal/utils"
)

func fittedIndex(t *testing.T) *Index {
	t.Helper()
	idx := NewIndex()
	matrix := [][]float64{
		{0, 0},
		{1, 0},
		{0, 2},
		{3, 0},
		{0, 4},
	}
	targets := []float64{100, 200, 300, 400, 500}
	if err := idx.Fit(matrix, targets); err != nil {
		t.Fatalf("fit: %v", err)
	}
	return idx
}

func TestQueryBeforeFit(t *testing.T) {
	idx := NewIndex()
	_, err := idx.Query([]float64{0, 0}, 3)
	if !errors.Is(err, utils.ErrNotFitted) {
		t.Fatalf("expected ErrNotFitted, got %v", err)
	}
}

func TestFitRowCountMismatch(t *testing.T) {
	idx := NewIndex()
	err := idx.Fit([][]float64{{1}}, []float64{1, 2})
	if err == nil {
		t.Fatalf("expected row count mismatch error")
	}
}

func TestQuerySortedByDistance(t *testing.T) {
	idx := fittedIndex(t)
	result, err := idx.Query([]float64{0, 0}, 3)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(result.Targets) != 3 || len(result.Distances) != 3 {
		t.Fatalf("expected 3 neighbors, got %d", len(result.Targets))
	}
	for i := 1; i < len(result.Distances); i++ {
		if result.Distances[i] < result.Distances[i-1] {
			t.Fatalf("distances not sorted: %v", result.Distances)
		}
	}
	if result.Targets[0] != 100 || result.Distances[0] != 0 {
		t.Fatalf("expected exact match first, got target %f distance %f", result.Targets[0], result.Distances[0])
	}
}

func TestQueryCapsAtTrainingSize(t *testing.T) {
	idx := fittedIndex(t)
	result, err := idx.Query([]float64{0, 0}, 50)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(result.Targets) != idx.Size() {
		t.Fatalf("expected all %d rows, got %d", idx.Size(), len(result.Targets))
	}
}

func TestQueryTieBreaksByRowOrder(t *testing.T) {
	idx := NewIndex()
	// Rows 0 and 1 are equidistant from the origin.
	if err := idx.Fit([][]float64{{1, 0}, {0, 1}, {5, 5}}, []float64{10, 20, 30}); err != nil {
		t.Fatalf("fit: %v", err)
	}
	result, err := idx.Query([]float64{0, 0}, 2)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if result.Targets[0] != 10 || result.Targets[1] != 20 {
		t.Fatalf("expected row-order tie break, got %v", result.Targets)
	}
}

func TestSummarize(t *testing.T) {
	idx := fittedIndex(t)
	summary, err := idx.Summarize([]float64{0, 0}, 5)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if summary.MeanSales != 300 {
		t.Fatalf("expected mean 300, got %f", summary.MeanSales)
	}
	if summary.MedianSales != 300 {
		t.Fatalf("expected median 300, got %f", summary.MedianSales)
	}
	if summary.MinSales != 100 || summary.MaxSales != 500 {
		t.Fatalf("unexpected min/max: %f/%f", summary.MinSales, summary.MaxSales)
	}
	wantStd := math.Sqrt(20000) // population std of 100..500
	if math.Abs(summary.StdSales-wantStd) > 1e-9 {
		t.Fatalf("expected std %f, got %f", wantStd, summary.StdSales)
	}
	if summary.MeanDistance <= 0 {
		t.Fatalf("expected positive mean distance, got %f", summary.MeanDistance)
	}
	if len(summary.SalesValues) != 5 || len(summary.Distances) != 5 {
		t.Fatalf("expected raw values echoed back")
	}
}

package forecast

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/goccy/go-json"
)

// Forecaster produces a point sales estimate for a single feature vector.
// Any model honoring "vector in, scalar out" can sit behind it.
type Forecaster interface {
	Predict(x []float64) (float64, error)
	// Degraded reports whether this is the placeholder fallback rather than a
	// trained artifact, so responses can be flagged as provisional.
	Degraded() bool
}

// Artifact is the serialized form of a trained linear model.
type Artifact struct {
	Bias    float64   `json:"bias"`
	Weights []float64 `json:"weights"`
}

// LinearModel is a trained forecaster deserialized from an artifact.
type LinearModel struct {
	bias    float64
	weights []float64
}

// NewLinearModel builds a forecaster from artifact parameters.
func NewLinearModel(bias float64, weights []float64) *LinearModel {
	return &LinearModel{bias: bias, weights: append([]float64(nil), weights...)}
}

// Predict returns bias + w·x, floored at zero.
func (m *LinearModel) Predict(x []float64) (float64, error) {
	if len(x) != len(m.weights) {
		return 0, fmt.Errorf("feature width %d does not match model width %d", len(x), len(m.weights))
	}
	sum := m.bias
	for i, v := range x {
		sum += m.weights[i] * v
	}
	if sum < 0 {
		sum = 0
	}
	return sum, nil
}

func (m *LinearModel) Degraded() bool { return false }

// Baseline is the placeholder model used when no trained artifact is
// available. Constants match the historical stand-in model: a base level plus
// a crude linear combination, floored well above zero.
type Baseline struct{}

const (
	baselineBase   = 6000.0
	baselineWeight = 100.0
	baselineFloor  = 1000.0
)

// Predict returns base + weight·Σx, floored.
func (Baseline) Predict(x []float64) (float64, error) {
	sum := 0.0
	for _, v := range x {
		sum += v
	}
	prediction := baselineBase + baselineWeight*sum
	if prediction < baselineFloor {
		prediction = baselineFloor
	}
	return prediction, nil
}

func (Baseline) Degraded() bool { return true }

// Load reads a trained artifact from path and validates it against the fitted
// feature width. A missing or unreadable artifact is not fatal: the baseline
// model is substituted and a warning logged.
func Load(path string, featureCount int, logger *slog.Logger) Forecaster {
	if logger == nil {
		logger = slog.Default()
	}

	if path == "" {
		logger.Warn("no model artifact configured, using baseline forecaster")
		return Baseline{}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("model artifact unavailable, using baseline forecaster",
			slog.String("path", path), slog.Any("error", err))
		return Baseline{}
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		logger.Warn("model artifact unreadable, using baseline forecaster",
			slog.String("path", path), slog.Any("error", err))
		return Baseline{}
	}
	if len(artifact.Weights) != featureCount {
		logger.Warn("model artifact width mismatch, using baseline forecaster",
			slog.String("path", path),
			slog.Int("artifact_width", len(artifact.Weights)),
			slog.Int("feature_width", featureCount))
		return Baseline{}
	}

	logger.Info("loaded trained model artifact", slog.String("path", path), slog.Int("weights", len(artifact.Weights)))
	return NewLinearModel(artifact.Bias, artifact.Weights)
}

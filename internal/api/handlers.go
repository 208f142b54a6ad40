package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/retailstack/sales-advisor/internal/models"
	"github.com/retailstack/sales-advisor/internal/utils"
)

// PredictionService is the application surface the HTTP layer depends on.
type PredictionService interface {
	Ready() bool
	Predict(ctx context.Context, req models.ScenarioRequest) (models.Advice, error)
	PredictDetailed(ctx context.Context, req models.ScenarioRequest) (models.DetailedAdvice, error)
}

// Handler serves the prediction API.
type Handler struct {
	logger  *slog.Logger
	service PredictionService
}

// NewHandler constructs the HTTP handler set.
func NewHandler(logger *slog.Logger, service PredictionService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// Routes assembles the router with middleware and all endpoints.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", h.health)
	r.Get("/readyz", h.readiness)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/predict", h.predict)
		r.Post("/predict/detailed", h.predictDetailed)
	})

	return r
}

type predictRequest struct {
	StoreID int    `json:"store_id"`
	Date    string `json:"date"`
	Promo   int    `json:"promo"`
}

type predictResponse struct {
	StoreID         int      `json:"store_id"`
	Date            string   `json:"date"`
	ForecastSales   float64  `json:"forecast_sales"`
	BenchmarkSales  float64  `json:"benchmark_sales"`
	Recommendations []string `json:"recommendations"`
	ModelDegraded   bool     `json:"model_degraded"`
}

type detailedPredictResponse struct {
	StoreID         int                        `json:"store_id"`
	Date            string                     `json:"date"`
	Store           models.StoreBrief          `json:"store"`
	ForecastSales   float64                    `json:"forecast_sales"`
	BenchmarkSales  float64                    `json:"benchmark_sales"`
	Recommendations []models.Recommendation    `json:"recommendations"`
	SimilarSales    []float64                  `json:"similar_sales"`
	Similarity      models.CohortSummary       `json:"similarity_statistics"`
	Comparison      models.BenchmarkComparison `json:"performance_comparison"`
	ModelDegraded   bool                       `json:"model_degraded"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) predict(w http.ResponseWriter, r *http.Request) {
	scenario, ok := h.decodeScenario(w, r)
	if !ok {
		return
	}

	advice, err := h.service.Predict(r.Context(), scenario)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, predictResponse{
		StoreID:         scenario.StoreID,
		Date:            scenario.Date.Format(utils.DayFormat),
		ForecastSales:   advice.Forecast,
		BenchmarkSales:  advice.Benchmark,
		Recommendations: advice.Messages(),
		ModelDegraded:   advice.ModelDegraded,
	})
}

func (h *Handler) predictDetailed(w http.ResponseWriter, r *http.Request) {
	scenario, ok := h.decodeScenario(w, r)
	if !ok {
		return
	}

	detailed, err := h.service.PredictDetailed(r.Context(), scenario)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, detailedPredictResponse{
		StoreID:         scenario.StoreID,
		Date:            scenario.Date.Format(utils.DayFormat),
		Store:           detailed.Store,
		ForecastSales:   detailed.Forecast,
		BenchmarkSales:  detailed.Benchmark,
		Recommendations: detailed.Recommendations,
		SimilarSales:    detailed.Summary.SalesValues,
		Similarity:      detailed.Summary,
		Comparison:      detailed.Comparison,
		ModelDegraded:   detailed.ModelDegraded,
	})
}

func (h *Handler) decodeScenario(w http.ResponseWriter, r *http.Request) (models.ScenarioRequest, bool) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return models.ScenarioRequest{}, false
	}
	if req.StoreID < 1 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "store_id must be a positive integer"})
		return models.ScenarioRequest{}, false
	}
	if req.Promo != 0 && req.Promo != 1 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "promo must be 0 or 1"})
		return models.ScenarioRequest{}, false
	}
	date, err := utils.ParseDay(req.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "date must be formatted YYYY-MM-DD"})
		return models.ScenarioRequest{}, false
	}
	return models.ScenarioRequest{
		StoreID: req.StoreID,
		Date:    date,
		Promo:   req.Promo == 1,
	}, true
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) readiness(w http.ResponseWriter, _ *http.Request) {
	if h.service == nil || !h.service.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "initializing"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case utils.IsNotReady(err):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "pipeline is still initializing"})
	case utils.IsStoreNotFound(err):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "store not found"})
	default:
		h.logger.Error("prediction failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

const requestIDHeader = "X-Request-ID"

// requestID ensures every request carries a correlation ID, generating one
// when the client does not supply it.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

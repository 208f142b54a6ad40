package repo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/retailstack/sales-advisor/internal/cache"
	"github.com/retailstack/sales-advisor/internal/models"
	"github.com/retailstack/sales-advisor/internal/utils"
)

// SalesDataClient loads the historical corpus from a sales-data service over
// HTTP. Store-profile lookups are cached when a cache provider is supplied.
type SalesDataClient struct {
	baseURL    string
	salesPath  string
	storesPath string
	httpClient *http.Client
	cache      cache.Provider
	profileTTL time.Duration
	logger     *slog.Logger
}

// NewSalesDataClient constructs a client targeting the configured service.
func NewSalesDataClient(baseURL, salesPath, storesPath string, timeout time.Duration, provider cache.Provider, profileTTL time.Duration, logger *slog.Logger) *SalesDataClient {
	if provider == nil {
		provider = cache.NoopProvider{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SalesDataClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		salesPath:  salesPath,
		storesPath: storesPath,
		httpClient: &http.Client{Timeout: timeout},
		cache:      provider,
		profileTTL: profileTTL,
		logger:     logger,
	}
}

type observationPayload struct {
	StoreID       int     `json:"store_id"`
	Date          string  `json:"date"`
	Sales         float64 `json:"sales"`
	Customers     int     `json:"customers"`
	Open          int     `json:"open"`
	Promo         int     `json:"promo"`
	StateHoliday  string  `json:"state_holiday"`
	SchoolHoliday int     `json:"school_holiday"`
}

type profilePayload struct {
	StoreID              int      `json:"store_id"`
	StoreType            string   `json:"store_type"`
	Assortment           string   `json:"assortment"`
	CompetitionDistance  *float64 `json:"competition_distance"`
	CompetitionOpenYear  *int     `json:"competition_open_since_year"`
	CompetitionOpenMonth *int     `json:"competition_open_since_month"`
	Promo2               int      `json:"promo2"`
	Promo2SinceYear      *int     `json:"promo2_since_year"`
	Promo2SinceWeek      *int     `json:"promo2_since_week"`
	PromoInterval        string   `json:"promo_interval"`
}

// FetchObservations retrieves every historical sales observation.
func (c *SalesDataClient) FetchObservations(ctx context.Context) ([]models.HistoricalObservation, error) {
	var payload []observationPayload
	if err := c.getJSON(ctx, c.baseURL+c.salesPath, &payload); err != nil {
		return nil, fmt.Errorf("sales-data observations request failed: %w", err)
	}

	observations := make([]models.HistoricalObservation, 0, len(payload))
	for _, item := range payload {
		date, err := time.Parse(utils.DayFormat, item.Date)
		if err != nil {
			return nil, fmt.Errorf("observation for store %d: parse date: %w", item.StoreID, err)
		}
		holiday := item.StateHoliday
		if holiday == "" {
			holiday = models.StateHolidayNone
		}
		observations = append(observations, models.HistoricalObservation{
			StoreID:       item.StoreID,
			Date:          date,
			DayOfWeek:     utils.DayOfWeek(date),
			Sales:         item.Sales,
			Customers:     item.Customers,
			Open:          item.Open == 1,
			Promo:         item.Promo == 1,
			StateHoliday:  holiday,
			SchoolHoliday: item.SchoolHoliday == 1,
		})
	}
	return observations, nil
}

// FetchStoreProfiles retrieves every store profile.
func (c *SalesDataClient) FetchStoreProfiles(ctx context.Context) ([]models.StoreProfile, error) {
	var payload []profilePayload
	if err := c.getJSON(ctx, c.baseURL+c.storesPath, &payload); err != nil {
		return nil, fmt.Errorf("sales-data stores request failed: %w", err)
	}

	profiles := make([]models.StoreProfile, 0, len(payload))
	for _, item := range payload {
		profiles = append(profiles, toProfile(item))
	}
	return profiles, nil
}

// StoreProfile resolves one store by identifier, consulting the cache first.
func (c *SalesDataClient) StoreProfile(ctx context.Context, storeID int) (models.StoreProfile, error) {
	key := fmt.Sprintf("sales-advisor:profile:%d", storeID)
	if payload, err := c.cache.Get(ctx, key); err == nil {
		var item profilePayload
		if err := json.Unmarshal(payload, &item); err == nil {
			return toProfile(item), nil
		}
		// Unreadable entries are evicted and refetched.
		_ = c.cache.Del(ctx, key)
	}

	url := fmt.Sprintf("%s%s/%d", c.baseURL, c.storesPath, storeID)
	var item profilePayload
	if err := c.getJSON(ctx, url, &item); err != nil {
		return models.StoreProfile{}, err
	}

	if payload, err := json.Marshal(item); err == nil {
		if err := c.cache.Set(ctx, key, payload, c.profileTTL); err != nil {
			c.logger.Debug("profile cache write failed", slog.Any("error", err))
		}
	}
	return toProfile(item), nil
}

func (c *SalesDataClient) getJSON(ctx context.Context, url string, out any) error {
	if c.baseURL == "" {
		return fmt.Errorf("sales-data base URL not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return utils.ErrStoreNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func toProfile(item profilePayload) models.StoreProfile {
	profile := models.StoreProfile{
		StoreID:       item.StoreID,
		StoreType:     item.StoreType,
		Assortment:    item.Assortment,
		Promo2:        item.Promo2 == 1,
		PromoInterval: item.PromoInterval,
	}
	if item.CompetitionDistance != nil {
		profile.CompetitionDistance = *item.CompetitionDistance
		profile.HasCompetitionDistance = true
	}
	if item.CompetitionOpenYear != nil && item.CompetitionOpenMonth != nil {
		profile.CompetitionOpenYear = *item.CompetitionOpenYear
		profile.CompetitionOpenMonth = *item.CompetitionOpenMonth
		profile.HasCompetitionOpen = true
	}
	if item.Promo2SinceYear != nil && item.Promo2SinceWeek != nil {
		profile.Promo2SinceYear = *item.Promo2SinceYear
		profile.Promo2SinceWeek = *item.Promo2SinceWeek
		profile.HasPromo2Since = true
	}
	return profile
}

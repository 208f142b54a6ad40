package repo

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/retailstack/sales-advisor/internal/models"
	"github.com/retailstack/sales-advisor/internal/utils"
)

// CSVSource loads the historical corpus from Rossmann-format flat files:
// a sales file (train.csv) and a store attribute file (store.csv).
type CSVSource struct {
	salesPath  string
	storesPath string

	once     sync.Once
	loadErr  error
	profiles map[int]models.StoreProfile
}

// NewCSVSource constructs a source reading the given file paths.
func NewCSVSource(salesPath, storesPath string) *CSVSource {
	return &CSVSource{salesPath: salesPath, storesPath: storesPath}
}

// FetchObservations reads and parses every sales row.
func (s *CSVSource) FetchObservations(ctx context.Context) ([]models.HistoricalObservation, error) {
	file, err := os.Open(s.salesPath)
	if err != nil {
		return nil, fmt.Errorf("open sales file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read sales header: %w", err)
	}
	cols := headerIndex(header)
	for _, required := range []string{"Store", "Date", "Sales", "Open", "Promo"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("sales file missing column %q", required)
		}
	}

	observations := make([]models.HistoricalObservation, 0, 1024)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read sales row: %w", err)
		}

		obs, err := parseObservation(row, cols)
		if err != nil {
			return nil, fmt.Errorf("sales row %d: %w", len(observations)+2, err)
		}
		observations = append(observations, obs)
	}
	return observations, nil
}

// FetchStoreProfiles reads and parses every store attribute row.
func (s *CSVSource) FetchStoreProfiles(ctx context.Context) ([]models.StoreProfile, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	profiles := make([]models.StoreProfile, 0, len(s.profiles))
	for _, profile := range s.profiles {
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

// StoreProfile resolves one store by identifier.
func (s *CSVSource) StoreProfile(ctx context.Context, storeID int) (models.StoreProfile, error) {
	if err := s.load(); err != nil {
		return models.StoreProfile{}, err
	}
	profile, ok := s.profiles[storeID]
	if !ok {
		return models.StoreProfile{}, utils.ErrStoreNotFound
	}
	return profile, nil
}

func (s *CSVSource) load() error {
	s.once.Do(func() {
		s.profiles, s.loadErr = readStoreFile(s.storesPath)
	})
	return s.loadErr
}

func readStoreFile(path string) (map[int]models.StoreProfile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stores file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read stores header: %w", err)
	}
	cols := headerIndex(header)
	for _, required := range []string{"Store", "StoreType", "Assortment"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("stores file missing column %q", required)
		}
	}

	profiles := make(map[int]models.StoreProfile)
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read stores row: %w", err)
		}
		line++

		profile, err := parseProfile(row, cols)
		if err != nil {
			return nil, fmt.Errorf("stores row %d: %w", line, err)
		}
		profiles[profile.StoreID] = profile
	}
	return profiles, nil
}

func parseObservation(row []string, cols map[string]int) (models.HistoricalObservation, error) {
	storeID, err := intField(row, cols, "Store")
	if err != nil {
		return models.HistoricalObservation{}, err
	}
	date, err := time.Parse(utils.DayFormat, field(row, cols, "Date"))
	if err != nil {
		return models.HistoricalObservation{}, fmt.Errorf("parse date: %w", err)
	}
	sales, err := floatField(row, cols, "Sales")
	if err != nil {
		return models.HistoricalObservation{}, err
	}

	obs := models.HistoricalObservation{
		StoreID:      storeID,
		Date:         date,
		DayOfWeek:    utils.DayOfWeek(date),
		Sales:        sales,
		Open:         field(row, cols, "Open") == "1",
		Promo:        field(row, cols, "Promo") == "1",
		StateHoliday: field(row, cols, "StateHoliday"),
	}
	if obs.StateHoliday == "" {
		obs.StateHoliday = models.StateHolidayNone
	}
	if customers, err := intField(row, cols, "Customers"); err == nil {
		obs.Customers = customers
	}
	obs.SchoolHoliday = field(row, cols, "SchoolHoliday") == "1"
	return obs, nil
}

func parseProfile(row []string, cols map[string]int) (models.StoreProfile, error) {
	storeID, err := intField(row, cols, "Store")
	if err != nil {
		return models.StoreProfile{}, err
	}

	profile := models.StoreProfile{
		StoreID:       storeID,
		StoreType:     field(row, cols, "StoreType"),
		Assortment:    field(row, cols, "Assortment"),
		Promo2:        field(row, cols, "Promo2") == "1",
		PromoInterval: field(row, cols, "PromoInterval"),
	}

	// Blank calendar anchors mean the source never supplied them.
	if v, ok := optionalFloat(row, cols, "CompetitionDistance"); ok {
		profile.CompetitionDistance = v
		profile.HasCompetitionDistance = true
	}
	openYear, okYear := optionalInt(row, cols, "CompetitionOpenSinceYear")
	openMonth, okMonth := optionalInt(row, cols, "CompetitionOpenSinceMonth")
	if okYear && okMonth {
		profile.CompetitionOpenYear = openYear
		profile.CompetitionOpenMonth = openMonth
		profile.HasCompetitionOpen = true
	}
	sinceYear, okYear := optionalInt(row, cols, "Promo2SinceYear")
	sinceWeek, okWeek := optionalInt(row, cols, "Promo2SinceWeek")
	if okYear && okWeek {
		profile.Promo2SinceYear = sinceYear
		profile.Promo2SinceWeek = sinceWeek
		profile.HasPromo2Since = true
	}

	return profile, nil
}

func headerIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	return cols
}

func field(row []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func intField(row []string, cols map[string]int, name string) (int, error) {
	raw := field(row, cols, name)
	if raw == "" {
		return 0, fmt.Errorf("missing %s value", name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	return v, nil
}

func floatField(row []string, cols map[string]int, name string) (float64, error) {
	raw := field(row, cols, name)
	if raw == "" {
		return 0, fmt.Errorf("missing %s value", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	return v, nil
}

func optionalFloat(row []string, cols map[string]int, name string) (float64, bool) {
	raw := field(row, cols, name)
	if raw == "" || strings.EqualFold(raw, "na") {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func optionalInt(row []string, cols map[string]int, name string) (int, bool) {
	v, ok := optionalFloat(row, cols, name)
	if !ok {
		return 0, false
	}
	return int(v), true
}

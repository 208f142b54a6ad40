package features

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/retailstack/sales-advisor/internal/models"
	"github.com/retailstack/sales-advisor/internal/utils"
)

// Record is a training or scenario row: one store-day observation merged with
// the owning store's profile.
type Record struct {
	StoreID       int
	Date          time.Time
	Open          bool
	Promo         bool
	StateHoliday  string
	SchoolHoliday bool
	Sales         float64
	Customers     int

	StoreType              string
	Assortment             string
	CompetitionDistance    float64
	HasCompetitionDistance bool
	CompetitionOpenYear    int
	CompetitionOpenMonth   int
	HasCompetitionOpen     bool
	Promo2                 bool
	Promo2SinceYear        int
	Promo2SinceWeek        int
	HasPromo2Since         bool
}

// MergeRecord joins an observation with its store profile into an encoder row.
func MergeRecord(obs models.HistoricalObservation, profile models.StoreProfile) Record {
	return Record{
		StoreID:                obs.StoreID,
		Date:                   obs.Date,
		Open:                   obs.Open,
		Promo:                  obs.Promo,
		StateHoliday:           obs.StateHoliday,
		SchoolHoliday:          obs.SchoolHoliday,
		Sales:                  obs.Sales,
		Customers:              obs.Customers,
		StoreType:              profile.StoreType,
		Assortment:             profile.Assortment,
		CompetitionDistance:    profile.CompetitionDistance,
		HasCompetitionDistance: profile.HasCompetitionDistance,
		CompetitionOpenYear:    profile.CompetitionOpenYear,
		CompetitionOpenMonth:   profile.CompetitionOpenMonth,
		HasCompetitionOpen:     profile.HasCompetitionOpen,
		Promo2:                 profile.Promo2,
		Promo2SinceYear:        profile.Promo2SinceYear,
		Promo2SinceWeek:        profile.Promo2SinceWeek,
		HasPromo2Since:         profile.HasPromo2Since,
	}
}

// One-hot column prefixes. The suffix is the categorical level observed at fit
// time.
const (
	colStoreType    = "StoreType_"
	colAssortment   = "Assortment_"
	colStateHoliday = "StateHoliday_"
)

// baseColumns is the fixed ordering of the non-categorical features. Raw
// identifiers, calendar anchors and target columns never enter the schema.
var baseColumns = []string{
	"DayOfWeek",
	"Promo",
	"SchoolHoliday",
	"CompetitionDistance",
	"Promo2",
	"Month",
	"Day",
	"IsWeekend",
	"HasCompetition",
	"CompetitionMonthsOpen",
	"HasCompetitionData",
	"Promo2LastsForNWeeks",
}

// Encoder turns raw records into fixed-width numeric vectors. The column
// schema and normalization parameters are frozen on the first (and only)
// FitTransform call; every later Transform reproduces the exact same layout.
type Encoder struct {
	fitted bool
	schema []string
	means  []float64
	scales []float64
}

// NewEncoder constructs an unfitted encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Fitted reports whether FitTransform has completed.
func (e *Encoder) Fitted() bool { return e.fitted }

// Schema returns the frozen column names in order.
func (e *Encoder) Schema() []string {
	return append([]string(nil), e.schema...)
}

// FeatureCount returns the width of every produced vector.
func (e *Encoder) FeatureCount() int { return len(e.schema) }

// FitTransform freezes the column schema and normalization parameters from
// the training corpus and returns its normalized feature matrix. It must be
// called exactly once per encoder.
func (e *Encoder) FitTransform(records []Record) ([][]float64, error) {
	if e.fitted {
		return nil, utils.NewAppError("features.FitTransform", "encoder already fitted", nil)
	}
	if len(records) == 0 {
		return nil, utils.NewAppError("features.FitTransform", "empty training corpus", nil)
	}

	rows := make([]derivedRow, len(records))
	storeTypes := make(map[string]struct{})
	assortments := make(map[string]struct{})
	holidays := make(map[string]struct{})
	for i, rec := range records {
		rows[i] = derive(rec)
		storeTypes[rec.StoreType] = struct{}{}
		assortments[rec.Assortment] = struct{}{}
		holidays[normalizeHoliday(rec.StateHoliday)] = struct{}{}
	}

	e.schema = buildSchema(storeTypes, assortments, holidays)

	matrix := make([][]float64, len(rows))
	for i, row := range rows {
		matrix[i] = e.rawVector(row)
	}

	e.means, e.scales = fitScaler(matrix, len(e.schema))
	for _, vec := range matrix {
		e.normalize(vec)
	}

	e.fitted = true
	return matrix, nil
}

// Transform encodes records against the frozen schema. Categorical levels
// unseen at fit time contribute nothing; schema columns the input cannot
// positively activate stay at zero.
func (e *Encoder) Transform(records []Record) ([][]float64, error) {
	if !e.fitted {
		return nil, utils.NewAppError("features.Transform", "encoder used before fit", utils.ErrNotFitted)
	}

	matrix := make([][]float64, len(records))
	for i, rec := range records {
		vec := e.rawVector(derive(rec))
		e.normalize(vec)
		matrix[i] = vec
	}
	return matrix, nil
}

// BuildScenarioVector synthesizes a hypothetical open store-day (no school or
// state holiday) and encodes it through the same path as training rows.
func (e *Encoder) BuildScenarioVector(storeID int, date time.Time, promo bool, profile models.StoreProfile) ([]float64, error) {
	obs := models.HistoricalObservation{
		StoreID:      storeID,
		Date:         date,
		DayOfWeek:    utils.DayOfWeek(date),
		Open:         true,
		Promo:        promo,
		StateHoliday: models.StateHolidayNone,
	}
	matrix, err := e.Transform([]Record{MergeRecord(obs, profile)})
	if err != nil {
		return nil, err
	}
	return matrix[0], nil
}

// derivedRow carries the per-record values feeding the schema columns.
type derivedRow struct {
	cal                   Calendar
	promo                 float64
	schoolHoliday         float64
	competitionDistance   float64
	hasCompetition        float64
	competitionMonthsOpen float64
	hasCompetitionData    float64
	promo2                float64
	promo2Weeks           float64
	storeType             string
	assortment            string
	stateHoliday          string
}

func derive(rec Record) derivedRow {
	cal := CalendarFor(rec.Date)

	row := derivedRow{
		cal:           cal,
		promo:         boolToFloat(rec.Promo),
		schoolHoliday: boolToFloat(rec.SchoolHoliday),
		promo2:        boolToFloat(rec.Promo2),
		storeType:     rec.StoreType,
		assortment:    rec.Assortment,
		stateHoliday:  normalizeHoliday(rec.StateHoliday),
	}

	// Unknown competition anchors mean "no competition data", never an error.
	if rec.HasCompetitionDistance {
		row.competitionDistance = rec.CompetitionDistance
		row.hasCompetition = 1
	}
	if rec.HasCompetitionOpen {
		row.hasCompetitionData = 1
		months := (cal.Year-rec.CompetitionOpenYear)*12 + (cal.Month - rec.CompetitionOpenMonth)
		if months > 0 {
			row.competitionMonthsOpen = float64(months)
		}
	}

	// Promo2 tenure is forced to zero while promo2 is inactive.
	if rec.Promo2 && rec.HasPromo2Since {
		weeks := (cal.Year-rec.Promo2SinceYear)*52 + (cal.Week - rec.Promo2SinceWeek)
		if weeks > 0 {
			row.promo2Weeks = float64(weeks)
		}
	}

	return row
}

func buildSchema(storeTypes, assortments, holidays map[string]struct{}) []string {
	schema := append([]string(nil), baseColumns...)
	for _, level := range sortedKeys(storeTypes) {
		schema = append(schema, colStoreType+level)
	}
	for _, level := range sortedKeys(assortments) {
		schema = append(schema, colAssortment+level)
	}
	for _, level := range sortedKeys(holidays) {
		schema = append(schema, colStateHoliday+level)
	}
	return schema
}

func (e *Encoder) rawVector(row derivedRow) []float64 {
	vec := make([]float64, len(e.schema))
	for i, col := range e.schema {
		vec[i] = columnValue(row, col)
	}
	return vec
}

func columnValue(row derivedRow, col string) float64 {
	switch {
	case strings.HasPrefix(col, colStoreType):
		return matchLevel(row.storeType, col[len(colStoreType):])
	case strings.HasPrefix(col, colAssortment):
		return matchLevel(row.assortment, col[len(colAssortment):])
	case strings.HasPrefix(col, colStateHoliday):
		return matchLevel(row.stateHoliday, col[len(colStateHoliday):])
	}

	switch col {
	case "DayOfWeek":
		return float64(row.cal.DayOfWeek)
	case "Promo":
		return row.promo
	case "SchoolHoliday":
		return row.schoolHoliday
	case "CompetitionDistance":
		return row.competitionDistance
	case "Promo2":
		return row.promo2
	case "Month":
		return float64(row.cal.Month)
	case "Day":
		return float64(row.cal.Day)
	case "IsWeekend":
		return boolToFloat(row.cal.IsWeekend)
	case "HasCompetition":
		return row.hasCompetition
	case "CompetitionMonthsOpen":
		return row.competitionMonthsOpen
	case "HasCompetitionData":
		return row.hasCompetitionData
	case "Promo2LastsForNWeeks":
		return row.promo2Weeks
	}

	// Unreachable while schema construction and columnValue stay in sync.
	panic(fmt.Sprintf("features: unknown schema column %q", col))
}

func fitScaler(matrix [][]float64, width int) (means, scales []float64) {
	means = make([]float64, width)
	scales = make([]float64, width)
	n := float64(len(matrix))

	for _, vec := range matrix {
		for j, v := range vec {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= n
	}

	for _, vec := range matrix {
		for j, v := range vec {
			d := v - means[j]
			scales[j] += d * d
		}
	}
	for j := range scales {
		scales[j] = math.Sqrt(scales[j] / n)
		if scales[j] == 0 {
			// Degenerate constant column: pass values through unscaled.
			scales[j] = 1
		}
	}
	return means, scales
}

func (e *Encoder) normalize(vec []float64) {
	for j := range vec {
		vec[j] = (vec[j] - e.means[j]) / e.scales[j]
	}
}

func matchLevel(value, level string) float64 {
	if value == level {
		return 1
	}
	return 0
}

func normalizeHoliday(code string) string {
	if code == "" {
		return models.StateHolidayNone
	}
	return code
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package models

import "time"

// StateHolidayNone is the state-holiday code for an ordinary trading day.
const StateHolidayNone = "0"

// HistoricalObservation is one store-day sales record from the training corpus.
// Immutable once loaded.
type HistoricalObservation struct {
	StoreID       int
	Date          time.Time
	DayOfWeek     int // 1 (Monday) .. 7 (Sunday)
	Sales         float64
	Customers     int
	Open          bool
	Promo         bool
	StateHoliday  string
	SchoolHoliday bool
}

// StoreProfile carries the static attributes of a single store. The
// competition and promo2 calendar anchors may be unknown; the Has* flags
// record whether the source data supplied them.
type StoreProfile struct {
	StoreID                int
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
	PromoInterval          string
}

// ScenarioRequest describes a hypothetical store-day to evaluate. It is never
// persisted.
type ScenarioRequest struct {
	StoreID int
	Date    time.Time
	Promo   bool
}

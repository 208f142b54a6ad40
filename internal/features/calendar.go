package features

import (
	"time"

	"github.com/retailstack/sales-advisor/internal/utils"
)

// Calendar holds the date-derived attributes used by the encoder and, for
// weekend detection, by the rule engine. Both consumers share this single
// derivation so scenario attributes cannot drift from encoded features.
type Calendar struct {
	Year      int
	Month     int
	Day       int
	Week      int // ISO-8601 week number
	DayOfWeek int // 1 (Monday) .. 7 (Sunday)
	IsWeekend bool
}

// CalendarFor derives calendar attributes from a date.
func CalendarFor(date time.Time) Calendar {
	dow := utils.DayOfWeek(date)
	return Calendar{
		Year:      date.Year(),
		Month:     int(date.Month()),
		Day:       date.Day(),
		Week:      utils.ISOWeek(date),
		DayOfWeek: dow,
		IsWeekend: dow >= 5,
	}
}

package utils

import (
	"fmt"
	"time"
)

// DayFormat is the calendar-date layout accepted by the API.
const DayFormat = "2006-01-02"

// ParseDay returns the calendar date encoded by value (YYYY-MM-DD).
func ParseDay(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date value")
	}
	t, err := time.Parse(DayFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date: %w", err)
	}
	return t, nil
}

// DayOfWeek returns the 1-7 day index for t, Monday being 1 and Sunday 7.
func DayOfWeek(t time.Time) int {
	return (int(t.Weekday())+6)%7 + 1
}

// ISOWeek returns the ISO-8601 week number for t.
func ISOWeek(t time.Time) int {
	_, week := t.ISOWeek()
	return week
}

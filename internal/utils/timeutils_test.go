package utils

import (
	"testing"
	"time"
)

func TestParseDay(t *testing.T) {
	day, err := ParseDay("2015-08-01")
	if err != nil {
		t.Fatalf("parse day: %v", err)
	}
	if day.Year() != 2015 || day.Month() != time.August || day.Day() != 1 {
		t.Fatalf("unexpected date: %v", day)
	}

	if _, err := ParseDay(""); err == nil {
		t.Fatalf("expected error for empty value")
	}
	if _, err := ParseDay("01/08/2015"); err == nil {
		t.Fatalf("expected error for wrong layout")
	}
}

func TestDayOfWeek(t *testing.T) {
	cases := []struct {
		date string
		want int
	}{
		{"2015-07-27", 1}, // Monday
		{"2015-07-31", 5}, // Friday
		{"2015-08-01", 6}, // Saturday
		{"2015-08-02", 7}, // Sunday
	}
	for _, tc := range cases {
		day, err := ParseDay(tc.date)
		if err != nil {
			t.Fatalf("parse %s: %v", tc.date, err)
		}
		if got := DayOfWeek(day); got != tc.want {
			t.Fatalf("%s: expected day-of-week %d, got %d", tc.date, tc.want, got)
		}
	}
}

func TestISOWeek(t *testing.T) {
	day, err := ParseDay("2015-01-01")
	if err != nil {
		t.Fatalf("parse day: %v", err)
	}
	if got := ISOWeek(day); got != 1 {
		t.Fatalf("expected ISO week 1, got %d", got)
	}
}

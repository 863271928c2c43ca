// Package core holds the domain model: revenues, expenses, filters,
// monthly goals and the calendar-day conventions shared by every layer.
//
// Dates travel as plain YYYY-MM-DD strings so that range filtering is a
// lexical comparison, matching the remote API's own query semantics.
package core

import "time"

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// DayKey formats t as a YYYY-MM-DD calendar day.
func DayKey(t time.Time) string {
	return t.Format(dayLayout)
}

// MonthKey formats t as a YYYY-MM month key.
func MonthKey(t time.Time) string {
	return t.Format(monthLayout)
}

// MonthOf returns the YYYY-MM prefix of a YYYY-MM-DD day, or "" if the
// day is too short to carry one.
func MonthOf(day string) string {
	if len(day) < len(monthLayout) {
		return ""
	}
	return day[:len(monthLayout)]
}

// ValidateDay checks that day is a real calendar date in YYYY-MM-DD form.
func ValidateDay(day string) error {
	if _, err := time.Parse(dayLayout, day); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// ValidateMonth checks that month is a real YYYY-MM month key.
func ValidateMonth(month string) error {
	if _, err := time.Parse(monthLayout, month); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// DaysInMonth returns the number of calendar days in t's month.
func DaysInMonth(t time.Time) int {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return first.AddDate(0, 1, -1).Day()
}

package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/streaklit/internal/constants"
)

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == constants.DefaultTimezone {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// NowInTimezone returns the current time in the specified timezone.
func NowInTimezone(timezone string) (time.Time, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return time.Now().In(loc), nil
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	_, err := LoadLocation(timezone)
	return err == nil
}

// StartOfDay truncates t to local midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayKey formats t as a calendar day (YYYY-MM-DD) in t's location.
func DayKey(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// Label formats t as a short display label such as "Jan 5".
func Label(t time.Time) string {
	return t.Format(constants.LabelFormat)
}

// ParseDateInLocation parses a date string (YYYY-MM-DD) in the specified timezone.
func ParseDateInLocation(dateStr string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, dateStr)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
}

// ParseLabel resolves a yearless label ("Jan 5") to the most recent matching
// calendar day on or before today.
func ParseLabel(label string, today time.Time) (time.Time, error) {
	t, err := time.Parse(constants.LabelFormat, label)
	if err != nil {
		return time.Time{}, err
	}
	today = StartOfDay(today)
	// Feb 29 needs up to four years of lookback.
	for year := today.Year(); year >= today.Year()-4; year-- {
		d := time.Date(year, t.Month(), t.Day(), 0, 0, 0, 0, today.Location())
		if d.Month() != t.Month() || d.Day() != t.Day() {
			continue
		}
		if !d.After(today) {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("label %q does not resolve to a past date", label)
}

// DaysBetween returns the number of calendar days from a to b.
// DST transitions are absorbed by rounding.
func DaysBetween(a, b time.Time) int {
	a, b = StartOfDay(a), StartOfDay(b.In(a.Location()))
	hours := b.Sub(a).Hours()
	if hours >= 0 {
		return int(hours/24 + 0.5)
	}
	return -int(-hours/24 + 0.5)
}

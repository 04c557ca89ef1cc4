// Package aggregate turns a transaction list and a filter into the totals and
// bucketed series shown on the dashboard and reports views. Everything here is
// pure: no I/O, no clock reads unless a time is passed in.
package aggregate

import (
	"strings"
	"time"

	"finboard/internal/core"
)

// Layouts tried in order. Date-only and zoneless values are read in the
// caller's location.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	core.DateLayout,
}

// ParseDate parses one wire date. ok is false for empty or unparseable input.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

// EffectiveDate resolves the date a transaction is booked on: TransactionDate,
// falling back to the legacy date field.
func EffectiveDate(t core.Transaction, loc *time.Location) (time.Time, bool) {
	if d, ok := ParseDate(t.TransactionDate, loc); ok {
		return d, true
	}
	return ParseDate(t.LegacyDate, loc)
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func endOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), loc)
}

// DaysIn returns the number of days in month of year.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

package aggregate

import (
	"fmt"
	"strings"
	"time"

	"finboard/internal/core"
)

type Granularity string

const (
	ByMonth      Granularity = "month"
	ByDay        Granularity = "day"
	ByYear       Granularity = "year"
	ByDepartment Granularity = "department"
)

// ParseGranularity accepts the CLI spellings, defaulting to month.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "month", "monthly":
		return ByMonth, nil
	case "day", "daily":
		return ByDay, nil
	case "year", "yearly":
		return ByYear, nil
	case "department", "dept":
		return ByDepartment, nil
	}
	return "", fmt.Errorf("unknown granularity %q", s)
}

// Filter selects transactions. Zero Start or End leaves that side open. Year
// and Month pick the bucketing period; zero means "resolve from the data".
type Filter struct {
	Start       time.Time
	End         time.Time
	Department  string
	Granularity Granularity
	Year        int
	Month       time.Month
	Location    *time.Location
}

func (f Filter) location() *time.Location {
	if f.Location == nil {
		return time.Local
	}
	return f.Location
}

// Dated is a transaction with its resolved booking date.
type Dated struct {
	core.Transaction
	Date time.Time
}

// NormalizeDepartment is the comparison form of a department name.
func NormalizeDepartment(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Resolve attaches effective dates and drops transactions without one. It
// returns how many were dropped.
func Resolve(txs []core.Transaction, loc *time.Location) ([]Dated, int) {
	out := make([]Dated, 0, len(txs))
	for _, t := range txs {
		d, ok := EffectiveDate(t, loc)
		if !ok {
			continue
		}
		out = append(out, Dated{Transaction: t, Date: d})
	}
	return out, len(txs) - len(out)
}

// Apply keeps the dated transactions inside the inclusive range
// [start of Start's day, end of End's day] whose department matches.
func Apply(dated []Dated, f Filter) []Dated {
	loc := f.location()
	var lo, hi time.Time
	if !f.Start.IsZero() {
		lo = startOfDay(f.Start, loc)
	}
	if !f.End.IsZero() {
		hi = endOfDay(f.End, loc)
	}
	dept := NormalizeDepartment(f.Department)

	out := make([]Dated, 0, len(dated))
	for _, d := range dated {
		if !lo.IsZero() && d.Date.Before(lo) {
			continue
		}
		if !hi.IsZero() && d.Date.After(hi) {
			continue
		}
		if dept != "" && NormalizeDepartment(d.Department) != dept {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Departments lists the distinct normalized departments of txs in first-seen
// order. Pass the unfiltered list so every department ever used is offered.
func Departments(txs []core.Transaction) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range txs {
		d := NormalizeDepartment(t.Department)
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

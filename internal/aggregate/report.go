package aggregate

import (
	"time"

	"finboard/internal/core"
)

// Report is everything a reports or dashboard view renders.
type Report struct {
	Filter      Filter
	Granularity Granularity
	Year        int
	Month       time.Month
	Summary     Summary
	Buckets     []Bucket
	Departments []string
	Excluded    int
}

// Build runs the whole pipeline: date resolution, filtering, summary and the
// buckets for f.Granularity. Department options come from the unfiltered
// input.
func Build(txs []core.Transaction, f Filter, now time.Time) Report {
	loc := f.location()
	dated, excluded := Resolve(txs, loc)
	filtered := Apply(dated, f)

	g := f.Granularity
	if g == "" {
		g = ByMonth
	}
	r := Report{
		Filter:      f,
		Granularity: g,
		Summary:     Summarize(filtered),
		Departments: Departments(txs),
		Excluded:    excluded,
	}

	r.Year = f.Year
	if r.Year == 0 {
		r.Year = ResolveYear(filtered, now.In(loc))
	}

	switch g {
	case ByDay:
		r.Month = f.Month
		if r.Month == 0 {
			r.Month = ResolveMonth(filtered, r.Year, now.In(loc))
		}
		r.Buckets = Daily(filtered, r.Year, r.Month)
	case ByDepartment:
		r.Buckets = ByDepartmentBuckets(filtered)
	case ByYear:
		r.Buckets = Yearly(filtered)
	default:
		r.Buckets = Monthly(filtered, r.Year)
	}
	return r
}

package aggregate

import (
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

// UnassignedDepartment labels transactions without a department.
const UnassignedDepartment = "unassigned"

type Bucket struct {
	Label    string
	Income   decimal.Decimal
	Expenses decimal.Decimal
	Profit   decimal.Decimal
	Count    int
}

func (b *Bucket) add(d Dated) {
	b.Count++
	switch d.Type {
	case core.Income:
		b.Income = b.Income.Add(d.Amount.Value)
	case core.Expense:
		b.Expenses = b.Expenses.Add(d.Amount.Value)
	}
	b.Profit = b.Income.Sub(b.Expenses)
}

// Monthly returns twelve buckets, January first, for year.
func Monthly(dated []Dated, year int) []Bucket {
	buckets := make([]Bucket, 12)
	for i := range buckets {
		buckets[i].Label = time.Month(i + 1).String()[:3]
	}
	for _, d := range dated {
		if d.Date.Year() != year {
			continue
		}
		buckets[d.Date.Month()-1].add(d)
	}
	return buckets
}

// Daily returns one bucket per day of month in year.
func Daily(dated []Dated, year int, month time.Month) []Bucket {
	buckets := make([]Bucket, DaysIn(year, month))
	for i := range buckets {
		buckets[i].Label = strconv.Itoa(i + 1)
	}
	for _, d := range dated {
		if d.Date.Year() != year || d.Date.Month() != month {
			continue
		}
		buckets[d.Date.Day()-1].add(d)
	}
	return buckets
}

// ByDepartmentBuckets returns one bucket per normalized department in
// first-seen order.
func ByDepartmentBuckets(dated []Dated) []Bucket {
	index := make(map[string]int)
	var buckets []Bucket
	for _, d := range dated {
		key := NormalizeDepartment(d.Department)
		if key == "" {
			key = UnassignedDepartment
		}
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, Bucket{Label: key})
		}
		buckets[i].add(d)
	}
	return buckets
}

// Yearly returns one bucket per distinct year, ascending.
func Yearly(dated []Dated) []Bucket {
	byYear := make(map[int]*Bucket)
	var years []int
	for _, d := range dated {
		y := d.Date.Year()
		b, ok := byYear[y]
		if !ok {
			b = &Bucket{Label: strconv.Itoa(y)}
			byYear[y] = b
			years = append(years, y)
		}
		b.add(d)
	}
	sort.Ints(years)
	out := make([]Bucket, 0, len(years))
	for _, y := range years {
		out = append(out, *byYear[y])
	}
	return out
}

// ResolveYear is the latest year in dated, or now's year when dated is empty.
func ResolveYear(dated []Dated, now time.Time) int {
	year := 0
	for _, d := range dated {
		if y := d.Date.Year(); y > year {
			year = y
		}
	}
	if year == 0 {
		return now.Year()
	}
	return year
}

// ResolveMonth is the latest month of year present in dated. Without data it
// is now's month when year is the current year, else January.
func ResolveMonth(dated []Dated, year int, now time.Time) time.Month {
	var month time.Month
	for _, d := range dated {
		if d.Date.Year() == year && d.Date.Month() > month {
			month = d.Date.Month()
		}
	}
	if month != 0 {
		return month
	}
	if year == now.Year() {
		return now.Month()
	}
	return time.January
}

// Recent returns up to n transactions, newest first. Equal dates keep input
// order.
func Recent(dated []Dated, n int) []Dated {
	out := make([]Dated, len(dated))
	copy(out, dated)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

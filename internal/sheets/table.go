package sheets

import (
	"math"

	"finboard/internal/aggregate"
	"finboard/internal/core"
)

// BucketHeader is the first row of the bucket table.
var BucketHeader = []any{"Period", "Income", "Expenses", "Profit", "Transactions"}

// SummaryRows renders the report's filter and totals as label/value rows.
func SummaryRows(r aggregate.Report) [][]any {
	rows := [][]any{
		{"Granularity", string(r.Granularity)},
		{"Year", r.Year},
	}
	if r.Granularity == aggregate.ByDay {
		rows = append(rows, []any{"Month", r.Month.String()})
	}
	if !r.Filter.Start.IsZero() {
		rows = append(rows, []any{"From", r.Filter.Start.Format(core.DateLayout)})
	}
	if !r.Filter.End.IsZero() {
		rows = append(rows, []any{"To", r.Filter.End.Format(core.DateLayout)})
	}
	if r.Filter.Department != "" {
		rows = append(rows, []any{"Department", aggregate.NormalizeDepartment(r.Filter.Department)})
	}

	s := r.Summary
	rows = append(rows,
		[]any{"Total income", s.TotalIncome.InexactFloat64()},
		[]any{"Total expenses", s.TotalExpenses.InexactFloat64()},
		[]any{"Net profit", s.NetProfit.InexactFloat64()},
		[]any{"Profit margin %", round2(s.ProfitMargin)},
		[]any{"Transactions", s.Count},
		[]any{"Income transactions", s.IncomeCount},
		[]any{"Expense transactions", s.ExpenseCount},
		[]any{"Highest income", s.HighestIncome.Name, s.HighestIncome.Amount.InexactFloat64()},
		[]any{"Highest expense", s.HighestExpense.Name, s.HighestExpense.Amount.InexactFloat64()},
	)
	if r.Excluded > 0 {
		rows = append(rows, []any{"Undated (excluded)", r.Excluded})
	}
	return rows
}

// BucketRows renders the header followed by one row per bucket.
func BucketRows(r aggregate.Report) [][]any {
	rows := make([][]any, 0, len(r.Buckets)+1)
	rows = append(rows, BucketHeader)
	for _, b := range r.Buckets {
		rows = append(rows, []any{
			b.Label,
			b.Income.InexactFloat64(),
			b.Expenses.InexactFloat64(),
			b.Profit.InexactFloat64(),
			b.Count,
		})
	}
	return rows
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

package sheets

import (
	"testing"
	"time"

	"finboard/internal/aggregate"
	"finboard/internal/core"
)

func TestSummaryRows(t *testing.T) {
	txs := []core.Transaction{
		{ID: "1", Name: "Sale", Amount: core.NewAmount(300), Type: core.Income, TransactionDate: "2025-01-10", Department: "Sales"},
		{ID: "2", Name: "Rent", Amount: core.NewAmount(100), Type: core.Expense, TransactionDate: "2025-01-20", Department: "sales"},
		{ID: "3", Name: "Undated", Amount: core.NewAmount(5), Type: core.Expense},
	}
	f := aggregate.Filter{
		Start:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
		Department:  " SALES ",
		Granularity: aggregate.ByDay,
		Location:    time.UTC,
	}
	r := aggregate.Build(txs, f, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))

	rows := SummaryRows(r)
	got := make(map[string][]any, len(rows))
	for _, row := range rows {
		got[row[0].(string)] = row[1:]
	}

	checks := map[string]any{
		"Granularity":        "day",
		"Month":              "January",
		"From":               "2025-01-01",
		"To":                 "2025-01-31",
		"Department":         "sales",
		"Net profit":         200.0,
		"Profit margin %":    66.67,
		"Transactions":       2,
		"Undated (excluded)": 1,
	}
	for label, want := range checks {
		v, ok := got[label]
		if !ok {
			t.Errorf("missing row %q", label)
			continue
		}
		if v[0] != want {
			t.Errorf("%s = %v, want %v", label, v[0], want)
		}
	}
	if hi := got["Highest income"]; hi[0] != "Sale" || hi[1] != 300.0 {
		t.Errorf("highest income = %v", hi)
	}
}

func TestBucketRows(t *testing.T) {
	r := aggregate.Report{Buckets: []aggregate.Bucket{{Label: "sales", Count: 3}}}
	rows := BucketRows(r)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0][0] != "Period" || rows[1][0] != "sales" || rows[1][4] != 3 {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

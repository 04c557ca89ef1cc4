package aggregate

import (
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

const (
	noIncomeName  = "No income"
	noExpenseName = "No expenses"
)

var hundred = decimal.NewFromInt(100)

// Extremum is the largest transaction of one type. Found is false for the
// zero placeholder.
type Extremum struct {
	ID         string
	Name       string
	Department string
	Amount     decimal.Decimal
	Date       time.Time
	Found      bool
}

type Summary struct {
	TotalIncome    decimal.Decimal
	TotalExpenses  decimal.Decimal
	NetProfit      decimal.Decimal
	ProfitMargin   float64
	Count          int
	IncomeCount    int
	ExpenseCount   int
	HighestIncome  Extremum
	HighestExpense Extremum
}

// Summarize computes totals, margin and extrema. An amount that failed to
// parse counts as zero but the transaction is still counted.
func Summarize(dated []Dated) Summary {
	s := Summary{
		HighestIncome:  Extremum{Name: noIncomeName},
		HighestExpense: Extremum{Name: noExpenseName},
	}
	for _, d := range dated {
		amount := d.Amount.Value
		s.Count++
		switch d.Type {
		case core.Income:
			s.IncomeCount++
			s.TotalIncome = s.TotalIncome.Add(amount)
			if amount.GreaterThan(s.HighestIncome.Amount) {
				s.HighestIncome = extremumOf(d)
			}
		case core.Expense:
			s.ExpenseCount++
			s.TotalExpenses = s.TotalExpenses.Add(amount)
			if amount.GreaterThan(s.HighestExpense.Amount) {
				s.HighestExpense = extremumOf(d)
			}
		}
	}
	s.NetProfit = s.TotalIncome.Sub(s.TotalExpenses)
	s.ProfitMargin = Margin(s.TotalIncome, s.NetProfit)
	return s
}

// Margin is net/income as a percentage, and exactly 0 when income is not
// positive.
func Margin(income, net decimal.Decimal) float64 {
	if !income.IsPositive() {
		return 0
	}
	f, _ := net.Mul(hundred).Div(income).Float64()
	return f
}

func extremumOf(d Dated) Extremum {
	return Extremum{
		ID:         d.ID,
		Name:       d.Name,
		Department: d.Department,
		Amount:     d.Amount.Value,
		Date:       d.Date,
		Found:      true,
	}
}

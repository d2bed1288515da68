// Package finance holds the aggregations shown on the dashboards. Every
// function works on full in-memory record slices and has no side effects.
package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Record is the common view of income and expense records.
type Record interface {
	Date() time.Time
	Amount() decimal.Decimal
	Project() string
	Pending() bool
}

// InMonth reports whether t falls in the given calendar year and month.
func InMonth(t time.Time, year int, month time.Month) bool {
	return t.Year() == year && t.Month() == month
}

// MonthlyTotal sums the amount of the records dated in year/month.
func MonthlyTotal[R Record](records []R, year int, month time.Month) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		if InMonth(r.Date(), year, month) {
			total = total.Add(r.Amount())
		}
	}
	return total
}

// MonthlySeries returns twelve monthly sums for year, January first.
func MonthlySeries[R Record](records []R, year int) []decimal.Decimal {
	series := make([]decimal.Decimal, 12)
	for i := range series {
		series[i] = decimal.Zero
	}
	for _, r := range records {
		d := r.Date()
		if d.Year() == year {
			series[d.Month()-1] = series[d.Month()-1].Add(r.Amount())
		}
	}
	return series
}

// ProjectTotal sums the amount of the records linked to projectID.
func ProjectTotal[R Record](records []R, projectID string) decimal.Decimal {
	total := decimal.Zero
	if projectID == "" {
		return total
	}
	for _, r := range records {
		if r.Project() == projectID {
			total = total.Add(r.Amount())
		}
	}
	return total
}

// PendingOnly keeps the records still waiting to be collected or paid.
func PendingOnly[R Record](records []R) []R {
	out := make([]R, 0, len(records))
	for _, r := range records {
		if r.Pending() {
			out = append(out, r)
		}
	}
	return out
}

// Sum adds up the amount of every record.
func Sum[R Record](records []R) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount())
	}
	return total
}

// Profitability is (income - expense) / income as a percentage rounded to
// two decimals. It is zero when income is zero.
func Profitability(income, expense decimal.Decimal) decimal.Decimal {
	if income.IsZero() {
		return decimal.Zero
	}
	return income.Sub(expense).Div(income).Mul(hundred).Round(2)
}

// BudgetConsumption is expense / budget as a percentage rounded to two
// decimals. It is zero when budget is zero.
func BudgetConsumption(expense, budget decimal.Decimal) decimal.Decimal {
	if budget.IsZero() {
		return decimal.Zero
	}
	return expense.Div(budget).Mul(hundred).Round(2)
}

// GrossTotal applies a VAT percentage to a base amount, rounded to cents.
func GrossTotal(base, ivaPercent decimal.Decimal) decimal.Decimal {
	return base.Add(base.Mul(ivaPercent).Div(hundred)).Round(2)
}

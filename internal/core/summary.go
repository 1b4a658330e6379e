package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// StatsSnapshot is derived from a transaction set and never persisted.
// TotalExpenses always equals the sum of CategorySpending.
type StatsSnapshot struct {
	TotalIncome      decimal.Decimal            `json:"totalIncome"`
	TotalExpenses    decimal.Decimal            `json:"totalExpenses"`
	Remaining        decimal.Decimal            `json:"remaining"`
	CategorySpending map[string]decimal.Decimal `json:"categorySpending"`
	TransactionCount int                        `json:"transactionCount"`
}

// EmptySnapshot is the zero-valued snapshot returned for missing data.
func EmptySnapshot() StatsSnapshot {
	return StatsSnapshot{CategorySpending: map[string]decimal.Decimal{}}
}

// RankedCategories lists category spending by amount descending, ties by name.
func (s StatsSnapshot) RankedCategories() []CategoryAmount {
	out := make([]CategoryAmount, 0, len(s.CategorySpending))
	for name, amt := range s.CategorySpending {
		out = append(out, CategoryAmount{Name: name, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TopCategory returns the category with the largest spend.
func (s StatsSnapshot) TopCategory() (CategoryAmount, bool) {
	ranked := s.RankedCategories()
	if len(ranked) == 0 {
		return CategoryAmount{}, false
	}
	return ranked[0], true
}

// TopCategories returns at most n entries of RankedCategories.
func (s StatsSnapshot) TopCategories(n int) []CategoryAmount {
	ranked := s.RankedCategories()
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// SavingsRate is (income-expenses)/income*100, zero without income. It can
// be negative when expenses exceed income.
func (s StatsSnapshot) SavingsRate() decimal.Decimal {
	if !s.TotalIncome.IsPositive() {
		return decimal.Zero
	}
	return s.TotalIncome.Sub(s.TotalExpenses).Div(s.TotalIncome).Mul(hundred)
}

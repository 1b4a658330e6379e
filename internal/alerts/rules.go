// Package alerts derives notifications from a month's statistics.
//
// Rules are evaluated in a fixed order. The two budget threshold rules are
// mutually exclusive and keyed on the spent percentage alone; every other
// rule is independent. A rule whose title is already present among the
// user's alerts is skipped, which makes re-evaluation a no-op.
package alerts

import (
	"fmt"

	"github.com/shopspring/decimal"

	"xpenso/internal/core"
)

// Alert titles. High spending titles carry the category name after the prefix.
const (
	TitleBudgetExceeded     = "Budget Exceeded!"
	TitleApproachingBudget  = "Approaching Budget Limit"
	TitleLowBalance         = "Low Balance Warning"
	TitleGreatSavings       = "Great Savings Rate!"
	TitleHighSpendingPrefix = "High Spending: "
)

var (
	// DefaultMonthlyBudget applies when the user never set one or it cannot be read.
	DefaultMonthlyBudget = decimal.NewFromInt(1500)

	exceededPct       = decimal.NewFromInt(100)
	approachingPct    = decimal.NewFromInt(80)
	lowBalance        = decimal.NewFromInt(500)
	goodSavingsPct    = decimal.NewFromInt(20)
	highSpendingShare = decimal.RequireFromString("0.4")
)

// Titles is the set of alert titles already issued to a user.
type Titles map[string]struct{}

// TitlesOf collects the titles of existing alerts.
func TitlesOf(existing []core.Alert) Titles {
	t := make(Titles, len(existing))
	for _, a := range existing {
		t[a.Title] = struct{}{}
	}
	return t
}

func (t Titles) Has(title string) bool {
	_, ok := t[title]
	return ok
}

// SpentPercent is expenses over budget in percent, zero when budget <= 0.
func SpentPercent(totalExpenses, monthlyBudget decimal.Decimal) decimal.Decimal {
	return core.Percent(totalExpenses, monthlyBudget)
}

// Evaluate returns the alerts to issue for a month. It never mutates
// existing and never fails.
func Evaluate(s core.StatsSnapshot, monthlyBudget decimal.Decimal, existing Titles) []core.Alert {
	var out []core.Alert
	emit := func(a core.Alert) {
		if existing.Has(a.Title) {
			return
		}
		out = append(out, a)
	}

	spentPct := SpentPercent(s.TotalExpenses, monthlyBudget)
	switch {
	case spentPct.GreaterThanOrEqual(exceededPct):
		emit(core.Alert{
			Title: TitleBudgetExceeded,
			Message: fmt.Sprintf("You've spent %s which exceeds your %s monthly budget. Consider reducing non-essential spending.",
				whole(s.TotalExpenses), plain(monthlyBudget)),
			Type:     core.AlertWarning,
			Priority: core.PriorityHigh,
		})
	case spentPct.GreaterThanOrEqual(approachingPct):
		emit(core.Alert{
			Title: TitleApproachingBudget,
			Message: fmt.Sprintf("You've used %s%% of your %s monthly budget. You have %s remaining.",
				spentPct.StringFixed(0), plain(monthlyBudget), whole(monthlyBudget.Sub(s.TotalExpenses))),
			Type:     core.AlertWarning,
			Priority: core.PriorityMedium,
		})
	}

	remaining := s.TotalIncome.Sub(s.TotalExpenses)
	if s.TotalIncome.IsPositive() && remaining.LessThan(lowBalance) {
		emit(core.Alert{
			Title:    TitleLowBalance,
			Message:  fmt.Sprintf("Your remaining balance is only %s. Be cautious with new expenses.", whole(remaining)),
			Type:     core.AlertWarning,
			Priority: core.PriorityHigh,
		})
	}

	if s.TotalIncome.IsPositive() {
		if rate := s.SavingsRate(); rate.GreaterThanOrEqual(goodSavingsPct) {
			emit(core.Alert{
				Title:    TitleGreatSavings,
				Message:  fmt.Sprintf("You're saving %s%% of your income this month. Keep up the great work!", rate.StringFixed(0)),
				Type:     core.AlertSuccess,
				Priority: core.PriorityLow,
			})
		}
	}

	if top, ok := s.TopCategory(); ok && top.Amount.GreaterThan(monthlyBudget.Mul(highSpendingShare)) {
		emit(core.Alert{
			Title: TitleHighSpendingPrefix + top.Name,
			Message: fmt.Sprintf("You've spent %s on %s, which is %s%% of your total expenses. Consider setting a category budget.",
				whole(top.Amount), top.Name, core.Percent(top.Amount, s.TotalExpenses).StringFixed(0)),
			Type:     core.AlertInfo,
			Priority: core.PriorityMedium,
		})
	}

	return out
}

func whole(d decimal.Decimal) string { return core.FormatAmount(d, 0) }

func plain(d decimal.Decimal) string { return core.CurrencySymbol + d.String() }

// Package stats reduces transaction sets into period-scoped statistics.
package stats

import (
	"time"

	"github.com/shopspring/decimal"

	"xpenso/internal/core"
	"xpenso/internal/period"
)

// Compute walks txs once. Anything that is not exactly an income counts as
// an expense and is added to its raw category key.
func Compute(txs []core.Transaction) core.StatsSnapshot {
	s := core.EmptySnapshot()
	for _, tx := range txs {
		if tx.IsIncome() {
			s.TotalIncome = s.TotalIncome.Add(tx.Amount)
			continue
		}
		s.TotalExpenses = s.TotalExpenses.Add(tx.Amount)
		s.CategorySpending[tx.Category] = s.CategorySpending[tx.Category].Add(tx.Amount)
	}
	s.Remaining = s.TotalIncome.Sub(s.TotalExpenses)
	s.TransactionCount = len(txs)
	return s
}

// ComputeWindow filters txs to w and aggregates the result.
func ComputeWindow(txs []core.Transaction, w period.Window, now time.Time) core.StatsSnapshot {
	return Compute(period.Filter(txs, w, now))
}

// Report is a window snapshot with the figures shown next to it.
type Report struct {
	Mode         period.Mode        `json:"mode"`
	Date         string             `json:"date,omitempty"`
	Stats        core.StatsSnapshot `json:"stats"`
	DailyAverage decimal.Decimal    `json:"dailyAverage"`
	SavingsRate  int64              `json:"savingsRate"`
}

// BuildReport aggregates the window and derives the daily average and the
// savings rate (rounded, never below zero).
func BuildReport(txs []core.Transaction, w period.Window, now time.Time) Report {
	snap := ComputeWindow(txs, w, now)
	r := Report{
		Mode:         w.Mode,
		Stats:        snap,
		DailyAverage: DailyAverage(snap.TotalExpenses, w.Mode, now),
	}
	if w.Mode == period.Day && !w.Date.IsZero() {
		r.Date = w.Date.Format("2006-01-02")
	}
	if rate := snap.SavingsRate().Round(0).IntPart(); rate > 0 {
		r.SavingsRate = rate
	}
	return r
}

// DailyAverage spreads total over the elapsed days of the window: the day
// itself, the days of the year so far, or the days of the month so far.
func DailyAverage(total decimal.Decimal, mode period.Mode, now time.Time) decimal.Decimal {
	var days int
	switch mode {
	case period.Day:
		return total.Round(2)
	case period.ThisYear:
		days = period.DayOfYear(now)
	default:
		days = now.Day()
	}
	if days <= 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(days))).Round(2)
}

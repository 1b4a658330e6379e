package stats

import (
	"time"

	"github.com/shopspring/decimal"

	"xpenso/internal/core"
	"xpenso/internal/period"
)

// MonthTotals is one bar of the yearly trend.
type MonthTotals struct {
	Month    string          `json:"month"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

// HourTotal is the expense total for one hour of a day.
type HourTotal struct {
	Hour   int             `json:"hour"`
	Amount decimal.Decimal `json:"amount"`
}

// DayInsight summarises a single calendar day.
type DayInsight struct {
	Date        string          `json:"date"`
	Count       int             `json:"count"`
	Spent       decimal.Decimal `json:"spent"`
	Income      decimal.Decimal `json:"income"`
	TopCategory string          `json:"topCategory,omitempty"`
	Hourly      []HourTotal     `json:"hourly"`
}

// YearlyTrend buckets the current year's transactions by month.
func YearlyTrend(txs []core.Transaction, now time.Time) []MonthTotals {
	out := make([]MonthTotals, 12)
	for i := range out {
		out[i].Month = time.Month(i + 1).String()[:3]
	}
	for _, tx := range period.Filter(txs, period.Window{Mode: period.ThisYear}, now) {
		m := tx.EffectiveDate(now).In(now.Location()).Month() - 1
		if tx.IsIncome() {
			out[m].Income = out[m].Income.Add(tx.Amount)
		} else {
			out[m].Expenses = out[m].Expenses.Add(tx.Amount)
		}
	}
	return out
}

// HourlySpending buckets the expenses of day by hour of day.
func HourlySpending(txs []core.Transaction, day, now time.Time) []HourTotal {
	out := make([]HourTotal, 24)
	for h := range out {
		out[h].Hour = h
	}
	for _, tx := range period.Filter(txs, period.On(day), now) {
		if tx.IsIncome() {
			continue
		}
		h := tx.EffectiveDate(now).In(now.Location()).Hour()
		out[h].Amount = out[h].Amount.Add(tx.Amount)
	}
	return out
}

// Day builds the single-day panel: counts, totals, top category and hourly spend.
func Day(txs []core.Transaction, day, now time.Time) DayInsight {
	inDay := period.Filter(txs, period.On(day), now)
	snap := Compute(inDay)
	insight := DayInsight{
		Date:   day.Format("2006-01-02"),
		Count:  len(inDay),
		Spent:  snap.TotalExpenses,
		Income: snap.TotalIncome,
		Hourly: HourlySpending(inDay, day, now),
	}
	if top, ok := snap.TopCategory(); ok {
		insight.TopCategory = top.Name
	}
	return insight
}

package budget

import (
	"time"

	"github.com/shopspring/decimal"

	"xpenso/internal/core"
	"xpenso/internal/period"
)

// Summary totals a merged category list.
type Summary struct {
	TotalBudget decimal.Decimal `json:"totalBudget"`
	TotalSpent  decimal.Decimal `json:"totalSpent"`
	Remaining   decimal.Decimal `json:"remaining"`
	Percentage  int64           `json:"percentage"`
	Near        int             `json:"near"`
	Over        int             `json:"over"`
}

func Summarize(cats []core.BudgetCategory) Summary {
	var s Summary
	for _, c := range cats {
		s.TotalBudget = s.TotalBudget.Add(c.Budget)
		s.TotalSpent = s.TotalSpent.Add(c.Spent)
		switch {
		case IsOver(c):
			s.Over++
		case IsNear(c):
			s.Near++
		}
	}
	s.Remaining = s.TotalBudget.Sub(s.TotalSpent)
	s.Percentage = core.Percent(s.TotalSpent, s.TotalBudget).Round(0).IntPart()
	return s
}

// Level classifies how much of the monthly limit is used.
type Level string

const (
	LevelOK       Level = "ok"
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
)

// Usage is the monthly limit progress bar.
type Usage struct {
	Limit          decimal.Decimal `json:"limit"`
	Spent          decimal.Decimal `json:"spent"`
	Remaining      decimal.Decimal `json:"remaining"`
	Percentage     int64           `json:"percentage"`
	Level          Level           `json:"level"`
	DaysUntilReset int             `json:"daysUntilReset"`
}

// MonthlyLimitUsage reports spent against limit, capped at 100 percent.
// A non-positive limit reads as 0 percent.
func MonthlyLimitUsage(spent, limit decimal.Decimal, now time.Time) Usage {
	pct := core.Percent(spent, limit).Round(0).IntPart()
	if pct > 100 {
		pct = 100
	}
	u := Usage{
		Limit:          limit,
		Spent:          spent,
		Remaining:      limit.Sub(spent),
		Percentage:     pct,
		Level:          LevelOK,
		DaysUntilReset: period.DaysUntilReset(now),
	}
	switch {
	case pct >= 90:
		u.Level = LevelCritical
	case pct >= 70:
		u.Level = LevelWarning
	}
	return u
}

package insights

import (
	"fmt"

	"github.com/shopspring/decimal"

	"xpenso/internal/core"
)

type Level string

const (
	LevelTight      Level = "tight"
	LevelReasonable Level = "reasonable"
	LevelRoomy      Level = "roomy"
)

var (
	tightBelow      = decimal.NewFromInt(1000)
	reasonableUpTo  = decimal.NewFromInt(2000)
	suggestedSaving = decimal.RequireFromString("0.2")
)

type Recommendation struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// BudgetRecommendation comments on a monthly budget without calling a model.
func BudgetRecommendation(budget decimal.Decimal) Recommendation {
	amount := core.CurrencySymbol + budget.String()
	switch {
	case budget.LessThan(tightBelow):
		return Recommendation{
			Level:   LevelTight,
			Message: fmt.Sprintf("Your %s budget is quite tight. Consider tracking every expense to stay within limits.", amount),
		}
	case budget.LessThanOrEqual(reasonableUpTo):
		return Recommendation{
			Level:   LevelReasonable,
			Message: fmt.Sprintf("A budget of %s is reasonable for a student. You're on track!", amount),
		}
	default:
		saving := core.FormatAmount(budget.Mul(suggestedSaving).Round(0), 0)
		return Recommendation{
			Level:   LevelRoomy,
			Message: fmt.Sprintf("With %s/month, you have good room. Consider saving at least 20%% (%s).", amount, saving),
		}
	}
}

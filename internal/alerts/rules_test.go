package alerts

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xpenso/internal/core"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func snapshot(income, expenses string, spending map[string]string) core.StatsSnapshot {
	s := core.EmptySnapshot()
	s.TotalIncome = d(income)
	s.TotalExpenses = d(expenses)
	s.Remaining = s.TotalIncome.Sub(s.TotalExpenses)
	for k, v := range spending {
		s.CategorySpending[k] = d(v)
	}
	return s
}

func titles(alerts []core.Alert) []string {
	out := make([]string, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Title)
	}
	return out
}

func TestEvaluateBudgetExceededAndLowBalance(t *testing.T) {
	s := snapshot("2000", "1800", map[string]string{"Rent": "500", "Food": "1300"})
	got := Evaluate(s, d("1500"), nil)

	require.Contains(t, titles(got), TitleBudgetExceeded)
	assert.Contains(t, titles(got), TitleLowBalance)
	assert.NotContains(t, titles(got), TitleApproachingBudget)
	assert.NotContains(t, titles(got), TitleGreatSavings)

	byTitle := map[string]core.Alert{}
	for _, a := range got {
		byTitle[a.Title] = a
	}
	exceeded := byTitle[TitleBudgetExceeded]
	assert.Equal(t, core.AlertWarning, exceeded.Type)
	assert.Equal(t, core.PriorityHigh, exceeded.Priority)
	assert.Equal(t, "You've spent ₹1800 which exceeds your ₹1500 monthly budget. Consider reducing non-essential spending.", exceeded.Message)

	low := byTitle[TitleLowBalance]
	assert.Equal(t, core.PriorityHigh, low.Priority)
	assert.Equal(t, "Your remaining balance is only ₹200. Be cautious with new expenses.", low.Message)

	high := byTitle["High Spending: Food"]
	assert.Equal(t, core.AlertInfo, high.Type)
	assert.Equal(t, "You've spent ₹1300 on Food, which is 72% of your total expenses. Consider setting a category budget.", high.Message)
}

func TestEvaluateGreatSavings(t *testing.T) {
	s := snapshot("1000", "700", map[string]string{"Food": "400", "Fun": "300"})
	got := Evaluate(s, d("1500"), nil)

	assert.Equal(t, []string{TitleLowBalance, TitleGreatSavings}, titles(got))
	savings := got[1]
	assert.Equal(t, core.AlertSuccess, savings.Type)
	assert.Equal(t, core.PriorityLow, savings.Priority)
	assert.Equal(t, "You're saving 30% of your income this month. Keep up the great work!", savings.Message)
}

func TestEvaluateExclusiveAtExactBudget(t *testing.T) {
	s := snapshot("0", "1500", map[string]string{"A": "500", "B": "500", "C": "500"})
	got := Evaluate(s, d("1500"), nil)
	assert.Contains(t, titles(got), TitleBudgetExceeded)
	assert.NotContains(t, titles(got), TitleApproachingBudget)

	// already issued: the exceeded branch still owns the evaluation
	again := Evaluate(s, d("1500"), TitlesOf(got))
	assert.Empty(t, again)
}

func TestEvaluateApproaching(t *testing.T) {
	s := snapshot("0", "1200", map[string]string{"A": "400", "B": "400", "C": "400"})
	got := Evaluate(s, d("1500"), nil)
	require.Equal(t, []string{TitleApproachingBudget}, titles(got))
	assert.Equal(t, "You've used 80% of your ₹1500 monthly budget. You have ₹300 remaining.", got[0].Message)
	assert.Equal(t, core.PriorityMedium, got[0].Priority)
}

func TestEvaluateIsIdempotent(t *testing.T) {
	cases := []core.StatsSnapshot{
		snapshot("2000", "1800", map[string]string{"Food": "1800"}),
		snapshot("1000", "700", map[string]string{"Food": "700"}),
		snapshot("5000", "1250", map[string]string{"Rent": "900", "Food": "350"}),
		snapshot("0", "0", nil),
	}
	for _, s := range cases {
		first := Evaluate(s, DefaultMonthlyBudget, nil)
		existing := TitlesOf(first)
		assert.Empty(t, Evaluate(s, DefaultMonthlyBudget, existing))
		assert.Len(t, existing, len(first), "titles are unique within one evaluation")
	}
}

func TestEvaluateNoIncomeSkipsIncomeRules(t *testing.T) {
	s := snapshot("0", "100", map[string]string{"Food": "100"})
	assert.Empty(t, Evaluate(s, d("1500"), nil))
}

func TestEvaluateExceededTitleSuppressesApproaching(t *testing.T) {
	s := snapshot("0", "1800", nil)
	existing := TitlesOf([]core.Alert{{Title: TitleBudgetExceeded}})
	assert.NotContains(t, titles(Evaluate(s, d("1500"), existing)), TitleApproachingBudget)
}

func TestEvaluateLowBalanceIgnoresStoredRemaining(t *testing.T) {
	healthy := snapshot("3000", "100", nil)
	healthy.Remaining = decimal.Zero
	assert.NotContains(t, titles(Evaluate(healthy, d("1500"), nil)), TitleLowBalance)

	tight := snapshot("1000", "700", nil)
	tight.Remaining = d("5000")
	got := Evaluate(tight, d("1500"), nil)
	require.Contains(t, titles(got), TitleLowBalance)
	for _, a := range got {
		if a.Title == TitleLowBalance {
			assert.Contains(t, a.Message, "300")
		}
	}
}

func TestEvaluateZeroBudget(t *testing.T) {
	s := snapshot("0", "10", map[string]string{"Food": "10"})
	got := Evaluate(s, decimal.Zero, nil)
	// no budget percentage without a budget; any spend beats 40% of zero
	assert.Equal(t, []string{"High Spending: Food"}, titles(got))
}

func TestEvaluateHighSpendingTieUsesName(t *testing.T) {
	s := snapshot("0", "1400", map[string]string{"Zoo": "700", "Art": "700"})
	got := Evaluate(s, d("1500"), nil)
	assert.Contains(t, titles(got), "High Spending: Art")
	assert.NotContains(t, titles(got), "High Spending: Zoo")
}

func TestTitlesOf(t *testing.T) {
	set := TitlesOf([]core.Alert{{Title: "a"}, {Title: "a"}, {Title: "b"}})
	assert.True(t, set.Has("a"))
	assert.False(t, set.Has("c"))
	assert.False(t, Titles(nil).Has("a"))
}

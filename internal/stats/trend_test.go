package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xpenso/internal/core"
)

func TestYearlyTrend(t *testing.T) {
	txs := []core.Transaction{
		income("Salary", "1000", time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)),
		expense("Food", "40", time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)),
		expense("Food", "60", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)),
		expense("Food", "999", time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)),
	}
	trend := YearlyTrend(txs, now)
	require.Len(t, trend, 12)
	assert.Equal(t, "Jan", trend[0].Month)
	assert.Equal(t, "Dec", trend[11].Month)
	assert.True(t, trend[0].Income.Equal(d("1000")))
	assert.True(t, trend[0].Expenses.Equal(d("40")))
	assert.True(t, trend[2].Expenses.Equal(d("60")))
	assert.True(t, trend[5].Expenses.IsZero())
}

func TestHourlySpendingSkipsIncome(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		expense("Food", "12", time.Date(2026, 3, 10, 8, 15, 0, 0, time.UTC)),
		expense("Food", "3", time.Date(2026, 3, 10, 8, 45, 0, 0, time.UTC)),
		income("Salary", "500", time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)),
		expense("Food", "7", time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)),
	}
	hours := HourlySpending(txs, day, now)
	require.Len(t, hours, 24)
	assert.True(t, hours[8].Amount.Equal(d("15")))
	assert.Equal(t, 23, hours[23].Hour)
}

func TestDay(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		expense("Food", "12", time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)),
		expense("Transport", "30", time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)),
		income("Gift", "50", time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)),
		expense("Food", "100", time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)),
	}
	insight := Day(txs, day, now)
	assert.Equal(t, "2026-03-10", insight.Date)
	assert.Equal(t, 3, insight.Count)
	assert.True(t, insight.Spent.Equal(d("42")))
	assert.True(t, insight.Income.Equal(d("50")))
	assert.Equal(t, "Transport", insight.TopCategory)
	assert.True(t, insight.Hourly[18].Amount.Equal(d("30")))

	empty := Day(nil, day, now)
	assert.Equal(t, 0, empty.Count)
	assert.Empty(t, empty.TopCategory)
}

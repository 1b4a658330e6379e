package period

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xpenso/internal/core"
)

var now = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func tx(id string, date, created time.Time) core.Transaction {
	return core.Transaction{ID: id, Amount: decimal.NewFromInt(1), Date: date, CreatedAt: created}
}

func ids(txs []core.Transaction) []string {
	out := make([]string, 0, len(txs))
	for _, t := range txs {
		out = append(out, t.ID)
	}
	return out
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ThisMonth, m)

	for _, s := range []string{"thisMonth", "thisYear", "day", "all"} {
		m, err := ParseMode(s)
		require.NoError(t, err)
		assert.Equal(t, Mode(s), m)
	}

	_, err = ParseMode("lastWeek")
	assert.Error(t, err)
}

func TestFilterThisMonth(t *testing.T) {
	txs := []core.Transaction{
		tx("in-month", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), time.Time{}),
		tx("last-month", time.Date(2026, 2, 28, 23, 0, 0, 0, time.UTC), time.Time{}),
		tx("last-year-same-month", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), time.Time{}),
		// explicit date wins over createdAt
		tx("date-wins", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)),
		tx("created-fallback", time.Time{}, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)),
		tx("no-dates", time.Time{}, time.Time{}),
	}

	got := Filter(txs, Month(), now)
	assert.Equal(t, []string{"in-month", "created-fallback", "no-dates"}, ids(got))
}

func TestFilterThisYear(t *testing.T) {
	txs := []core.Transaction{
		tx("jan", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), time.Time{}),
		tx("dec-prev", time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), time.Time{}),
	}
	got := Filter(txs, Window{Mode: ThisYear}, now)
	assert.Equal(t, []string{"jan"}, ids(got))
}

func TestFilterDay(t *testing.T) {
	txs := []core.Transaction{
		tx("morning", time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC), time.Time{}),
		tx("night", time.Date(2026, 2, 10, 23, 59, 0, 0, time.UTC), time.Time{}),
		tx("next-day", time.Date(2026, 2, 11, 0, 0, 0, 0, time.UTC), time.Time{}),
		tx("other-year", time.Date(2025, 2, 10, 8, 0, 0, 0, time.UTC), time.Time{}),
	}
	got := Filter(txs, On(time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)), now)
	assert.Equal(t, []string{"morning", "night"}, ids(got))

	// without a date the day window passes everything through
	assert.Len(t, Filter(txs, Window{Mode: Day}, now), 4)
}

func TestFilterComparesInCallerLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	localNow := time.Date(2026, 3, 1, 9, 0, 0, 0, loc)
	// 2026-02-28 20:00 UTC is already March 1st in IST
	txs := []core.Transaction{tx("late-utc", time.Date(2026, 2, 28, 20, 0, 0, 0, time.UTC), time.Time{})}
	assert.Len(t, Filter(txs, Month(), localNow), 1)
	assert.Len(t, Filter(txs, Month(), localNow.UTC()), 0)
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	txs := []core.Transaction{tx("a", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Time{})}
	_ = Filter(txs, Month(), now)
	assert.Equal(t, "a", txs[0].ID)
	assert.Empty(t, Filter(nil, Month(), now))
}

func TestCalendarHelpers(t *testing.T) {
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), StartOfMonth(now))
	assert.Equal(t, 16, DaysUntilReset(now))
	assert.Equal(t, 74, DayOfYear(now))
}

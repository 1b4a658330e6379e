// Package period selects the transactions that fall inside a reporting window.
//
// Windows are always relative to the caller's clock: "thisMonth" is the month
// containing now, not the month of any particular transaction. All dates are
// compared in now's location.
package period

import (
	"fmt"
	"strings"
	"time"

	"xpenso/internal/core"
)

const (
	ThisMonth Mode = "thisMonth"
	ThisYear  Mode = "thisYear"
	Day       Mode = "day"
	All       Mode = "all"
)

// Mode names a reporting window.
type Mode string

// Window is a mode plus, for Day, the target calendar date.
type Window struct {
	Mode Mode
	Date time.Time
}

// ParseMode accepts the wire names of the modes. An empty string means ThisMonth.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.TrimSpace(s)); m {
	case "":
		return ThisMonth, nil
	case ThisMonth, ThisYear, Day, All:
		return m, nil
	default:
		return "", fmt.Errorf("unknown period mode %q", s)
	}
}

// Month is the window covering the current month.
func Month() Window { return Window{Mode: ThisMonth} }

// On is the window covering a single calendar day.
func On(date time.Time) Window { return Window{Mode: Day, Date: date} }

// Contains reports whether ts belongs to the window. A Day window without a
// date selects everything, like All.
func (w Window) Contains(ts, now time.Time) bool {
	d := ts.In(now.Location())
	switch w.Mode {
	case ThisMonth:
		return d.Year() == now.Year() && d.Month() == now.Month()
	case ThisYear:
		return d.Year() == now.Year()
	case Day:
		if w.Date.IsZero() {
			return true
		}
		y, m, day := w.Date.Date()
		return d.Year() == y && d.Month() == m && d.Day() == day
	default:
		return true
	}
}

// Filter returns the transactions whose effective date falls inside w,
// preserving input order. The input slice is not modified.
func Filter(txs []core.Transaction, w Window, now time.Time) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if w.Contains(tx.EffectiveDate(now), now) {
			out = append(out, tx)
		}
	}
	return out
}

// StartOfMonth returns midnight on the first day of now's month.
func StartOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

// DaysUntilReset counts the days left in the current month, excluding today.
func DaysUntilReset(now time.Time) int {
	last := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location()).Day()
	return last - now.Day()
}

// DayOfYear is the 1-based ordinal of now within its year.
func DayOfYear(now time.Time) int {
	return now.YearDay()
}

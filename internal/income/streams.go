// Package income groups income transactions into named streams.
package income

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"xpenso/internal/core"
	"xpenso/internal/palette"
)

const (
	// OtherStream collects income with neither a category nor a description.
	OtherStream = "Other"

	// MonthlyFrequency labels every stream built from a month window.
	MonthlyFrequency = "This month"
)

// Filter narrows a stream list by recurrence.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterRecurring Filter = "recurring"
	FilterOneTime   Filter = "onetime"
)

// ParseFilter maps the wire value of a filter, empty meaning all.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterRecurring, FilterOneTime:
		return f, nil
	default:
		return "", fmt.Errorf("unknown income filter %q", s)
	}
}

// Key is the grouping key of an income transaction.
func Key(tx core.Transaction) string {
	if c := strings.TrimSpace(tx.Category); c != "" {
		return c
	}
	if d := strings.TrimSpace(tx.Description); d != "" {
		return d
	}
	return OtherStream
}

// Group builds one stream per key from the income transactions in txs.
// Colors are handed out in first-seen order so equal inputs yield equal
// output. The result is sorted by amount descending, ties by name.
func Group(txs []core.Transaction) []core.IncomeStream {
	index := make(map[string]int)
	var streams []core.IncomeStream
	colors := palette.NewCycle(palette.StreamColors)

	for _, tx := range txs {
		if !tx.IsIncome() {
			continue
		}
		key := Key(tx)
		i, ok := index[key]
		if !ok {
			i = len(streams)
			index[key] = i
			streams = append(streams, core.IncomeStream{
				Name:      key,
				Icon:      palette.StreamIcon(key),
				Color:     colors.Next(),
				Frequency: MonthlyFrequency,
			})
		}
		streams[i].Amount = streams[i].Amount.Add(tx.Amount)
		streams[i].Count++
	}

	Sort(streams, false)
	return streams
}

// Sort orders streams by amount, descending unless ascending is set. Ties
// are always broken by name ascending.
func Sort(streams []core.IncomeStream, ascending bool) {
	sort.SliceStable(streams, func(i, j int) bool {
		if c := streams[i].Amount.Cmp(streams[j].Amount); c != 0 {
			if ascending {
				return c < 0
			}
			return c > 0
		}
		return streams[i].Name < streams[j].Name
	})
}

// Apply returns the streams matching f, in input order.
func Apply(streams []core.IncomeStream, f Filter) []core.IncomeStream {
	out := make([]core.IncomeStream, 0, len(streams))
	for _, s := range streams {
		switch f {
		case FilterRecurring:
			if !s.IsRecurring() {
				continue
			}
		case FilterOneTime:
			if s.IsRecurring() {
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

// Summary is the header shown above the stream list.
type Summary struct {
	Total     decimal.Decimal `json:"total"`
	Projected decimal.Decimal `json:"projected"`
	Streams   int             `json:"streams"`
	Recurring int             `json:"recurring"`
}

var projectionFactor = decimal.RequireFromString("1.1")

// Summarize totals the streams and projects next month at 110%.
func Summarize(streams []core.IncomeStream) Summary {
	var s Summary
	for _, st := range streams {
		s.Total = s.Total.Add(st.Amount)
		if st.IsRecurring() {
			s.Recurring++
		}
	}
	s.Streams = len(streams)
	s.Projected = s.Total.Mul(projectionFactor).Round(2)
	return s
}

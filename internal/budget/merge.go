// Package budget merges persisted category definitions with the spending
// observed in the current month.
package budget

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"xpenso/internal/core"
	"xpenso/internal/palette"
)

// Filter selects categories by how close they are to their budget.
type Filter string

const (
	FilterAll  Filter = "all"
	FilterNear Filter = "near"
	FilterOver Filter = "over"
)

// NearLimitRatio is the spent/budget ratio from which a category is "near".
var NearLimitRatio = decimal.RequireFromString("0.75")

func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterNear, FilterOver:
		return f, nil
	default:
		return "", fmt.Errorf("unknown budget filter %q", s)
	}
}

// Merge returns exactly one category per distinct name found in defs or
// spending. Persisted definitions come first in their stored order, then the
// spending-only names in lexical order; that order drives the fallback color
// cycle. Spent is always taken from spending. The result is sorted by spent
// descending, ties by name.
func Merge(defs []core.BudgetCategory, spending map[string]decimal.Decimal) []core.BudgetCategory {
	saved := make(map[string]core.BudgetCategory, len(defs))
	names := make([]string, 0, len(defs)+len(spending))
	for _, def := range defs {
		if _, dup := saved[def.Name]; dup {
			continue
		}
		saved[def.Name] = def
		names = append(names, def.Name)
	}

	extra := make([]string, 0, len(spending))
	for name := range spending {
		if _, ok := saved[name]; !ok {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	names = append(names, extra...)

	colors := palette.NewCycle(palette.CategoryColors)
	out := make([]core.BudgetCategory, 0, len(names))
	for _, name := range names {
		meta, ok := palette.CategoryMeta(name)
		if !ok {
			meta = palette.Meta{Icon: palette.DefaultCategoryIcon, Color: colors.Next()}
		}

		c := core.BudgetCategory{Name: name, Budget: decimal.Zero, Icon: meta.Icon, Color: meta.Color}
		if def, ok := saved[name]; ok {
			c.ID = def.ID
			c.Budget = def.Budget
			if def.Icon != "" {
				c.Icon = def.Icon
			}
			if def.Color != "" {
				c.Color = def.Color
			}
		}
		c.Spent = spending[name]
		out = append(out, c)
	}

	Sort(out, false)
	return out
}

// Sort orders categories by spent, descending unless ascending is set. Ties
// are broken by name ascending in both directions.
func Sort(cats []core.BudgetCategory, ascending bool) {
	sort.SliceStable(cats, func(i, j int) bool {
		if c := cats[i].Spent.Cmp(cats[j].Spent); c != 0 {
			if ascending {
				return c < 0
			}
			return c > 0
		}
		return cats[i].Name < cats[j].Name
	})
}

// IsNear reports 0.75 <= spent/budget < 1. Categories without a budget never match.
func IsNear(c core.BudgetCategory) bool {
	if !c.HasBudget() {
		return false
	}
	r := c.Ratio()
	return r.GreaterThanOrEqual(NearLimitRatio) && r.LessThan(decimal.NewFromInt(1))
}

// IsOver reports spent >= budget for categories with a budget.
func IsOver(c core.BudgetCategory) bool {
	return c.HasBudget() && c.Spent.GreaterThanOrEqual(c.Budget)
}

// Apply returns the categories matching f, preserving order.
func Apply(cats []core.BudgetCategory, f Filter) []core.BudgetCategory {
	out := make([]core.BudgetCategory, 0, len(cats))
	for _, c := range cats {
		switch f {
		case FilterNear:
			if !IsNear(c) {
				continue
			}
		case FilterOver:
			if !IsOver(c) {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

package google

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"xpenso/internal/core"
)

// Column order of the transactions sheet.
var header = []string{"Date", "Description", "Amount", "Category", "Type", "Wallet", "User", "ID"}

type exportedRow struct {
	row    int // 1-based sheet row
	userID string
	tx     core.Transaction
}

// formatRow renders tx as a sheet row. Dates are written as RFC 3339 UTC text
// and the amount as a number so the sheet can sum it.
func formatRow(userID string, tx core.Transaction, now time.Time) []any {
	return []any{
		tx.EffectiveDate(now).UTC().Format(time.RFC3339),
		tx.Description,
		tx.Amount.InexactFloat64(),
		tx.Category,
		string(tx.Type),
		tx.Wallet,
		userID,
		tx.ID,
	}
}

// parseRows converts a values matrix (as returned by the Sheets API) into
// exported transactions. A header row, when present, locates the columns;
// otherwise the default column order is assumed. Rows without an ID are
// skipped since they were not written by the exporter.
func parseRows(values [][]any) []exportedRow {
	if len(values) == 0 {
		return nil
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	start := 0
	first := toStrings(values[0])
	if indexOf(first, "ID") != -1 {
		for _, name := range header {
			cols[name] = indexOf(first, name)
		}
		start = 1
	}

	out := make([]exportedRow, 0, len(values)-start)
	for i := start; i < len(values); i++ {
		raw := values[i]
		row := toStrings(raw)
		id := safeGet(row, cols["ID"])
		if id == "" {
			continue
		}
		out = append(out, exportedRow{
			row:    i + 1,
			userID: safeGet(row, cols["User"]),
			tx: core.Transaction{
				ID:          id,
				Date:        core.ParseTimestamp(safeGet(row, cols["Date"])),
				Description: safeGet(row, cols["Description"]),
				Amount:      parseAmountCell(safeGetAny(raw, cols["Amount"])),
				Category:    safeGet(row, cols["Category"]),
				Type:        core.TxType(safeGet(row, cols["Type"])),
				Wallet:      safeGet(row, cols["Wallet"]),
			},
		})
	}
	return out
}

// parseAmountCell accepts unformatted numbers as well as text a user typed
// by hand, with or without the currency symbol and with a decimal comma.
func parseAmountCell(v any) decimal.Decimal {
	s, ok := v.(string)
	if !ok {
		return core.CoerceAmount(v)
	}
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), core.CurrencySymbol))
	s = strings.ReplaceAll(s, ",", ".")
	return core.CoerceAmount(s)
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

func safeGetAny(arr []any, idx int) any {
	if idx < 0 || idx >= len(arr) {
		return nil
	}
	return arr[idx]
}

package google

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"xpenso/internal/core"
)

func TestParseRows_WithHeader(t *testing.T) {
	values := [][]any{
		{"Date", "Description", "Amount", "Category", "Type", "Wallet", "User", "ID"},
		{"2026-03-02T12:00:00Z", "Lunch", 12.5, "Food", "expense", "Personal Card", "u1", "t1"},
		{"", "hand typed note"}, // no id
		{"2026-03-03T09:00:00Z", "Salary", "₹2,000", "Salary", "income", "", "u2", "t2"},
	}
	rows := parseRows(values)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	first := rows[0]
	if first.row != 2 || first.userID != "u1" || first.tx.ID != "t1" {
		t.Fatalf("unexpected first row: %+v", first)
	}
	if !first.tx.Amount.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("amount got %s", first.tx.Amount)
	}
	if !first.tx.Date.Equal(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("date got %v", first.tx.Date)
	}
	if rows[1].row != 4 || !rows[1].tx.IsIncome() {
		t.Fatalf("unexpected second row: %+v", rows[1])
	}
	// "2,000" reads as a decimal comma, like the rest of the amount parsing
	if !rows[1].tx.Amount.Equal(decimal.RequireFromString("2")) {
		t.Fatalf("amount got %s", rows[1].tx.Amount)
	}
}

func TestParseRows_ReorderedHeader(t *testing.T) {
	values := [][]any{
		{"ID", "User", "Amount", "Description"},
		{"t9", "u1", "7", "Coffee"},
	}
	rows := parseRows(values)
	if len(rows) != 1 || rows[0].tx.Description != "Coffee" || !rows[0].tx.Amount.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if rows[0].tx.Category != "" {
		t.Fatalf("missing column should read empty, got %q", rows[0].tx.Category)
	}
}

func TestParseRows_NoHeaderUsesDefaultOrder(t *testing.T) {
	values := [][]any{
		{"2026-01-01", "Gift", 50.0, "Gift", "income", "", "u1", "g1"},
	}
	rows := parseRows(values)
	if len(rows) != 1 || rows[0].row != 1 || rows[0].tx.Category != "Gift" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestParseRows_MalformedAmountIsZero(t *testing.T) {
	rows := parseRows([][]any{{"", "x", "abc", "", "", "", "u1", "id"}})
	if len(rows) != 1 || !rows[0].tx.Amount.IsZero() {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestFormatRowRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	tx := core.Transaction{
		ID:          "t1",
		Amount:      decimal.RequireFromString("19.99"),
		Description: "Books",
		Category:    "Education",
		Type:        core.Expense,
		Wallet:      core.DefaultWallet,
	}
	row := formatRow("u1", tx, now)
	if len(row) != len(header) {
		t.Fatalf("row has %d cells, want %d", len(row), len(header))
	}
	if row[0] != "2026-03-15T12:00:00Z" {
		t.Fatalf("date cell got %v", row[0])
	}

	parsed := parseRows([][]any{row})
	if len(parsed) != 1 {
		t.Fatalf("expected 1 row, got %d", len(parsed))
	}
	got := parsed[0].tx
	if got.ID != "t1" || got.Category != "Education" || !got.Amount.Equal(tx.Amount) || !got.Date.Equal(now) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

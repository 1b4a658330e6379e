package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Amount:      decimal.NewFromInt(10),
		Description: "lunch",
		Category:    "Food & Dining",
		Type:        Expense,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	long := make([]byte, 201)
	for i := range long {
		long[i] = 'a'
	}
	bads := []Transaction{
		{Amount: decimal.NewFromInt(-1), Description: "a", Category: "c", Type: Expense},
		{Amount: decimal.NewFromInt(1), Description: " ", Category: "c", Type: Expense},
		{Amount: decimal.NewFromInt(1), Description: string(long), Category: "c", Type: Expense},
		{Amount: decimal.NewFromInt(1), Description: "a", Category: "", Type: Expense},
		{Amount: decimal.NewFromInt(1), Description: "a", Category: "c", Type: "refund"},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestTransactionNormalize(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	tx := Transaction{Description: " coffee ", Category: " Food "}.Normalize(now)
	if tx.Type != Expense || tx.Wallet != DefaultWallet || !tx.Date.Equal(now) {
		t.Fatalf("defaults not applied: %+v", tx)
	}
	if tx.Description != "coffee" || tx.Category != "Food" {
		t.Fatalf("expected trimmed fields, got %+v", tx)
	}
}

func TestEffectiveDate(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	date := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	created := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)

	if got := (Transaction{Date: date, CreatedAt: created}).EffectiveDate(now); !got.Equal(date) {
		t.Fatalf("expected explicit date, got %v", got)
	}
	if got := (Transaction{CreatedAt: created}).EffectiveDate(now); !got.Equal(created) {
		t.Fatalf("expected creation time, got %v", got)
	}
	if got := (Transaction{}).EffectiveDate(now); !got.Equal(now) {
		t.Fatalf("expected now, got %v", got)
	}
}

func TestTransactionUnmarshalLenient(t *testing.T) {
	var txs []Transaction
	data := `[
		{"id":"a","amount":"12.5","category":"Food","type":"expense","date":"2026-03-01"},
		{"id":"b","amount":"oops","category":"Food"},
		{"id":"c","amount":null,"type":7,"createdAt":1767225600000},
		{"id":"d","amount":100,"type":"income","date":"2026-03-02T08:30:00Z"}
	]`
	if err := json.Unmarshal([]byte(data), &txs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !txs[0].Amount.Equal(decimal.RequireFromString("12.5")) || txs[0].Date.IsZero() {
		t.Fatalf("unexpected first record: %+v", txs[0])
	}
	if !txs[1].Amount.IsZero() || txs[1].IsIncome() {
		t.Fatalf("malformed amount should coerce to 0 expense: %+v", txs[1])
	}
	if txs[2].Type != "" || txs[2].CreatedAt.IsZero() || !txs[2].Date.IsZero() {
		t.Fatalf("unexpected third record: %+v", txs[2])
	}
	if !txs[3].IsIncome() || txs[3].Date.Hour() != 8 {
		t.Fatalf("unexpected fourth record: %+v", txs[3])
	}
}

func TestBudgetCategoryPercentage(t *testing.T) {
	c := BudgetCategory{Name: "Food", Budget: decimal.NewFromInt(100), Spent: decimal.NewFromInt(50)}
	if c.Percentage() != 50 {
		t.Fatalf("expected 50, got %d", c.Percentage())
	}
	noBudget := BudgetCategory{Name: "Transport", Spent: decimal.NewFromInt(20)}
	if noBudget.HasBudget() || noBudget.Percentage() != 0 {
		t.Fatalf("zero budget must report 0%%, got %d", noBudget.Percentage())
	}
	over := BudgetCategory{Name: "Fun", Budget: decimal.NewFromInt(40), Spent: decimal.NewFromInt(60)}
	if over.Percentage() != 150 {
		t.Fatalf("expected 150, got %d", over.Percentage())
	}
}

func TestSnapshotRanking(t *testing.T) {
	s := StatsSnapshot{
		TotalIncome:   decimal.NewFromInt(1000),
		TotalExpenses: decimal.NewFromInt(700),
		CategorySpending: map[string]decimal.Decimal{
			"Transport": decimal.NewFromInt(200),
			"Food":      decimal.NewFromInt(300),
			"Books":     decimal.NewFromInt(200),
		},
	}
	ranked := s.RankedCategories()
	if ranked[0].Name != "Food" || ranked[1].Name != "Books" || ranked[2].Name != "Transport" {
		t.Fatalf("unexpected ranking: %+v", ranked)
	}
	if top, ok := s.TopCategory(); !ok || top.Name != "Food" {
		t.Fatalf("unexpected top category: %+v", top)
	}
	if got := s.TopCategories(2); len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if !s.SavingsRate().Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected 30%% savings, got %s", s.SavingsRate())
	}
	if _, ok := EmptySnapshot().TopCategory(); ok {
		t.Fatalf("empty snapshot has no top category")
	}
}

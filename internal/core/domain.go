package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

const (
	AlertWarning AlertType = "warning"
	AlertSuccess AlertType = "success"
	AlertInfo    AlertType = "info"
)

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// DefaultWallet is assigned to transactions recorded without one.
const DefaultWallet = "Personal Card"

type (
	// TxType is kept as the raw stored value. Anything other than "income",
	// including an empty value, is treated as an expense.
	TxType string

	AlertType string

	Priority string

	Transaction struct {
		ID          string          `json:"id"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
		Category    string          `json:"category"`
		Type        TxType          `json:"type"`
		Wallet      string          `json:"wallet,omitempty"`
		Date        time.Time       `json:"date"`      // zero when the record carries no explicit date
		CreatedAt   time.Time       `json:"createdAt"` // assigned by the store
	}

	BudgetCategory struct {
		ID     string          `json:"id,omitempty"`
		Name   string          `json:"name"`
		Budget decimal.Decimal `json:"budget"`
		Spent  decimal.Decimal `json:"spent"` // derived, never read back from storage
		Icon   string          `json:"icon"`
		Color  string          `json:"color"`
	}

	IncomeStream struct {
		Name      string          `json:"name"`
		Amount    decimal.Decimal `json:"amount"`
		Count     int             `json:"count"`
		Icon      string          `json:"icon"`
		Color     string          `json:"color"`
		Frequency string          `json:"frequency"`
	}

	// Alert titles double as the de-duplication key.
	Alert struct {
		ID        string    `json:"id,omitempty"`
		Title     string    `json:"title"`
		Message   string    `json:"message"`
		Type      AlertType `json:"type"`
		Priority  Priority  `json:"priority"`
		Read      bool      `json:"read"`
		CreatedAt time.Time `json:"createdAt"`
	}

	Insight struct {
		ID        string    `json:"id,omitempty"`
		Message   string    `json:"message"`
		Category  string    `json:"category"`
		Type      string    `json:"type"`
		CreatedAt time.Time `json:"createdAt"`
	}

	Settings struct {
		DisplayName   string          `json:"displayName,omitempty"`
		MonthlyBudget decimal.Decimal `json:"monthlyBudget"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidBudget    = errors.New("invalid budget")
	ErrEmptyTitle       = errors.New("empty alert title")

	// ErrDuplicateCategory reports a category name the user already has.
	ErrDuplicateCategory = errors.New("category already exists")
)

// IsIncome reports whether the transaction counts towards income.
func (t Transaction) IsIncome() bool {
	return t.Type == Income
}

// EffectiveDate returns the explicit date when present, then the creation
// timestamp, then now.
func (t Transaction) EffectiveDate(now time.Time) time.Time {
	switch {
	case !t.Date.IsZero():
		return t.Date
	case !t.CreatedAt.IsZero():
		return t.CreatedAt
	default:
		return now
	}
}

// Normalize fills the defaults applied when a transaction is recorded.
func (t Transaction) Normalize(now time.Time) Transaction {
	t.Description = strings.TrimSpace(t.Description)
	t.Category = strings.TrimSpace(t.Category)
	if t.Type == "" {
		t.Type = Expense
	}
	if strings.TrimSpace(t.Wallet) == "" {
		t.Wallet = DefaultWallet
	}
	if t.Date.IsZero() {
		t.Date = now
	}
	return t
}

// Validate checks a transaction submitted for recording. Stored records are
// never rejected by the aggregation code; see CoerceAmount.
func (t Transaction) Validate() error {
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	switch t.Type {
	case Income, Expense:
	default:
		return ErrInvalidType
	}
	return nil
}

func (c BudgetCategory) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.Budget.IsNegative() {
		return ErrInvalidBudget
	}
	return nil
}

// HasBudget reports whether a limit was set. A zero budget means "no budget set".
func (c BudgetCategory) HasBudget() bool {
	return c.Budget.IsPositive()
}

// Ratio returns spent/budget, or zero when no budget is set.
func (c BudgetCategory) Ratio() decimal.Decimal {
	if !c.HasBudget() {
		return decimal.Zero
	}
	return c.Spent.Div(c.Budget)
}

// Percentage is the rounded share of the budget already spent. It is not
// capped, so an overspent category reports more than 100.
func (c BudgetCategory) Percentage() int64 {
	return c.Ratio().Mul(hundred).Round(0).IntPart()
}

// IsRecurring reports whether the stream saw more than one payment in the window.
func (s IncomeStream) IsRecurring() bool {
	return s.Count > 1
}

func (a Alert) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

func (s Settings) Validate() error {
	if s.MonthlyBudget.IsNegative() {
		return ErrInvalidBudget
	}
	return nil
}

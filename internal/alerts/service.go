package alerts

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"xpenso/internal/core"
	"xpenso/internal/log"
	"xpenso/internal/period"
	"xpenso/internal/stats"
	"xpenso/internal/store"
)

const (
	// ExistingAlertsLimit bounds the alert history consulted for dedup.
	ExistingAlertsLimit = 50
	// DefaultTransactionLimit bounds the transactions read per evaluation.
	DefaultTransactionLimit = 500
)

// AppendResult reports the outcome of persisting one alert.
type AppendResult struct {
	Alert core.Alert
	ID    string
	Err   error
}

// Service runs the rule engine against a user's stored data and persists
// what it emits.
type Service struct {
	txs      store.TransactionStore
	alerts   store.AlertStore
	settings store.SettingsStore

	defaultBudget decimal.Decimal
	fetchLimit    int
	now           func() time.Time
	logger        *log.Logger
	structured    *log.StructuredLogger
}

type Option func(*Service)

// WithDefaultBudget overrides the 1500 fallback budget.
func WithDefaultBudget(b decimal.Decimal) Option {
	return func(s *Service) {
		if b.IsPositive() {
			s.defaultBudget = b
		}
	}
}

func WithFetchLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fetchLimit = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentAlerts)
		}
	}
}

func NewService(txs store.TransactionStore, alerts store.AlertStore, settings store.SettingsStore, opts ...Option) *Service {
	s := &Service{
		txs:           txs,
		alerts:        alerts,
		settings:      settings,
		defaultBudget: DefaultMonthlyBudget,
		fetchLimit:    DefaultTransactionLimit,
		now:           time.Now,
		logger:        log.Discard(),
	}
	for _, o := range opts {
		o(s)
	}
	s.structured = log.NewStructuredLogger(s.logger)
	return s
}

// MonthlyBudget reads the user's limit. A missing, unreadable or
// non-positive value yields the default.
func (s *Service) MonthlyBudget(ctx context.Context, userID string) decimal.Decimal {
	st, err := s.settings.GetSettings(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.WarnContext(ctx, "Monthly budget unavailable, using default",
				log.FieldUserID, userID, log.FieldError, err)
		}
		return s.defaultBudget
	}
	if !st.MonthlyBudget.IsPositive() {
		return s.defaultBudget
	}
	return st.MonthlyBudget
}

// Evaluate computes this month's snapshot for userID, runs the rules and
// appends every emitted alert on its own. A failed append is reported in its
// result and does not stop the others. Read failures degrade to empty input.
func (s *Service) Evaluate(ctx context.Context, userID string) []AppendResult {
	now := s.now()

	txs, err := s.txs.ListTransactions(ctx, userID, s.fetchLimit)
	if err != nil {
		s.logger.WarnContext(ctx, "Transactions unavailable, evaluating empty month",
			log.FieldUserID, userID, log.FieldError, err)
		txs = nil
	}

	existing, err := s.alerts.ListAlerts(ctx, userID, ExistingAlertsLimit)
	if err != nil {
		s.logger.WarnContext(ctx, "Existing alerts unavailable, dedup limited to this run",
			log.FieldUserID, userID, log.FieldError, err)
		existing = nil
	}

	snapshot := stats.ComputeWindow(txs, period.Month(), now)
	emitted := Evaluate(snapshot, s.MonthlyBudget(ctx, userID), TitlesOf(existing))

	results := make([]AppendResult, 0, len(emitted))
	for _, a := range emitted {
		a.CreatedAt = now
		id, err := s.alerts.AppendAlert(ctx, userID, a)
		if err != nil {
			s.structured.LogError(ctx, "Failed to append alert", err, log.OpAppend,
				log.NewFields().WithUser(userID).WithAlert("", a.Title))
		} else {
			a.ID = id
			s.structured.LogAlertIssued(ctx, userID, id, a.Title)
		}
		results = append(results, AppendResult{Alert: a, ID: id, Err: err})
	}
	return results
}

// Failed returns the results whose append failed.
func Failed(results []AppendResult) []AppendResult {
	var out []AppendResult
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

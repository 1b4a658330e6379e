package services

import (
	"context"
	"fmt"
	"time"

	"xpenso/internal/alerts"
	"xpenso/internal/cache"
	"xpenso/internal/core"
	"xpenso/internal/log"
	"xpenso/internal/store"
)

// Publisher announces recorded transactions to asynchronous consumers.
type Publisher interface {
	PublishTransactionRecorded(ctx context.Context, userID, transactionID string) error
}

// Invalidator drops cached entries for a user.
type Invalidator interface {
	DeletePrefix(prefix string) int
}

// AlertEvaluator re-runs the alert rules for a user.
type AlertEvaluator interface {
	Evaluate(ctx context.Context, userID string) []alerts.AppendResult
}

const (
	DefaultFetchLimit = 500
	RecentLimit       = 10
)

// TransactionService records transactions and fans the change out: cached
// dashboards are dropped and the worker is told to re-evaluate alerts.
type TransactionService struct {
	txs        store.TransactionStore
	publisher  Publisher
	cache      Invalidator
	evaluator  AlertEvaluator
	fetchLimit int
	now        func() time.Time
	logger     *log.Logger
	structured *log.StructuredLogger
}

type TransactionOption func(*TransactionService)

// WithPublisher enables asynchronous alert evaluation. Pass only a non-nil client.
func WithPublisher(p Publisher) TransactionOption {
	return func(s *TransactionService) { s.publisher = p }
}

func WithInvalidator(c Invalidator) TransactionOption {
	return func(s *TransactionService) { s.cache = c }
}

// WithInlineAlerts evaluates alerts in the request when no publisher is
// configured or publishing fails.
func WithInlineAlerts(e AlertEvaluator) TransactionOption {
	return func(s *TransactionService) { s.evaluator = e }
}

func WithTransactionFetchLimit(n int) TransactionOption {
	return func(s *TransactionService) {
		if n > 0 {
			s.fetchLimit = n
		}
	}
}

func WithTransactionClock(now func() time.Time) TransactionOption {
	return func(s *TransactionService) { s.now = now }
}

func WithTransactionLogger(l *log.Logger) TransactionOption {
	return func(s *TransactionService) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentTx)
		}
	}
}

func NewTransactionService(txs store.TransactionStore, opts ...TransactionOption) *TransactionService {
	s := &TransactionService{
		txs:        txs,
		fetchLimit: DefaultFetchLimit,
		now:        time.Now,
		logger:     log.Discard(),
	}
	for _, o := range opts {
		o(s)
	}
	s.structured = log.NewStructuredLogger(s.logger)
	return s
}

// Record normalizes, validates and stores tx. Validation failures are
// returned unwrapped so callers can match the core sentinels. Publishing is
// best effort: the transaction is already saved when it fails.
func (s *TransactionService) Record(ctx context.Context, userID string, tx core.Transaction) (core.Transaction, error) {
	tx = tx.Normalize(s.now())
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.txs.AddTransaction(ctx, userID, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.structured.LogTransactionRecorded(ctx, userID, saved.ID, saved.Description,
		saved.Amount.String(), saved.Category, string(saved.Type))

	if s.cache != nil {
		s.cache.DeletePrefix(cache.UserPrefix(userID))
	}

	published := false
	if s.publisher != nil {
		if err := s.publisher.PublishTransactionRecorded(ctx, userID, saved.ID); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish transaction message",
				log.FieldUserID, userID, log.FieldTransactionID, saved.ID, log.FieldError, err)
		} else {
			published = true
		}
	}
	if !published && s.evaluator != nil {
		if failed := alerts.Failed(s.evaluator.Evaluate(ctx, userID)); len(failed) > 0 {
			s.logger.WarnContext(ctx, "Some alerts could not be saved",
				log.FieldUserID, userID, log.FieldCount, len(failed))
		}
	}

	return saved, nil
}

// List returns the newest transactions. limit is clamped to the fetch limit;
// zero or negative means the fetch limit.
func (s *TransactionService) List(ctx context.Context, userID string, limit int) ([]core.Transaction, error) {
	if limit <= 0 || limit > s.fetchLimit {
		limit = s.fetchLimit
	}
	txs, err := s.txs.ListTransactions(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	return s.txs.GetTransaction(ctx, userID, id)
}

// Package store declares the persistence collaborators the dashboard reads
// from and writes to. Every call is scoped to a user id.
package store

import (
	"context"
	"errors"

	"xpenso/internal/core"
)

// ErrNotFound is returned when a record or a user's settings do not exist.
var ErrNotFound = errors.New("not found")

// Ports for outbound adapters.
type (
	TransactionStore interface {
		// AddTransaction assigns ID and CreatedAt and returns the stored record.
		AddTransaction(ctx context.Context, userID string, tx core.Transaction) (core.Transaction, error)
		// ListTransactions returns at most limit records, newest first.
		ListTransactions(ctx context.Context, userID string, limit int) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	}

	CategoryStore interface {
		// ListCategories returns the persisted definitions in creation order.
		ListCategories(ctx context.Context, userID string) ([]core.BudgetCategory, error)
		AddCategory(ctx context.Context, userID string, c core.BudgetCategory) (core.BudgetCategory, error)
	}

	AlertStore interface {
		// ListAlerts returns at most limit alerts, newest first.
		ListAlerts(ctx context.Context, userID string, limit int) ([]core.Alert, error)
		AppendAlert(ctx context.Context, userID string, a core.Alert) (id string, err error)
		MarkAlertRead(ctx context.Context, userID, id string) error
	}

	SettingsStore interface {
		GetSettings(ctx context.Context, userID string) (core.Settings, error)
		SaveSettings(ctx context.Context, userID string, s core.Settings) error
	}

	InsightStore interface {
		SaveInsight(ctx context.Context, userID string, in core.Insight) (id string, err error)
		LatestInsight(ctx context.Context, userID string) (core.Insight, error)
	}

	// Repository is implemented by every data backend.
	Repository interface {
		TransactionStore
		CategoryStore
		AlertStore
		SettingsStore
		InsightStore
		Ping(ctx context.Context) error
		Close() error
	}
)

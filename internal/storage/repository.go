// Package storage is the SQLite data backend.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"xpenso/internal/core"
	"xpenso/internal/log"
	"xpenso/internal/store"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Timestamps are stored as fixed-width UTC text so they sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type SQLiteRepository struct {
	db     *sql.DB
	now    func() time.Time
	logger *log.Logger
}

var _ store.Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if logger == nil {
		logger = log.Discard()
	}
	return &SQLiteRepository{
		db:     db,
		now:    time.Now,
		logger: logger.WithComponent(log.ComponentStorage),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) AddTransaction(ctx context.Context, userID string, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	tx.ID = uuid.NewString()
	tx.CreatedAt = r.now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, amount, description, category, type, wallet, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, userID, tx.Amount.String(), tx.Description, tx.Category, string(tx.Type), tx.Wallet,
		nullTime(tx.Date), formatTime(tx.CreatedAt))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	r.logger.DebugContext(ctx, "Transaction saved to SQLite",
		log.FieldUserID, userID, log.FieldTransactionID, tx.ID)
	return tx, nil
}

// ListTransactions orders by effective date, newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string, limit int) ([]core.Transaction, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount, description, category, type, wallet, date, created_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY COALESCE(date, created_at) DESC, created_at DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, amount, description, category, type, wallet, date, created_at
		FROM transactions WHERE user_id = ? AND id = ?`, userID, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, store.ErrNotFound
	}
	return tx, err
}

type scanner interface {
	Scan(dest ...any) error
}

// scanTransaction reads amounts and dates leniently: a malformed stored
// value becomes zero rather than failing the read.
func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		tx             core.Transaction
		amount, txType string
		date           sql.NullString
		createdAt      string
	)
	if err := s.Scan(&tx.ID, &amount, &tx.Description, &tx.Category, &txType, &tx.Wallet, &date, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	tx.Amount = core.CoerceAmount(amount)
	tx.Type = core.TxType(txType)
	if date.Valid {
		tx.Date = core.ParseTimestamp(date.String)
	}
	tx.CreatedAt = core.ParseTimestamp(createdAt)
	return tx, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string) ([]core.BudgetCategory, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, budget, icon, color
		FROM budget_categories
		WHERE user_id = ?
		ORDER BY created_at, rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.BudgetCategory
	for rows.Next() {
		var (
			c      core.BudgetCategory
			budget string
		)
		if err := rows.Scan(&c.ID, &c.Name, &budget, &c.Icon, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Budget = core.CoerceAmount(budget)
		c.Spent = decimal.Zero
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) AddCategory(ctx context.Context, userID string, c core.BudgetCategory) (core.BudgetCategory, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.BudgetCategory{}, err
	}
	c.ID = uuid.NewString()
	c.Spent = decimal.Zero
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budget_categories (id, user_id, name, budget, icon, color, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, userID, c.Name, c.Budget.String(), c.Icon, c.Color, formatTime(r.now()))
	if isUniqueViolation(err) {
		return core.BudgetCategory{}, fmt.Errorf("category %q: %w", c.Name, core.ErrDuplicateCategory)
	}
	if err != nil {
		return core.BudgetCategory{}, fmt.Errorf("insert category %q: %w", c.Name, err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListAlerts(ctx context.Context, userID string, limit int) ([]core.Alert, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, message, type, priority, read, created_at
		FROM alerts
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var out []core.Alert
	for rows.Next() {
		var (
			a               core.Alert
			aType, priority string
			createdAt       string
		)
		if err := rows.Scan(&a.ID, &a.Title, &a.Message, &aType, &priority, &a.Read, &createdAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.Type = core.AlertType(aType)
		a.Priority = core.Priority(priority)
		a.CreatedAt = core.ParseTimestamp(createdAt)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) AppendAlert(ctx context.Context, userID string, a core.Alert) (string, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.now()
	}
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO alerts (id, user_id, title, message, type, priority, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, userID, a.Title, a.Message, string(a.Type), string(a.Priority), a.Read, formatTime(a.CreatedAt))
	if err != nil {
		return "", fmt.Errorf("insert alert: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) MarkAlertRead(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE alerts SET read = 1 WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("mark alert read: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) GetSettings(ctx context.Context, userID string) (core.Settings, error) {
	var (
		st     core.Settings
		budget string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT display_name, monthly_budget FROM user_settings WHERE user_id = ?`, userID).
		Scan(&st.DisplayName, &budget)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Settings{}, store.ErrNotFound
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	st.MonthlyBudget = core.CoerceAmount(budget)
	return st, nil
}

func (r *SQLiteRepository) SaveSettings(ctx context.Context, userID string, st core.Settings) error {
	if err := st.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, display_name, monthly_budget, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = excluded.display_name,
			monthly_budget = excluded.monthly_budget,
			updated_at = excluded.updated_at`,
		userID, st.DisplayName, st.MonthlyBudget.String(), formatTime(r.now()))
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SaveInsight(ctx context.Context, userID string, in core.Insight) (string, error) {
	if in.CreatedAt.IsZero() {
		in.CreatedAt = r.now()
	}
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO insights (id, user_id, message, category, type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, userID, in.Message, in.Category, in.Type, formatTime(in.CreatedAt))
	if err != nil {
		return "", fmt.Errorf("insert insight: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) LatestInsight(ctx context.Context, userID string) (core.Insight, error) {
	var (
		in        core.Insight
		createdAt string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, message, category, type, created_at
		FROM insights WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC LIMIT 1`, userID).
		Scan(&in.ID, &in.Message, &in.Category, &in.Type, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Insight{}, store.ErrNotFound
	}
	if err != nil {
		return core.Insight{}, fmt.Errorf("latest insight: %w", err)
	}
	in.CreatedAt = core.ParseTimestamp(createdAt)
	return in, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

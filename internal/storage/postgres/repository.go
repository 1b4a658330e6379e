// Package postgres is the PostgreSQL data backend built on a pgx pool.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"xpenso/internal/core"
	"xpenso/internal/log"
	"xpenso/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Repository struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

var _ store.Repository = (*Repository)(nil)

// Open connects to url, runs the embedded migrations and returns the repository.
func Open(ctx context.Context, url string, logger *log.Logger) (*Repository, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := RunMigrations(pool); err != nil {
		pool.Close()
		return nil, err
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Repository{pool: pool, logger: logger.WithComponent(log.ComponentStorage)}, nil
}

// RunMigrations applies the embedded schema through a database/sql view of pool.
func RunMigrations(pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("create pgx migrate driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) AddTransaction(ctx context.Context, userID string, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	tx.ID = uuid.NewString()
	var date *time.Time
	if !tx.Date.IsZero() {
		date = &tx.Date
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO transactions (id, user_id, amount, description, category, type, wallet, date)
		VALUES ($1::uuid, $2, $3::numeric, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		tx.ID, userID, tx.Amount.String(), tx.Description, tx.Category, string(tx.Type), tx.Wallet, date,
	).Scan(&tx.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	r.logger.DebugContext(ctx, "Transaction saved to Postgres",
		log.FieldUserID, userID, log.FieldTransactionID, tx.ID)
	return tx, nil
}

const selectTransaction = `
	SELECT id::text, amount::text, description, category, type, wallet, date, created_at
	FROM transactions`

func (r *Repository) ListTransactions(ctx context.Context, userID string, limit int) ([]core.Transaction, error) {
	var limitArg any
	if limit > 0 {
		limitArg = limit
	}
	rows, err := r.pool.Query(ctx, selectTransaction+`
		WHERE user_id = $1
		ORDER BY COALESCE(date, created_at) DESC, created_at DESC
		LIMIT $2`, userID, limitArg)
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

func (r *Repository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	if _, err := uuid.Parse(id); err != nil {
		return core.Transaction{}, store.ErrNotFound
	}
	tx, err := scanTransaction(r.pool.QueryRow(ctx, selectTransaction+`
		WHERE user_id = $1 AND id = $2::uuid`, userID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, store.ErrNotFound
	}
	return tx, err
}

func scanTransaction(row pgx.Row) (core.Transaction, error) {
	var (
		tx             core.Transaction
		amount, txType string
		date           *time.Time
	)
	if err := row.Scan(&tx.ID, &amount, &tx.Description, &tx.Category, &txType, &tx.Wallet, &date, &tx.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	tx.Amount = core.CoerceAmount(amount)
	tx.Type = core.TxType(txType)
	if date != nil {
		tx.Date = *date
	}
	return tx, nil
}

func (r *Repository) ListCategories(ctx context.Context, userID string) ([]core.BudgetCategory, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, budget::text, icon, color
		FROM budget_categories
		WHERE user_id = $1
		ORDER BY created_at, id`, userID)
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

func (r *Repository) AddCategory(ctx context.Context, userID string, c core.BudgetCategory) (core.BudgetCategory, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.BudgetCategory{}, err
	}
	c.ID = uuid.NewString()
	c.Spent = decimal.Zero
	_, err := r.pool.Exec(ctx, `
		INSERT INTO budget_categories (id, user_id, name, budget, icon, color)
		VALUES ($1::uuid, $2, $3, $4::numeric, $5, $6)`,
		c.ID, userID, c.Name, c.Budget.String(), c.Icon, c.Color)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return core.BudgetCategory{}, fmt.Errorf("category %q: %w", c.Name, core.ErrDuplicateCategory)
	}
	if err != nil {
		return core.BudgetCategory{}, fmt.Errorf("insert category %q: %w", c.Name, err)
	}
	return c, nil
}

func (r *Repository) ListAlerts(ctx context.Context, userID string, limit int) ([]core.Alert, error) {
	var limitArg any
	if limit > 0 {
		limitArg = limit
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, title, message, type, priority, read, created_at
		FROM alerts
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limitArg)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var out []core.Alert
	for rows.Next() {
		var (
			a               core.Alert
			aType, priority string
		)
		if err := rows.Scan(&a.ID, &a.Title, &a.Message, &aType, &priority, &a.Read, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.Type = core.AlertType(aType)
		a.Priority = core.Priority(priority)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repository) AppendAlert(ctx context.Context, userID string, a core.Alert) (string, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO alerts (id, user_id, title, message, type, priority, read, created_at)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8)`,
		id, userID, a.Title, a.Message, string(a.Type), string(a.Priority), a.Read, a.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("insert alert: %w", err)
	}
	return id, nil
}

func (r *Repository) MarkAlertRead(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return store.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `UPDATE alerts SET read = TRUE WHERE user_id = $1 AND id = $2::uuid`, userID, id)
	if err != nil {
		return fmt.Errorf("mark alert read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *Repository) GetSettings(ctx context.Context, userID string) (core.Settings, error) {
	var (
		st     core.Settings
		budget string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT display_name, monthly_budget::text FROM user_settings WHERE user_id = $1`, userID).
		Scan(&st.DisplayName, &budget)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Settings{}, store.ErrNotFound
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	st.MonthlyBudget = core.CoerceAmount(budget)
	return st, nil
}

func (r *Repository) SaveSettings(ctx context.Context, userID string, st core.Settings) error {
	if err := st.Validate(); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_settings (user_id, display_name, monthly_budget, updated_at)
		VALUES ($1, $2, $3::numeric, now())
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			monthly_budget = EXCLUDED.monthly_budget,
			updated_at = now()`,
		userID, st.DisplayName, st.MonthlyBudget.String())
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (r *Repository) SaveInsight(ctx context.Context, userID string, in core.Insight) (string, error) {
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now()
	}
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO insights (id, user_id, message, category, type, created_at)
		VALUES ($1::uuid, $2, $3, $4, $5, $6)`,
		id, userID, in.Message, in.Category, in.Type, in.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("insert insight: %w", err)
	}
	return id, nil
}

func (r *Repository) LatestInsight(ctx context.Context, userID string) (core.Insight, error) {
	var in core.Insight
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, message, category, type, created_at
		FROM insights WHERE user_id = $1
		ORDER BY created_at DESC LIMIT 1`, userID).
		Scan(&in.ID, &in.Message, &in.Category, &in.Type, &in.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Insight{}, store.ErrNotFound
	}
	if err != nil {
		return core.Insight{}, fmt.Errorf("latest insight: %w", err)
	}
	return in, nil
}

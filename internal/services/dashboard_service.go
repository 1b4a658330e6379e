package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"xpenso/internal/budget"
	"xpenso/internal/cache"
	"xpenso/internal/core"
	"xpenso/internal/income"
	"xpenso/internal/log"
	"xpenso/internal/period"
	"xpenso/internal/stats"
	"xpenso/internal/store"
)

// TopCategoryCount is how many categories the insight panel shows.
const TopCategoryCount = 3

// BudgetSource resolves the effective monthly budget of a user.
type BudgetSource interface {
	MonthlyBudget(ctx context.Context, userID string) decimal.Decimal
}

// Snapshot is everything the dashboard page renders.
type Snapshot struct {
	Report        stats.Report          `json:"report"`
	LimitUsage    budget.Usage          `json:"limitUsage"`
	Recent        []core.Transaction    `json:"recent"`
	TopCategories []core.CategoryAmount `json:"topCategories"`
	LatestInsight *core.Insight         `json:"latestInsight,omitempty"`
	UnreadAlerts  int                   `json:"unreadAlerts"`
}

// IncomeView is the income streams page.
type IncomeView struct {
	Streams []core.IncomeStream `json:"streams"`
	Summary income.Summary      `json:"summary"`
}

// BudgetView is the budget categories page.
type BudgetView struct {
	Categories []core.BudgetCategory `json:"categories"`
	Summary    budget.Summary        `json:"summary"`
}

// DashboardService builds read models from the stores. Every page starts
// from the same transaction fetch and derives its figures in memory.
type DashboardService struct {
	repo       store.Repository
	budgets    BudgetSource
	cache      cache.Cache[Snapshot]
	fetchLimit int
	now        func() time.Time
	logger     *log.Logger
}

type DashboardOption func(*DashboardService)

func WithSnapshotCache(c cache.Cache[Snapshot]) DashboardOption {
	return func(s *DashboardService) { s.cache = c }
}

func WithDashboardFetchLimit(n int) DashboardOption {
	return func(s *DashboardService) {
		if n > 0 {
			s.fetchLimit = n
		}
	}
}

func WithDashboardClock(now func() time.Time) DashboardOption {
	return func(s *DashboardService) { s.now = now }
}

func WithDashboardLogger(l *log.Logger) DashboardOption {
	return func(s *DashboardService) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentDashboard)
		}
	}
}

func NewDashboardService(repo store.Repository, budgets BudgetSource, opts ...DashboardOption) *DashboardService {
	s := &DashboardService{
		repo:       repo,
		budgets:    budgets,
		fetchLimit: DefaultFetchLimit,
		now:        time.Now,
		logger:     log.Discard(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *DashboardService) transactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	txs, err := s.repo.ListTransactions(ctx, userID, s.fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// Snapshot loads the dashboard for window w. Only the transaction read is
// fatal; the insight and alert panels degrade to empty.
func (s *DashboardService) Snapshot(ctx context.Context, userID string, w period.Window) (Snapshot, error) {
	key := snapshotKey(userID, w)
	var (
		snap   Snapshot
		cached bool
	)
	if s.cache != nil {
		snap, cached = s.cache.Get(key)
	}

	var (
		txs     []core.Transaction
		limit   decimal.Decimal
		insight *core.Insight
		unread  int
	)
	g, gctx := errgroup.WithContext(ctx)
	if !cached {
		g.Go(func() error {
			var err error
			txs, err = s.transactions(gctx, userID)
			return err
		})
		g.Go(func() error {
			limit = s.budgets.MonthlyBudget(gctx, userID)
			return nil
		})
	}
	// Insights and alerts are also written by other processes, so they are
	// read on every call and never cached.
	g.Go(func() error {
		in, err := s.repo.LatestInsight(gctx, userID)
		switch {
		case err == nil:
			insight = &in
		case !errors.Is(err, store.ErrNotFound):
			s.logger.WarnContext(gctx, "Latest insight unavailable", log.FieldUserID, userID, log.FieldError, err)
		}
		return nil
	})
	g.Go(func() error {
		list, err := s.repo.ListAlerts(gctx, userID, AlertFetchLimit)
		if err != nil {
			s.logger.WarnContext(gctx, "Alerts unavailable", log.FieldUserID, userID, log.FieldError, err)
			return nil
		}
		for _, a := range list {
			if !a.Read {
				unread++
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	if !cached {
		snap = s.buildSnapshot(txs, limit, w)
		if s.cache != nil {
			s.cache.Set(key, snap)
		}
	}
	snap.LatestInsight = insight
	snap.UnreadAlerts = unread
	return snap, nil
}

// buildSnapshot computes the transaction-derived part of a snapshot, the
// part that is cached.
func (s *DashboardService) buildSnapshot(txs []core.Transaction, limit decimal.Decimal, w period.Window) Snapshot {
	now := s.now()
	report := stats.BuildReport(txs, w, now)
	month := report.Stats
	if w.Mode != period.ThisMonth {
		month = stats.ComputeWindow(txs, period.Month(), now)
	}

	recent := txs
	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}

	return Snapshot{
		Report:        report,
		LimitUsage:    budget.MonthlyLimitUsage(month.TotalExpenses, limit, now),
		Recent:        recent,
		TopCategories: report.Stats.TopCategories(TopCategoryCount),
	}
}

func snapshotKey(userID string, w period.Window) string {
	date := ""
	if w.Mode == period.Day {
		date = w.Date.Format("2006-01-02")
	}
	return cache.UserKey(userID, "dashboard", string(w.Mode), date)
}

func (s *DashboardService) Report(ctx context.Context, userID string, w period.Window) (stats.Report, error) {
	txs, err := s.transactions(ctx, userID)
	if err != nil {
		return stats.Report{}, err
	}
	return stats.BuildReport(txs, w, s.now()), nil
}

func (s *DashboardService) YearlyTrend(ctx context.Context, userID string) ([]stats.MonthTotals, error) {
	txs, err := s.transactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return stats.YearlyTrend(txs, s.now()), nil
}

// Day summarises one calendar day, hourly buckets included.
func (s *DashboardService) Day(ctx context.Context, userID string, day time.Time) (stats.DayInsight, error) {
	txs, err := s.transactions(ctx, userID)
	if err != nil {
		return stats.DayInsight{}, err
	}
	return stats.Day(txs, day, s.now()), nil
}

// IncomeStreams groups this month's income.
func (s *DashboardService) IncomeStreams(ctx context.Context, userID string, f income.Filter, ascending bool) (IncomeView, error) {
	txs, err := s.transactions(ctx, userID)
	if err != nil {
		return IncomeView{}, err
	}
	streams := income.Group(period.Filter(txs, period.Month(), s.now()))
	summary := income.Summarize(streams)
	streams = income.Apply(streams, f)
	income.Sort(streams, ascending)
	return IncomeView{Streams: streams, Summary: summary}, nil
}

// BudgetCategories merges saved definitions with this month's spending.
func (s *DashboardService) BudgetCategories(ctx context.Context, userID string, f budget.Filter, ascending bool) (BudgetView, error) {
	var (
		txs  []core.Transaction
		defs []core.BudgetCategory
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.transactions(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		if defs, err = s.repo.ListCategories(gctx, userID); err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return BudgetView{}, err
	}

	month := stats.ComputeWindow(txs, period.Month(), s.now())
	cats := budget.Merge(defs, month.CategorySpending)
	summary := budget.Summarize(cats)
	cats = budget.Apply(cats, f)
	budget.Sort(cats, ascending)
	return BudgetView{Categories: cats, Summary: summary}, nil
}

func (s *DashboardService) AddCategory(ctx context.Context, userID string, c core.BudgetCategory) (core.BudgetCategory, error) {
	saved, err := s.repo.AddCategory(ctx, userID, c)
	if err != nil {
		return core.BudgetCategory{}, err
	}
	if s.cache != nil {
		s.cache.DeletePrefix(cache.UserPrefix(userID))
	}
	return saved, nil
}

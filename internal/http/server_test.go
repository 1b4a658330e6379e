package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"xpenso/internal/alerts"
	"xpenso/internal/cache"
	"xpenso/internal/core"
	"xpenso/internal/insights"
	"xpenso/internal/services"
	"xpenso/internal/store/memory"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

type generatorFunc func(ctx context.Context, prompt string) (string, error)

func (f generatorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *memory.Store) {
	t.Helper()
	repo := memory.New([]core.BudgetCategory{{Name: "Food", Budget: decimal.NewFromInt(400)}})
	snapshots := cache.NewLRUCache[services.Snapshot](10, time.Minute)
	engine := alerts.NewService(repo, repo, repo, alerts.WithClock(clock))
	gen := generatorFunc(func(context.Context, string) (string, error) { return "Spend less on Food.", nil })

	svc := Services{
		Transactions: services.NewTransactionService(repo,
			services.WithInvalidator(snapshots),
			services.WithInlineAlerts(engine),
			services.WithTransactionClock(clock)),
		Dashboard: services.NewDashboardService(repo, engine,
			services.WithSnapshotCache(snapshots),
			services.WithDashboardClock(clock)),
		Alerts:   services.NewAlertService(repo, engine, snapshots),
		Settings: services.NewSettingsService(repo, engine, snapshots),
		Insights: insights.NewService(gen, repo, repo, insights.WithClock(clock)),
		Ready:    repo.Ping,
	}
	srv := NewServer(":0", svc, append([]Option{WithClock(clock)}, opts...)...)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, repo
}

func do(t *testing.T, srv *Server, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
}

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
		if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Fatalf("%s missing security headers", path)
		}
		if rr.Header().Get("X-Request-ID") == "" {
			t.Fatalf("%s missing request id", path)
		}
	}
}

func TestReadyReportsFailure(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.svc.Ready = func(context.Context) error { return errors.New("db down") }
	if rr := do(t, srv, http.MethodGet, "/readyz", "", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestMissingUser(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := do(t, srv, http.MethodGet, "/api/transactions", "", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestRecordTransactionValidationAndSuccess(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/api/transactions/x", "u1", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown route, got %d", rr.Code)
	}

	rr = do(t, srv, http.MethodPost, "/api/transactions", "u1", `{"amount":"abc","description":"x","category":"Food"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for bad amount, got %d", rr.Code)
	}

	rr = do(t, srv, http.MethodPost, "/api/transactions", "u1", `{"amount":"1.23","description":"","category":"Food"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for missing description, got %d", rr.Code)
	}

	rr = do(t, srv, http.MethodPost, "/api/transactions", "u1", `{"amount":"1.23","description":"x","category":"Food","type":"transfer"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for bad type, got %d", rr.Code)
	}

	rr = do(t, srv, http.MethodPost, "/api/transactions", "u1", `{"amount":"1600","description":"Rent","category":"Rent"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var tx core.Transaction
	decode(t, rr, &tx)
	if tx.ID == "" || tx.Wallet != core.DefaultWallet || tx.Type != core.Expense {
		t.Fatalf("unexpected transaction: %+v", tx)
	}

	rr = do(t, srv, http.MethodGet, "/api/transactions?limit=5", "u1", "")
	var txs []core.Transaction
	decode(t, rr, &txs)
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}

	// No publisher is configured, so alerts were evaluated inline.
	rr = do(t, srv, http.MethodGet, "/api/alerts", "u1", "")
	var list []core.Alert
	decode(t, rr, &list)
	found := false
	for _, a := range list {
		found = found || a.Title == alerts.TitleBudgetExceeded
	}
	if !found {
		t.Fatalf("expected budget alert, got %+v", list)
	}
}

func TestDashboardAndReports(t *testing.T) {
	srv, repo := newTestServer(t)
	ctx := context.Background()
	for _, tx := range []core.Transaction{
		{Amount: decimal.NewFromInt(3000), Description: "Salary", Category: "Salary", Type: core.Income, Date: testNow.AddDate(0, 0, -10)},
		{Amount: decimal.NewFromInt(350), Description: "Groceries", Category: "Food", Type: core.Expense, Date: testNow},
	} {
		if _, err := repo.AddTransaction(ctx, "u1", tx); err != nil {
			t.Fatal(err)
		}
	}

	rr := do(t, srv, http.MethodGet, "/api/dashboard", "u1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d: %s", rr.Code, rr.Body.String())
	}
	var snap services.Snapshot
	decode(t, rr, &snap)
	if !snap.Report.Stats.TotalExpenses.Equal(decimal.NewFromInt(350)) {
		t.Fatalf("unexpected expenses: %s", snap.Report.Stats.TotalExpenses)
	}
	if !snap.LimitUsage.Limit.Equal(alerts.DefaultMonthlyBudget) {
		t.Fatalf("expected default budget, got %s", snap.LimitUsage.Limit)
	}

	rr = do(t, srv, http.MethodGet, "/api/stats?mode=day&date=2026-03-15", "u1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("stats status=%d", rr.Code)
	}
	if rr = do(t, srv, http.MethodGet, "/api/stats?mode=fortnight", "u1", ""); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown mode, got %d", rr.Code)
	}

	rr = do(t, srv, http.MethodGet, "/api/budget-categories?filter=near", "u1", "")
	var view services.BudgetView
	decode(t, rr, &view)
	if len(view.Categories) != 1 || view.Categories[0].Name != "Food" {
		t.Fatalf("unexpected near categories: %+v", view.Categories)
	}
	if rr = do(t, srv, http.MethodGet, "/api/budget-categories?filter=maybe", "u1", ""); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown filter, got %d", rr.Code)
	}

	rr = do(t, srv, http.MethodGet, "/api/income-streams?sort=asc", "u1", "")
	var streams services.IncomeView
	decode(t, rr, &streams)
	if len(streams.Streams) != 1 || streams.Streams[0].Name != "Salary" {
		t.Fatalf("unexpected streams: %+v", streams.Streams)
	}

	for _, path := range []string{"/api/trends/yearly", "/api/trends/hourly?date=2026-03-15"} {
		if rr := do(t, srv, http.MethodGet, path, "u1", ""); rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestCategoriesSettingsAlertsInsights(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/budget-categories", "u1", `{"name":"Books","budget":"150"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("add category status=%d: %s", rr.Code, rr.Body.String())
	}
	rr = do(t, srv, http.MethodPost, "/api/budget-categories", "u1", `{"name":"Books"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate name, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr = do(t, srv, http.MethodPost, "/api/budget-categories", "u1", `{"name":" "}`); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for blank name, got %d", rr.Code)
	}

	rr = do(t, srv, http.MethodPut, "/api/settings", "u1", `{"monthlyBudget":"800"}`)
	var settings services.SettingsView
	decode(t, rr, &settings)
	if !settings.EffectiveBudget.Equal(decimal.NewFromInt(800)) || settings.Recommendation.Level != insights.LevelTight {
		t.Fatalf("unexpected settings: %+v", settings)
	}
	if rr = do(t, srv, http.MethodGet, "/api/settings", "u1", ""); rr.Code != http.StatusOK {
		t.Fatalf("get settings status=%d", rr.Code)
	}

	rr = do(t, srv, http.MethodPost, "/api/alerts/evaluate", "u1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("evaluate status=%d", rr.Code)
	}
	if rr = do(t, srv, http.MethodPost, "/api/alerts/nope/read", "u1", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown alert, got %d", rr.Code)
	}

	if rr = do(t, srv, http.MethodGet, "/api/insights/latest", "u1", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before any insight, got %d", rr.Code)
	}
	rr = do(t, srv, http.MethodPost, "/api/insights", "u1", "")
	var res insights.Result
	decode(t, rr, &res)
	if !res.Success || res.Insight != "Spend less on Food." {
		t.Fatalf("unexpected insight result: %+v", res)
	}
	if rr = do(t, srv, http.MethodGet, "/api/insights/latest", "u1", ""); rr.Code != http.StatusOK {
		t.Fatalf("latest insight status=%d", rr.Code)
	}
}

func TestMarkAlertRead(t *testing.T) {
	srv, repo := newTestServer(t)
	id, err := repo.AppendAlert(context.Background(), "u1", core.Alert{Title: "A", Type: core.AlertInfo, Priority: core.PriorityLow})
	if err != nil {
		t.Fatal(err)
	}
	if rr := do(t, srv, http.MethodPost, "/api/alerts/"+id+"/read", "u1", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	rr := do(t, srv, http.MethodGet, "/api/alerts?unread=true", "u1", "")
	var list []core.Alert
	decode(t, rr, &list)
	if len(list) != 0 {
		t.Fatalf("expected no unread alerts, got %d", len(list))
	}
}

func TestWritesAreRateLimited(t *testing.T) {
	srv, _ := newTestServer(t, WithRateLimit(2))
	body := `{"amount":"1","description":"x","category":"Food"}`
	for i := 0; i < 2; i++ {
		if rr := do(t, srv, http.MethodPost, "/api/transactions", "u1", body); rr.Code != http.StatusCreated {
			t.Fatalf("request %d status=%d", i, rr.Code)
		}
	}
	rr := do(t, srv, http.MethodPost, "/api/transactions", "u1", body)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After")
	}
	if rr := do(t, srv, http.MethodGet, "/api/transactions", "u1", ""); rr.Code != http.StatusOK {
		t.Fatalf("reads are not limited, got %d", rr.Code)
	}
}

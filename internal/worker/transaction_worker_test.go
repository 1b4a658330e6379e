package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xpenso/internal/alerts"
	"xpenso/internal/amqp"
	"xpenso/internal/core"
	sheetsmem "xpenso/internal/sheets/memory"
	"xpenso/internal/store/memory"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

type failingExporter struct {
	*sheetsmem.Store
}

func (failingExporter) ExportTransaction(context.Context, string, core.Transaction) (string, error) {
	return "", errors.New("quota exceeded")
}

func record(t *testing.T, repo *memory.Store, user string, amount int64, date time.Time) core.Transaction {
	t.Helper()
	tx, err := repo.AddTransaction(context.Background(), user, core.Transaction{
		Amount: decimal.NewFromInt(amount), Description: "Rent", Category: "Rent", Type: core.Expense, Date: date,
	})
	require.NoError(t, err)
	return tx
}

func TestHandleTransactionRecorded(t *testing.T) {
	ctx := context.Background()
	repo := memory.New(nil)
	sheet := sheetsmem.New()
	w := NewTransactionWorker(repo, alerts.NewService(repo, repo, repo, alerts.WithClock(clock)),
		WithExporter(sheet), WithClock(clock))

	tx := record(t, repo, "u1", 1600, testNow)
	msg := amqp.NewTransactionRecordedMessage("u1", tx.ID)

	require.NoError(t, w.HandleTransactionRecorded(ctx, msg))
	issued, err := repo.ListAlerts(ctx, "u1", 50)
	require.NoError(t, err)
	assert.NotEmpty(t, issued)
	assert.Equal(t, 1, sheet.Len())

	require.NoError(t, w.HandleTransactionRecorded(ctx, msg), "redelivery is harmless")
	again, _ := repo.ListAlerts(ctx, "u1", 50)
	assert.Len(t, again, len(issued))
	assert.Equal(t, 1, sheet.Len())
}

func TestHandleTransactionRecordedWithoutExporter(t *testing.T) {
	repo := memory.New(nil)
	evaluated := 0
	w := NewTransactionWorker(repo, evaluatorFunc(func(context.Context, string) []alerts.AppendResult {
		evaluated++
		return nil
	}))

	err := w.HandleTransactionRecorded(context.Background(), amqp.NewTransactionRecordedMessage("u1", "missing"))
	require.NoError(t, err)
	assert.Equal(t, 1, evaluated)
}

func TestHandleTransactionRecordedMissingTransaction(t *testing.T) {
	repo := memory.New(nil)
	sheet := sheetsmem.New()
	w := NewTransactionWorker(repo, alerts.NewService(repo, repo, repo), WithExporter(sheet))

	err := w.HandleTransactionRecorded(context.Background(), amqp.NewTransactionRecordedMessage("u1", "gone"))
	require.NoError(t, err, "a deleted transaction is not worth a retry")
	assert.Zero(t, sheet.Len())
}

func TestHandleTransactionRecordedExportFailure(t *testing.T) {
	repo := memory.New(nil)
	tx := record(t, repo, "u1", 10, testNow)
	w := NewTransactionWorker(repo, alerts.NewService(repo, repo, repo),
		WithExporter(failingExporter{sheetsmem.New()}))

	err := w.HandleTransactionRecorded(context.Background(), amqp.NewTransactionRecordedMessage("u1", tx.ID))
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestReconcileExportsMissingRows(t *testing.T) {
	ctx := context.Background()
	repo := memory.New(nil)
	sheet := sheetsmem.New()
	w := NewTransactionWorker(repo, alerts.NewService(repo, repo, repo), WithExporter(sheet), WithClock(clock))

	first := record(t, repo, "u1", 10, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))
	record(t, repo, "u1", 20, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	record(t, repo, "u1", 30, time.Date(2025, 12, 31, 9, 0, 0, 0, time.UTC))
	_, err := sheet.ExportTransaction(ctx, "u1", first)
	require.NoError(t, err)

	res, err := w.Reconcile(ctx, "u1", 500)
	require.NoError(t, err)
	assert.Equal(t, ReconcileResult{Checked: 2, Exported: 1}, res)
	assert.Equal(t, 2, sheet.Len())

	res, err = w.Reconcile(ctx, "u1", 500)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Exported)
}

func TestReconcileNeedsExporter(t *testing.T) {
	repo := memory.New(nil)
	w := NewTransactionWorker(repo, alerts.NewService(repo, repo, repo))
	_, err := w.Reconcile(context.Background(), "u1", 10)
	assert.Error(t, err)
}

type evaluatorFunc func(ctx context.Context, userID string) []alerts.AppendResult

func (f evaluatorFunc) Evaluate(ctx context.Context, userID string) []alerts.AppendResult {
	return f(ctx, userID)
}

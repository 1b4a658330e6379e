// Package worker handles transaction messages off the request path.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"xpenso/internal/alerts"
	"xpenso/internal/amqp"
	"xpenso/internal/log"
	"xpenso/internal/period"
	"xpenso/internal/sheets"
	"xpenso/internal/store"
)

// AlertEvaluator re-runs the alert rules for a user.
type AlertEvaluator interface {
	Evaluate(ctx context.Context, userID string) []alerts.AppendResult
}

// Exporter is the spreadsheet side of the worker. The reader half is only
// needed for Reconcile.
type Exporter interface {
	sheets.TransactionExporter
	sheets.TransactionReader
}

// TransactionWorker reacts to recorded transactions: it re-evaluates the
// user's alerts and mirrors the transaction into the spreadsheet.
type TransactionWorker struct {
	txs      store.TransactionStore
	alerts   AlertEvaluator
	exporter Exporter
	now      func() time.Time
	logger   *log.Logger
}

type Option func(*TransactionWorker)

// WithExporter enables the spreadsheet mirror. Pass only a non-nil exporter.
func WithExporter(e Exporter) Option {
	return func(w *TransactionWorker) { w.exporter = e }
}

func WithLogger(l *log.Logger) Option {
	return func(w *TransactionWorker) {
		if l != nil {
			w.logger = l.WithComponent(log.ComponentWorker)
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *TransactionWorker) { w.now = now }
}

func NewTransactionWorker(txs store.TransactionStore, evaluator AlertEvaluator, opts ...Option) *TransactionWorker {
	w := &TransactionWorker{
		txs:    txs,
		alerts: evaluator,
		now:    time.Now,
		logger: log.Discard(),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// HandleTransactionRecorded is the amqp.Handler of the worker. Alert append
// failures are logged only; re-delivery would not fix them. An export
// failure is returned so the message gets one more attempt. Both steps are
// safe to repeat: alert titles are de-duplicated and exports are keyed by ID.
func (w *TransactionWorker) HandleTransactionRecorded(ctx context.Context, msg *amqp.TransactionRecordedMessage) error {
	w.logger.InfoContext(ctx, "Processing transaction message",
		log.FieldUserID, msg.UserID, log.FieldTransactionID, msg.TransactionID)

	results := w.alerts.Evaluate(ctx, msg.UserID)
	if failed := alerts.Failed(results); len(failed) > 0 {
		w.logger.WarnContext(ctx, "Some alerts could not be saved",
			log.FieldUserID, msg.UserID, log.FieldCount, len(failed))
	}

	if w.exporter == nil {
		return nil
	}

	tx, err := w.txs.GetTransaction(ctx, msg.UserID, msg.TransactionID)
	if errors.Is(err, store.ErrNotFound) {
		w.logger.WarnContext(ctx, "Transaction no longer exists, skipping export",
			log.FieldUserID, msg.UserID, log.FieldTransactionID, msg.TransactionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}

	ref, err := w.exporter.ExportTransaction(ctx, msg.UserID, tx)
	if err != nil {
		return fmt.Errorf("export transaction: %w", err)
	}
	w.logger.InfoContext(ctx, "Exported transaction",
		log.FieldUserID, msg.UserID, log.FieldTransactionID, tx.ID, log.FieldSheetsRef, ref)
	return nil
}

// ReconcileResult counts what a reconcile pass did.
type ReconcileResult struct {
	Checked  int
	Exported int
	Failed   int
}

// Reconcile exports the user's transactions of the current year that the
// spreadsheet is missing. It recovers from messages lost while the worker
// or the broker was down.
func (w *TransactionWorker) Reconcile(ctx context.Context, userID string, fetchLimit int) (ReconcileResult, error) {
	var res ReconcileResult
	if w.exporter == nil {
		return res, errors.New("no exporter configured")
	}

	now := w.now()
	exported, err := w.exporter.ListExported(ctx, userID, now.Year())
	if err != nil {
		return res, fmt.Errorf("list exported: %w", err)
	}
	seen := make(map[string]struct{}, len(exported))
	for _, tx := range exported {
		seen[tx.ID] = struct{}{}
	}

	txs, err := w.txs.ListTransactions(ctx, userID, fetchLimit)
	if err != nil {
		return res, fmt.Errorf("list transactions: %w", err)
	}
	for _, tx := range period.Filter(txs, period.Window{Mode: period.ThisYear}, now) {
		res.Checked++
		if _, ok := seen[tx.ID]; ok {
			continue
		}
		if _, err := w.exporter.ExportTransaction(ctx, userID, tx); err != nil {
			w.logger.ErrorContext(ctx, "Failed to export during reconcile",
				log.FieldUserID, userID, log.FieldTransactionID, tx.ID, log.FieldError, err)
			res.Failed++
			continue
		}
		res.Exported++
	}

	w.logger.InfoContext(ctx, "Reconcile completed",
		log.FieldUserID, userID, "checked", res.Checked, "exported", res.Exported, "failed", res.Failed)
	return res, nil
}

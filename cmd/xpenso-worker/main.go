package main

import (
	"context"
	"errors"
	"os"
	"time"

	"xpenso/internal/alerts"
	"xpenso/internal/amqp"
	"xpenso/internal/backend"
	"xpenso/internal/cli"
	"xpenso/internal/config"
	"xpenso/internal/log"
	gsheet "xpenso/internal/sheets/google"
	"xpenso/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel)
	logger.Info("Starting xpenso-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required by the worker")
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	// The worker consumes; it never publishes.
	backendCfg.AMQPURL = ""
	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer result.Cleanup()
	repo := result.Repository

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
		amqp.WithLogger(logger),
		amqp.WithPrefetch(cfg.WorkerPrefetch))
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer consumer.Close()

	engine := alerts.NewService(repo, repo, repo,
		alerts.WithDefaultBudget(cfg.DefaultMonthlyBudget),
		alerts.WithFetchLimit(cfg.TransactionFetchLimit),
		alerts.WithLogger(logger))

	opts := []worker.Option{worker.WithLogger(logger)}
	if cfg.SheetsEnabled() {
		sheetsClient, err := gsheet.New(context.Background(), gsheet.Options{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
			Logger:             logger,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		opts = append(opts, worker.WithExporter(sheetsClient))
		logger.Info("Google Sheets export enabled", log.FieldSheetsRef, cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}
	w := worker.NewTransactionWorker(repo, engine, opts...)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	if cfg.SheetsEnabled() && len(cfg.ReconcileUsers) > 0 {
		go reconcileLoop(ctx, w, cfg, logger)
	}

	go func() {
		err := consumer.ConsumeTransactionRecorded(ctx, w.HandleTransactionRecorded)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}

// reconcileLoop catches up on exports missed while the worker was down,
// once at start and then every ReconcileInterval.
func reconcileLoop(ctx context.Context, w *worker.TransactionWorker, cfg *config.Config, logger *log.Logger) {
	run := func() {
		for _, user := range cfg.ReconcileUsers {
			if _, err := w.Reconcile(ctx, user, cfg.TransactionFetchLimit); err != nil {
				logger.Error("Reconcile failed", log.FieldUserID, user, log.FieldError, err)
			}
		}
	}
	run()

	ticker := time.NewTicker(cfg.ReconcileInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}

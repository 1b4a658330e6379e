package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"xpenso/internal/alerts"
	"xpenso/internal/backend"
	"xpenso/internal/cache"
	"xpenso/internal/cli"
	apphttp "xpenso/internal/http"
	"xpenso/internal/insights"
	"xpenso/internal/log"
	"xpenso/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	repo := result.Repository

	snapshots := cache.NewLRUCache[services.Snapshot](cfg.CacheSize, cfg.CacheTTL)
	cacheManager := cache.NewManager(logger)
	cacheManager.Register(snapshots)
	cacheManager.StartCleanup(cfg.CacheTTL)

	engine := alerts.NewService(repo, repo, repo,
		alerts.WithDefaultBudget(cfg.DefaultMonthlyBudget),
		alerts.WithFetchLimit(cfg.TransactionFetchLimit),
		alerts.WithLogger(logger))

	var generator insights.Generator
	if cfg.InsightsEnabled() {
		gemini, err := insights.NewGemini(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("Gemini unavailable, insights will use the fallback text", log.FieldError, err)
		} else {
			generator = gemini
		}
	} else {
		logger.Info("GEMINI_API_KEY not set, insights will use the fallback text")
	}

	txOpts := []services.TransactionOption{
		services.WithInvalidator(snapshots),
		services.WithInlineAlerts(engine),
		services.WithTransactionFetchLimit(cfg.TransactionFetchLimit),
		services.WithTransactionLogger(logger),
	}
	if result.Publisher != nil {
		txOpts = append(txOpts, services.WithPublisher(result.Publisher))
	}

	svc := apphttp.Services{
		Transactions: services.NewTransactionService(repo, txOpts...),
		Dashboard: services.NewDashboardService(repo, engine,
			services.WithSnapshotCache(snapshots),
			services.WithDashboardFetchLimit(cfg.TransactionFetchLimit),
			services.WithDashboardLogger(logger)),
		Alerts:   services.NewAlertService(repo, engine, snapshots),
		Settings: services.NewSettingsService(repo, engine, snapshots),
		Insights: insights.NewService(generator, repo, repo,
			insights.WithFetchLimit(cfg.TransactionFetchLimit),
			insights.WithLogger(logger)),
		Ready: repo.Ping,
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc,
		apphttp.WithLogger(logger),
		apphttp.WithRateLimit(cfg.RateLimitPerMinute))
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cacheManager.Stop()
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting xpenso server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp", result.Publisher != nil,
		"insights", generator != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

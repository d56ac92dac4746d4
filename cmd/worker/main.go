package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/app"
	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/dashboard"
	"github.com/odyssey-erp/odyssey-pos/internal/gateway"
	"github.com/odyssey-erp/odyssey-pos/internal/inventory"
	jobmetrics "github.com/odyssey-erp/odyssey-pos/internal/jobs"
	"github.com/odyssey-erp/odyssey-pos/internal/observability"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	money, err := shared.NewMoney(cfg.Currency, cfg.Locale)
	if err != nil {
		logger.Error("currency", slog.String("currency", cfg.Currency), slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	client := gateway.New(gateway.Config{
		BaseURL:      cfg.GatewayURL,
		Timeout:      cfg.GatewayTimeout,
		ServiceToken: cfg.GatewayServiceToken,
	}, metrics, logger)

	catalogService := catalog.NewService(client, cache.NewCache(redisClient, "lookups", cfg.LookupCacheTTL), cfg.InlineSearchLimit, logger)
	inventoryService := inventory.NewService(client, cache.NewCache(redisClient, "suppliers", cfg.LookupCacheTTL), logger)
	dashboardService := dashboard.NewService(client, cache.NewCache(redisClient, "dashboard", cfg.DashboardCacheTTL), money, logger)

	warmup := jobs.NewWarmupJob(catalogService, inventoryService, dashboardService, logger, jobmetrics.NewMetrics(metrics.Registerer()))

	var cron []jobs.CronRegistration
	if cfg.WarmupEnabled() {
		lookupsTask, err := jobs.NewLookupsWarmupTask("cron")
		if err != nil {
			logger.Error("build lookups task", slog.Any("error", err))
			os.Exit(1)
		}
		dashboardTask, err := jobs.NewDashboardWarmupTask("cron")
		if err != nil {
			logger.Error("build dashboard task", slog.Any("error", err))
			os.Exit(1)
		}
		cron = []jobs.CronRegistration{
			{Spec: "@every 5m", Task: lookupsTask, Options: []asynq.Option{asynq.MaxRetry(2)}},
			{Spec: "@every 5m", Task: dashboardTask, Options: []asynq.Option{asynq.MaxRetry(2)}},
		}
	} else {
		logger.Warn("GATEWAY_SERVICE_TOKEN not set, cache warmup cron disabled")
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLookupsWarmup, Handler: warmup.HandleLookups},
			{Type: jobs.TaskDashboardWarmup, Handler: warmup.HandleDashboard},
		},
		Cron: cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

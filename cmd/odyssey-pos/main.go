package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/app"
	"github.com/odyssey-erp/odyssey-pos/internal/auth"
	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/customers"
	"github.com/odyssey-erp/odyssey-pos/internal/dashboard"
	"github.com/odyssey-erp/odyssey-pos/internal/gateway"
	"github.com/odyssey-erp/odyssey-pos/internal/inventory"
	"github.com/odyssey-erp/odyssey-pos/internal/observability"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-pos/internal/sales"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/workspace"
	"github.com/odyssey-erp/odyssey-pos/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	sessionManager := shared.NewSessionManager(redisClient, "pos_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
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

	lookupCache := cache.NewCache(redisClient, "lookups", cfg.LookupCacheTTL)
	supplierCache := cache.NewCache(redisClient, "suppliers", cfg.LookupCacheTTL)
	dashboardCache := cache.NewCache(redisClient, "dashboard", cfg.DashboardCacheTTL)

	catalogService := catalog.NewService(client, lookupCache, cfg.InlineSearchLimit, logger)
	customerService := customers.NewService(client, logger)
	salesService := sales.NewService(client, logger)
	inventoryService := inventory.NewService(client, supplierCache, logger)
	dashboardService := dashboard.NewService(client, dashboardCache, money, logger)
	authService := auth.NewService(client, logger)

	browsers := catalog.NewBrowsers()
	carts := sales.NewCarts()
	entries := inventory.NewEntries()
	go workspace.Janitor(ctx, 10*time.Minute, cfg.WorkspaceIdle, logger, browsers, carts, entries)

	catalogHandler := catalog.NewHandler(logger, catalogService, browsers, catalog.BrowserConfig{
		Mode:     cfg.BrowserMode(),
		Window:   cfg.SearchDebounce,
		PageSize: cfg.CatalogPageSize,
	})
	salesHandler := sales.NewHandler(logger, salesService, carts, sales.CartDeps{
		Products:  catalogService,
		Customers: customerService,
		Gateway:   client,
		TaxRate:   cfg.TaxRate,
		Money:     money,
	})
	inventoryHandler := inventory.NewHandler(logger, inventoryService, entries, inventory.EntryDeps{
		Products: catalogService,
		Gateway:  client,
		Money:    money,
	})
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager, browsers, carts, entries)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	if cfg.WarmupEnabled() {
		jobClient, err := jobs.NewClient(redisOpts)
		if err != nil {
			logger.Warn("job client", slog.Any("error", err))
		} else {
			if _, err := jobClient.EnqueueLookupsWarmup(ctx, "startup"); err != nil {
				logger.Warn("enqueue lookups warmup", slog.Any("error", err))
			}
			if _, err := jobClient.EnqueueDashboardWarmup(ctx, "startup"); err != nil {
				logger.Warn("enqueue dashboard warmup", slog.Any("error", err))
			}
			_ = jobClient.Close()
		}
	}

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		AuthHandler:      authHandler,
		CatalogHandler:   catalogHandler,
		SalesHandler:     salesHandler,
		InventoryHandler: inventoryHandler,
		CustomerHandler:  customers.NewHandler(logger, customerService),
		DashboardHandler: dashboard.NewHandler(logger, dashboardService),
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("gateway", cfg.GatewayURL))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	browsers.Sweep(-time.Second)
}

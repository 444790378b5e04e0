package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vendibase/vendibase-backend/api/routes"
	"github.com/vendibase/vendibase-backend/internal/adjustments"
	"github.com/vendibase/vendibase-backend/internal/events"
	"github.com/vendibase/vendibase-backend/internal/inventory"
	product "github.com/vendibase/vendibase-backend/internal/products"
	"github.com/vendibase/vendibase-backend/internal/purchases"
	"github.com/vendibase/vendibase-backend/internal/reports"
	"github.com/vendibase/vendibase-backend/internal/sales"
	"github.com/vendibase/vendibase-backend/internal/transactions"
	"github.com/vendibase/vendibase-backend/pkg/config"
	"github.com/vendibase/vendibase-backend/pkg/db"
	"github.com/vendibase/vendibase-backend/pkg/logger"
	"github.com/vendibase/vendibase-backend/pkg/metrics"
	"github.com/vendibase/vendibase-backend/pkg/migrate"
	"github.com/vendibase/vendibase-backend/pkg/outbox"
	"github.com/vendibase/vendibase-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	stockMetrics := metrics.NewStockMetrics(registry)

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	productRepo := product.NewRepository(dbClient.DB())
	productService, err := product.NewService(productRepo, dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	inventoryService, err := inventory.NewService(inventory.NewRepository(dbClient.DB()), dbClient, productRepo, outboxService, stockMetrics, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	purchaseService, err := purchases.NewService(purchases.NewRepository(dbClient.DB()), dbClient, inventoryService, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create purchase service", err)
		os.Exit(1)
	}

	adjustmentService, err := adjustments.NewService(dbClient, inventoryService, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create adjustment service", err)
		os.Exit(1)
	}

	saleService, err := sales.NewService(sales.NewRepository(dbClient.DB()), dbClient, inventoryService, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create sale service", err)
		os.Exit(1)
	}

	eventService, err := events.NewService(
		events.NewRepository(dbClient.DB()),
		sales.NewRepository(dbClient.DB()),
		transactions.NewRepository(dbClient.DB()),
		nil,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create event service", err)
		os.Exit(1)
	}

	transactionService, err := transactions.NewService(transactions.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create transaction service", err)
		os.Exit(1)
	}

	reportService, err := reports.NewService(reports.NewRepository(dbClient.DB()), inventoryService, redisClient, cfg.Reports.ValuationCacheTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create report service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			productService,
			inventoryService,
			purchaseService,
			adjustmentService,
			saleService,
			eventService,
			transactionService,
			reportService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vendibase/vendibase-backend/api/controllers"
	"github.com/vendibase/vendibase-backend/api/middleware"
	"github.com/vendibase/vendibase-backend/internal/adjustments"
	"github.com/vendibase/vendibase-backend/internal/events"
	"github.com/vendibase/vendibase-backend/internal/inventory"
	products "github.com/vendibase/vendibase-backend/internal/products"
	"github.com/vendibase/vendibase-backend/internal/purchases"
	"github.com/vendibase/vendibase-backend/internal/reports"
	"github.com/vendibase/vendibase-backend/internal/sales"
	"github.com/vendibase/vendibase-backend/internal/transactions"
	"github.com/vendibase/vendibase-backend/pkg/config"
	"github.com/vendibase/vendibase-backend/pkg/db"
	"github.com/vendibase/vendibase-backend/pkg/logger"
	"github.com/vendibase/vendibase-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	productService products.Service,
	inventoryService inventory.Service,
	purchaseService purchases.Service,
	adjustmentService adjustments.Service,
	saleService sales.Service,
	eventService events.Service,
	transactionService transactions.Service,
	reportService reports.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.CreateProduct(productService, logg))
			r.Get("/", controllers.ListProducts(productService, logg))
			r.Get("/{productId}", controllers.GetProduct(productService, logg))
			r.Patch("/{productId}", controllers.UpdateProduct(productService, logg))
			r.Delete("/{productId}", controllers.DeactivateProduct(productService, logg))
			r.Post("/{productId}/initial-stock", controllers.SetInitialStock(inventoryService, logg))
			r.Get("/{productId}/stock", controllers.CurrentStock(inventoryService, logg))
			r.Get("/{productId}/movements", controllers.StockHistory(inventoryService, logg))
			r.Get("/{productId}/valuation", controllers.ProductValuation(reportService, logg))
		})

		r.Route("/purchases", func(r chi.Router) {
			r.Post("/", controllers.ReceivePurchase(purchaseService, logg))
			r.Get("/", controllers.ListPurchases(purchaseService, logg))
			r.Get("/{purchaseId}", controllers.GetPurchase(purchaseService, logg))
		})

		r.Post("/adjustments", controllers.AdjustStock(adjustmentService, logg))

		r.Route("/sales", func(r chi.Router) {
			r.Post("/", controllers.RecordSale(saleService, logg))
			r.Get("/", controllers.ListSales(saleService, logg))
			r.Get("/{saleId}", controllers.GetSale(saleService, logg))
		})

		r.Route("/events", func(r chi.Router) {
			r.Post("/", controllers.CreateEvent(eventService, logg))
			r.Get("/", controllers.ListEvents(eventService, logg))
			r.Get("/{eventId}", controllers.GetEvent(eventService, logg))
			r.Patch("/{eventId}", controllers.UpdateEvent(eventService, logg))
			r.Get("/{eventId}/profit", controllers.EventProfit(eventService, logg))
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", controllers.CreateTransaction(transactionService, logg))
			r.Get("/", controllers.ListTransactions(transactionService, logg))
			r.Get("/{transactionId}", controllers.GetTransaction(transactionService, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/inventory", controllers.InventorySummary(reportService, logg))
			r.Get("/low-stock", controllers.LowStock(reportService, logg))
			r.Get("/profit", controllers.ProfitSummary(reportService, logg))
		})
	})

	return r
}

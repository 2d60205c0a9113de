package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blackgym/storefront/internal/api/handlers"
	"github.com/blackgym/storefront/internal/api/middleware"
	"github.com/blackgym/storefront/internal/cart"
	"github.com/blackgym/storefront/internal/catalog"
	"github.com/blackgym/storefront/internal/config"
	"github.com/blackgym/storefront/internal/health"
	"github.com/blackgym/storefront/internal/metrics"
	"github.com/blackgym/storefront/internal/notification"
	"github.com/blackgym/storefront/internal/notify"
	"github.com/blackgym/storefront/internal/orders"
	"github.com/blackgym/storefront/internal/payment"
	"github.com/blackgym/storefront/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	// Tracing setup
	shutdownTracing, err := telemetry.Setup(context.Background(), "blackgym-storefront", cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		slog.Error("❌ Error setting up tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Cart persistence setup
	persister, err := newPersister(cfg)
	if err != nil {
		slog.Error("❌ Error initializing cart storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	notifier := notify.NewLogNotifier(logger)
	carts := cart.NewManager(persister, notifier, logger)

	catalogClient := catalog.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout)
	ordersClient := orders.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout)

	var mailer notification.OrderMailer
	if cfg.SendGrid.APIKey != "" {
		mailer = notification.NewSendGridMailer(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
	}

	cartHandler := handlers.NewCartHandler(carts, catalogClient)
	catalogHandler := handlers.NewCatalogHandler(catalogClient)
	checkoutHandler := handlers.NewCheckoutHandler(handlers.CheckoutDeps{
		Carts:    carts,
		Stock:    catalogClient,
		Orders:   ordersClient,
		Mailer:   mailer,
		Notifier: notifier,
		Logger:   logger,
		Processor: payment.Config{
			TickInterval:  cfg.Checkout.TickInterval,
			ProgressStep:  cfg.Checkout.ProgressStep,
			PhaseInterval: cfg.Checkout.PhaseInterval,
			ResolveDelay:  cfg.Checkout.ResolveDelay,
			SuccessRate:   cfg.Checkout.SuccessRate,
		},
		ClearCartDelay: cfg.Checkout.ClearCartDelay,
	})

	healthHandler, err := health.NewHealthHandler(cfg)
	if err != nil {
		slog.Error("❌ Error creating health handler", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("storage initialized", slog.String("env", cfg.Env), slog.String("cart_backend", cfg.CartStorage.Backend))

	// Setup router
	routerMux := http.NewServeMux()
	routerMux.HandleFunc("GET /api/v1/products", catalogHandler.ListProducts())
	routerMux.HandleFunc("GET /api/v1/products/{id}", catalogHandler.GetProduct())
	routerMux.HandleFunc("GET /api/v1/categories", catalogHandler.ListCategories())
	routerMux.HandleFunc("GET /api/v1/cart", cartHandler.GetCart())
	routerMux.HandleFunc("POST /api/v1/cart/items", cartHandler.AddItem())
	routerMux.HandleFunc("PUT /api/v1/cart/items/{id}", cartHandler.UpdateQuantity())
	routerMux.HandleFunc("DELETE /api/v1/cart/items/{id}", cartHandler.RemoveItem())
	routerMux.HandleFunc("DELETE /api/v1/cart", cartHandler.ClearCart())
	routerMux.HandleFunc("POST /api/v1/checkout", checkoutHandler.Begin())
	routerMux.HandleFunc("GET /api/v1/checkout/{id}", checkoutHandler.Status())
	routerMux.HandleFunc("POST /api/v1/checkout/{id}/payment", checkoutHandler.Pay())
	routerMux.HandleFunc("POST /api/v1/checkout/{id}/retry", checkoutHandler.Retry())
	routerMux.HandleFunc("POST /api/v1/checkout/{id}/cancel", checkoutHandler.Cancel())
	routerMux.Handle("GET /metrics", metrics.Handler())
	routerMux.Handle("GET /health", healthHandler.Handler())

	// Middleware chaining
	var handler http.Handler = routerMux
	handler = metrics.Middleware(handler)
	handler = middleware.Logging(handler)
	handler = otelhttp.NewHandler(handler, "storefront")

	// Setup http server
	server := http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	slog.Info("🚀 Server is starting...", slog.String("address", cfg.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("❌ Failed to start server", slog.Any("error", err.Error()))
		}
	}()

	<-done

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Server shut down gracefully. All connections closed.")
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("⚠️ Tracer shutdown encountered an issue", slog.String("error", err.Error()))
	}

}

func newPersister(cfg *config.Config) (cart.Persister, error) {
	if cfg.CartStorage.Backend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.CartStorage.Redis.Addr,
			Password: cfg.CartStorage.Redis.Password,
			DB:       cfg.CartStorage.Redis.DB,
		})

		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, err
		}

		return cart.NewRedisPersister(client), nil
	}

	return cart.NewFilePersister(cfg.CartStorage.Dir)
}

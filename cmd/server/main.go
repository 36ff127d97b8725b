package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/storefront-core/payment-service/internal/application/services"
	"github.com/storefront-core/payment-service/internal/config"
	"github.com/storefront-core/payment-service/internal/gateway/dummy"
	"github.com/storefront-core/payment-service/internal/gateway/stripe"
	"github.com/storefront-core/payment-service/internal/infrastructure/persistence"
	"github.com/storefront-core/payment-service/internal/infrastructure/persistence/postgres"
	"github.com/storefront-core/payment-service/internal/interfaces/rest/handlers"
	"github.com/storefront-core/payment-service/internal/interfaces/rest/middleware"
	"github.com/storefront-core/payment-service/internal/plugins"
	"github.com/storefront-core/payment-service/internal/plugins/vatflat"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting payment service",
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()
	db, err := persistence.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	paymentRepo := postgres.NewPaymentRepository(db)
	idempotencyRepo := postgres.NewIdempotencyRepository(db)
	pluginRepo := postgres.NewPluginConfigurationRepository(db)

	manager := plugins.NewManager(pluginRepo, logger,
		dummy.NewPlugin(),
		stripe.NewPlugin(stripe.PluginDefaults{
			SecretKey:      cfg.Stripe.SecretKey,
			APIBase:        cfg.Stripe.APIBase,
			AutoCapture:    cfg.Stripe.AutoCapture,
			StoreCustomers: cfg.Stripe.StoreCustomers,
			Active:         cfg.Stripe.Active,
		}),
		vatflat.New(),
	)

	// A gateway that cannot produce a call-time configuration should fail the
	// process here, not on the first charge.
	if err := manager.HealthCheck(ctx); err != nil {
		logger.Error("plugin health check failed", "error", err)
		os.Exit(1)
	}

	paymentService := services.NewPaymentService(paymentRepo, idempotencyRepo, manager, logger)

	h := handlers.NewHandlers(paymentService, manager, logger)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	handler := middleware.Recovery(logger)(mux)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Timeout(cfg.Server.ReadTimeout)(handler)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}

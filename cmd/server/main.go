package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/orderbridge/reconciler/internal/config"
	"github.com/orderbridge/reconciler/internal/database"
	apihandlers "github.com/orderbridge/reconciler/internal/handlers/api"
	"github.com/orderbridge/reconciler/internal/metrics"
	"github.com/orderbridge/reconciler/internal/middleware"
	"github.com/orderbridge/reconciler/internal/reconcile"
	"github.com/orderbridge/reconciler/internal/store"
	"github.com/orderbridge/reconciler/internal/stripeapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.TestMode() {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Connect to database
	pool, err := database.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	slog.Info("database connected")

	// Run migrations
	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	slog.Info("migrations complete")

	metrics.Register()

	// Wire the reconciliation engine
	st := store.NewPG(pool, logger)
	stripeClient := stripeapi.NewClient(cfg.StripeSecretKey, logger)
	engine := reconcile.NewEngine(st, st, stripeClient, reconcile.Settings{
		DomesticCountry:           cfg.DomesticCountry,
		InternationalShippingCost: cfg.InternationalShippingCost,
		TestMode:                  cfg.TestMode(),
	}, logger)

	webhookHandler := apihandlers.NewWebhookHandler(engine, stripeClient, logger, cfg.StripeWebhookKey)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `{"status":"ok"}`)
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	webhookHandler.RegisterRoutes(mux)

	// Apply middleware stack (rate limiting, security headers, logging, recovery)
	var chain http.Handler = mux
	chain = middleware.SecurityHeaders(chain)
	chain = middleware.RateLimiter(20, 40)(chain) // 20 req/s, burst 40 per IP
	chain = middleware.Recover(logger)(chain)
	chain = middleware.RequestLogger(logger)(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      chain,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("webhook server starting", "port", cfg.Port, "stripe_mode", cfg.StripeMode)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("webhook server: %w", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down", "signal", sig)
	case err := <-errCh:
		slog.Error("server error", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}

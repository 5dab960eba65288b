// Package main is the entry point for the stock ledger API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockledger/internal/bootstrap"
	v1 "stockledger/internal/infrastructure/http/v1"
	"stockledger/internal/infrastructure/http/v1/middleware"
	"stockledger/pkg/logger"
)

func main() {
	cfg, err := bootstrap.LoadConfig(".env")
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Development(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting stockledger server", "storage", cfg.Storage, "counter_store", cfg.CounterStore)

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to initialize services", "error", err)
	}
	defer app.Close()

	// Startup integrity check. Violations are reported, never repaired.
	if report, err := app.Reconciler.Report(ctx); err != nil {
		log.Warnw("startup integrity check failed", "error", err)
	} else if !report.Healthy() {
		log.Warnw("ledger integrity violations found",
			"violations", len(report.Violations),
			"orphans", len(report.Orphans),
		)
	}

	var validator middleware.JWTValidator
	if app.JWT != nil {
		validator = app.JWT
	}

	router := v1.NewRouter(v1.RouterConfig{
		Inventory:    app.Inventory,
		Reconciler:   app.Reconciler,
		Invoices:     app.Invoices,
		Customers:    app.Customers,
		Audit:        app.Audit,
		Store:        app.Store,
		Backend:      app.Backend,
		Logger:       log,
		JWTValidator: validator,
		RequireAuth:  cfg.RequireAuth,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}
	app.LogStats(ctx)

	log.Info("server stopped")
}

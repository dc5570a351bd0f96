// Command api is the gym push notification server.
//
// Usage:
//
//	gympush-api
//	API_PORT=8080 gympush-api
//
// With DATABASE_URL unset the server runs on an in-memory store, which is
// only useful for local development.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/openrec/gympush/internal/api"
	"github.com/openrec/gympush/internal/api/handler"
	"github.com/openrec/gympush/internal/config"
	"github.com/openrec/gympush/internal/db"
	"github.com/openrec/gympush/internal/maintenance"
	"github.com/openrec/gympush/internal/notify"
	"github.com/openrec/gympush/internal/schedule"
	"github.com/openrec/gympush/internal/store"
	"github.com/openrec/gympush/internal/trigger"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Storage: Postgres when configured, in-memory otherwise.
	var (
		kv     store.Store
		pinger handler.Pinger
	)
	if cfg.DatabaseURL != "" {
		logger.Info("Connecting to database...")
		pool, err := db.New(ctx, cfg)
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		logger.Info("Database connected",
			"min_conns", cfg.DBPoolMinConns,
			"max_conns", cfg.DBPoolMaxConns)

		pg := store.NewPostgres(pool.Pool)
		kv = pg
		pinger = pool

		go maintenance.Start(ctx, pg, maintenance.DefaultConfig(), logger)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory store")
		kv = store.NewMemory()
	}

	// Push transport
	if !cfg.PushConfigured() {
		logger.Error("VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY are required")
		os.Exit(1)
	}
	pusher := notify.NewWebPush(cfg.VAPIDSubject, cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.PushTTL)
	engine := notify.NewEngine(kv, pusher, cfg.StorePageSize, logger)

	// Trigger evaluation
	eval, err := trigger.NewEvaluator(cfg.GymTimezone, cfg.AppOrigin)
	if err != nil {
		logger.Error("Failed to build trigger evaluator", "error", err)
		os.Exit(1)
	}

	// Cron path: periodic schedule scan, only when a schedule URL is set.
	if cfg.ScheduleURL != "" {
		client := schedule.NewClient(cfg.ScheduleURL, cfg.ScheduleCacheTTL)
		runner := trigger.NewRunner(eval, engine, client, cfg.TickInterval, logger)
		go runner.Start(ctx)
	} else {
		logger.Info("Cron trigger disabled (no SCHEDULE_URL)")
	}

	// Create router
	router := api.NewRouter(kv, engine, eval, cfg, pinger, logger)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting gym push API",
			"addr", addr,
			"environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}

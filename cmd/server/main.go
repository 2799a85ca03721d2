// Package main runs the platform API server: prepaid accounts, the
// model catalog and the balance-metered image generation endpoint.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	app "github.com/nekoko-ai/platform/internal/app"
	"github.com/nekoko-ai/platform/internal/app/httpapi"
	"github.com/nekoko-ai/platform/internal/app/storage/postgres"
	"github.com/nekoko-ai/platform/internal/config"
	"github.com/nekoko-ai/platform/internal/platform/migrations"
	"github.com/nekoko-ai/platform/pkg/logger"
)

func main() {
	log := logger.NewDefault("server")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Error("load configuration")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores := app.Stores{}
	if cfg.DatabaseURL != "" {
		db, err := sqlx.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Error("open database")
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.WithError(err).Error("ping database")
			os.Exit(1)
		}
		if err := migrations.Apply(ctx, db.DB); err != nil {
			log.WithError(err).Error("apply migrations")
			os.Exit(1)
		}

		store := postgres.New(db)
		stores = app.Stores{
			Accounts: store,
			Catalog:  store,
			APIKeys:  store,
			CallLogs: store,
			Settings: store,
		}
		log.Info("using postgres storage")
	} else {
		log.Warn("DATABASE_URL not set; using in-memory storage")
	}

	application, err := app.New(stores, app.Config{
		GenerationDefaultPrice: cfg.GenerationDefaultPrice,
		ProviderClient:         &http.Client{Timeout: cfg.ProviderTimeout},
		StatsInterval:          cfg.StatsInterval,
	}, log)
	if err != nil {
		log.WithError(err).Error("build application")
		os.Exit(1)
	}

	if err := application.Start(ctx); err != nil {
		log.WithError(err).Error("start application")
		os.Exit(1)
	}

	handler := httpapi.NewHandler(application, httpapi.Options{
		JWTSecret:          cfg.JWTSecret,
		TokenTTL:           cfg.TokenTTL,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
		AllowedOrigins:     []string{"*"},
		Log:                log,
	})

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infof("listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.WithError(err).Error("http server")
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown")
	}
	if err := application.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("application stop")
	}

	log.Info("stopped")
}

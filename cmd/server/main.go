// Package main runs the grocery delivery API server.
package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	app "github.com/marketrun/platform/internal/app"
	"github.com/marketrun/platform/internal/app/httpapi"
	"github.com/marketrun/platform/internal/app/metrics"
	"github.com/marketrun/platform/internal/app/pricing"
	"github.com/marketrun/platform/internal/app/storage/postgres"
	"github.com/marketrun/platform/internal/app/storage/rediscart"
	"github.com/marketrun/platform/internal/app/storage/supabase"
	"github.com/marketrun/platform/internal/config"
	"github.com/marketrun/platform/internal/database"
	"github.com/marketrun/platform/internal/middleware"
	"github.com/marketrun/platform/internal/payment"
	"github.com/marketrun/platform/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the configuration file")
	envFile := flag.String("env", ".env", "Path to an optional .env file")
	flag.Parse()

	// Missing .env files are fine; production sets real environment
	// variables.
	_ = godotenv.Load(*envFile)

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		logger.NewDefault("server").WithError(err).Fatal("load configuration")
	}

	log := logger.New(logger.Options{
		Service: "server",
		Level:   cfg.Log.Level,
		JSON:    cfg.Log.JSON,
	})

	stores, cleanup, err := buildStores(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("initialise storage")
	}
	defer cleanup()

	var gateway payment.Gateway
	if cfg.Paystack.SecretKey != "" {
		client, err := payment.NewClient(payment.Config{
			SecretKey: cfg.Paystack.SecretKey,
			BaseURL:   cfg.Paystack.BaseURL,
		})
		if err != nil {
			log.WithError(err).Fatal("initialise paystack client")
		}
		gateway = client
	}

	table := pricing.DefaultFeeTable()
	if cfg.Delivery.HomeMetroFee > 0 {
		table.HomeMetroFee = cfg.Delivery.HomeMetroFee
	}
	if cfg.Delivery.DomesticFee > 0 {
		table.DomesticFee = cfg.Delivery.DomesticFee
	}

	application, err := app.New(stores, app.Options{
		Gateway:            gateway,
		FeeTable:           &table,
		ReferralReward:     cfg.Delivery.ReferralReward,
		PromoSweepSchedule: cfg.Promo.SweepSchedule,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("initialise application")
	}

	api, err := httpapi.NewHandler(application, httpapi.Options{
		JWTSecret:    []byte(cfg.Auth.JWTSecret),
		TokenTTL:     cfg.Auth.TokenTTL,
		AuditLogPath: cfg.Server.AuditLogPath,
		Log:          log,
	})
	if err != nil {
		log.WithError(err).Fatal("initialise http handler")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/", api)

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, log)
	limiter.StartCleanup(10 * time.Minute)
	cors := middleware.NewCORSMiddleware(cfg.Server.AllowedOrigins)

	handler := metrics.InstrumentHandler(cors.Handler(limiter.Handler(mux)))

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		log.WithError(err).Fatal("start application services")
	}

	go func() {
		log.Infof("listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("http server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http server shutdown")
	}
	if err := application.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("application shutdown")
	}
}

// buildStores assembles the persistence layer for the configured backend.
// The returned cleanup closes any opened connections.
func buildStores(cfg config.Config, log *logger.Logger) (app.Stores, func(), error) {
	var stores app.Stores
	cleanup := func() {}

	switch cfg.Storage.Backend {
	case "memory":
		log.Warn("using in-memory storage; data is lost on restart")

	case "postgres":
		db, err := sql.Open("postgres", cfg.Storage.PostgresDSN)
		if err != nil {
			return app.Stores{}, nil, err
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return app.Stores{}, nil, err
		}
		if err := postgres.Migrate(db); err != nil {
			db.Close()
			return app.Stores{}, nil, err
		}
		store := postgres.New(db)
		stores = app.Stores{
			Users:     store,
			Addresses: store,
			Catalog:   store,
			Carts:     store,
			Promos:    store,
			Wallets:   store,
			Orders:    store,
		}
		cleanup = func() { db.Close() }

	case "supabase":
		client, err := database.NewClient(database.Config{
			URL:        cfg.Storage.SupabaseURL,
			ServiceKey: cfg.Storage.SupabaseKey,
		})
		if err != nil {
			return app.Stores{}, nil, err
		}
		store := supabase.New(client)
		stores = app.Stores{
			Users:     store,
			Addresses: store,
			Catalog:   store,
			Carts:     store,
			Promos:    store,
			Wallets:   store,
			Orders:    store,
		}
	}

	if cfg.Storage.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			cleanup()
			return app.Stores{}, nil, err
		}
		stores.Carts = rediscart.New(client, rediscart.DefaultTTL)
		prev := cleanup
		cleanup = func() {
			client.Close()
			prev()
		}
		log.Info("cart storage on redis")
	}

	return stores, cleanup, nil
}

package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/farxc/imoveis_dashboard/internal/db"
	"github.com/farxc/imoveis_dashboard/internal/env"
	"github.com/farxc/imoveis_dashboard/internal/imoveis"
	"github.com/farxc/imoveis_dashboard/internal/imoveis/cache"
	"github.com/farxc/imoveis_dashboard/internal/logger"
	"github.com/farxc/imoveis_dashboard/internal/store"
)

func main() {
	if err := env.Load(); err != nil {
		log.Printf("Ignoring .env file: %v", err)
	}

	cfg := config{
		addr:        env.GetString("ADDR", ":8080"),
		corsOrigins: env.GetList("CORS_ORIGINS", nil),
		logLevel:    env.GetString("LOG_LEVEL", "info"),
		snapshot: snapshotConfig{
			source:       env.GetString("SNAPSHOT_SOURCE", "imoveis_relatorio.parquet"),
			extraColumns: env.GetList("SNAPSHOT_EXTRA_COLUMNS", nil),
			watch:        env.GetBool("SNAPSHOT_WATCH", true),
			httpTimeout:  env.GetDuration("HTTP_TIMEOUT", 5*time.Minute),
			userAgent:    env.GetString("HTTP_USER_AGENT", ""),
		},
		db: dbConfig{
			driver:       env.GetString("DB_DRIVER", "postgres"),
			addr:         env.GetString("DB_ADDR", ""),
			maxOpenConns: env.GetInt("DB_MAX_OPEN_CONNS", 25),
			maxIdleConns: env.GetInt("DB_MAX_IDLE_CONNS", 25),
			maxIdleTime:  env.GetString("DB_MAX_IDLE_TIME", "15m"),
		},
	}

	appLogger := logger.New(os.Stdout, logger.ParseLevel(cfg.logLevel))

	var storage *store.Storage
	if cfg.db.addr != "" {
		conn, err := db.New(
			cfg.db.driver,
			cfg.db.addr,
			cfg.db.maxOpenConns,
			cfg.db.maxIdleConns,
			cfg.db.maxIdleTime)
		if err != nil {
			appLogger.Fatal("API", "Database connection failed: %v", err)
		}
		defer conn.Close()

		if err := store.Migrate(context.Background(), conn); err != nil {
			appLogger.Fatal("API", "Migration failed: %v", err)
		}
		appLogger.Info("API", "Database connection pool established driver=%s", cfg.db.driver)
		storage = store.NewStorage(conn)
	} else {
		appLogger.Warn("API", "DB_ADDR not set; load history is disabled")
	}

	app, err := newApplication(cfg, storage, appLogger)
	if err != nil {
		appLogger.Fatal("API", "Invalid snapshot configuration: %v", err)
	}

	if cfg.snapshot.watch {
		watcher, err := cache.NewWatcher(app.cache, appLogger)
		if err != nil {
			appLogger.Fatal("API", "Failed to start snapshot watcher: %v", err)
		}
		defer watcher.Close()
		if err := watcher.Watch(cfg.snapshot.source); err != nil {
			appLogger.Warn("API", "Snapshot changes will not be detected: %v", err)
		}
	}

	// Warm the cache so the first request does not pay for the load.
	go func() {
		if _, err := app.snapshot(context.Background()); err != nil {
			appLogger.Warn("API", "Initial snapshot load failed: %v", err)
		}
	}()

	mux := app.mount()

	log.Fatal(app.run(mux))
}

func newApplication(cfg config, storage *store.Storage, appLogger *logger.Logger) (*application, error) {
	loader, err := imoveis.NewLoader(imoveis.Options{
		ExtraColumns: cfg.snapshot.extraColumns,
		HTTPTimeout:  cfg.snapshot.httpTimeout,
		UserAgent:    cfg.snapshot.userAgent,
		Logger:       appLogger,
		OnLoad:       recordLoad(storage, appLogger),
	})
	if err != nil {
		return nil, err
	}

	return &application{
		config: cfg,
		store:  storage,
		cache:  cache.New(loader.Load, appLogger),
		logger: appLogger,
	}, nil
}

// recordLoad persists every load attempt when a database is configured.
func recordLoad(storage *store.Storage, appLogger *logger.Logger) func(context.Context, imoveis.Report) {
	if storage == nil {
		return nil
	}
	return func(ctx context.Context, r imoveis.Report) {
		history := store.NewLoadHistory(r)
		if err := storage.LoadHistory.InsertLoadHistory(ctx, &history); err != nil {
			appLogger.Error("API", "Failed to record load %s: %v", r.ID, err)
		}
	}
}

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/farxc/imoveis_dashboard/internal/dashboard"
	"github.com/farxc/imoveis_dashboard/internal/db"
	"github.com/farxc/imoveis_dashboard/internal/env"
	"github.com/farxc/imoveis_dashboard/internal/imoveis"
	"github.com/farxc/imoveis_dashboard/internal/logger"
	"github.com/farxc/imoveis_dashboard/internal/store"
)

func main() {
	const component = "Main"

	// Configure log output format
	log.SetFlags(0) // Remove default timestamp since we add our own

	if err := env.Load(); err != nil {
		log.Printf("Ignoring .env file: %v", err)
	}

	sourcesPtr := flag.String("source", env.GetString("SNAPSHOT_SOURCE", "imoveis_relatorio.parquet"), "Comma-separated snapshot paths or URLs")
	bairroPtr := flag.String("bairro", "", "Comma-separated neighborhoods to keep")
	usoPtr := flag.String("uso", "", "Comma-separated property uses to keep")
	categoriaPtr := flag.String("categoria", "", "Comma-separated PSEI use categories to keep")
	extraPtr := flag.String("columns", strings.Join(env.GetList("SNAPSHOT_EXTRA_COLUMNS", nil), ","), "Comma-separated extra raw columns to read")
	outPtr := flag.String("out", "output", "Output directory")
	localePtr := flag.String("locale", "", "CSV dialect: empty for ',' or pt-BR for ';' and decimal commas")
	concurrencyPtr := flag.Int("concurrency", 2, "Snapshots loaded at once")
	logLevelPtr := flag.String("loglevel", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	appLogger := logger.New(os.Stderr, logger.ParseLevel(*logLevelPtr))

	monitor := NewMonitor()
	monitor.Start(400*time.Millisecond, appLogger)

	startingTime := time.Now()
	appLogger.Info(component, "Export starting: sources=%s logLevel=%s", *sourcesPtr, *logLevelPtr)

	var storage *store.Storage
	if addr := env.GetString("DB_ADDR", ""); addr != "" {
		conn, err := db.New(
			env.GetString("DB_DRIVER", "postgres"),
			addr,
			env.GetInt("DB_MAX_OPEN_CONNS", 5),
			env.GetInt("DB_MAX_IDLE_CONNS", 5),
			env.GetString("DB_MAX_IDLE_TIME", "15m"))
		if err != nil {
			appLogger.Fatal(component, "Database connection failed: error=%v", err)
		}
		defer conn.Close()
		if err := store.Migrate(context.Background(), conn); err != nil {
			appLogger.Fatal(component, "Migration failed: error=%v", err)
		}
		storage = store.NewStorage(conn)
	}

	loader, err := imoveis.NewLoader(imoveis.Options{
		ExtraColumns: dashboard.ParseSelection([]string{*extraPtr}),
		HTTPTimeout:  env.GetDuration("HTTP_TIMEOUT", 5*time.Minute),
		UserAgent:    env.GetString("HTTP_USER_AGENT", ""),
		Logger:       appLogger,
		OnLoad: func(ctx context.Context, r imoveis.Report) {
			if storage == nil {
				return
			}
			history := store.NewLoadHistory(r)
			if err := storage.LoadHistory.InsertLoadHistory(ctx, &history); err != nil {
				appLogger.Error(component, "Failed to record load: source=%s error=%v", r.Source, err)
			}
		},
	})
	if err != nil {
		appLogger.Fatal(component, "Invalid column selection: error=%v", err)
	}

	exp := &exporter{
		loader: loader,
		filter: dashboard.Filter{
			Bairros:    dashboard.ParseSelection([]string{*bairroPtr}),
			Usos:       dashboard.ParseSelection([]string{*usoPtr}),
			Categorias: dashboard.ParseSelection([]string{*categoriaPtr}),
		},
		locale: dashboard.ParseLocale(*localePtr),
		outDir: *outPtr,
		logger: appLogger,
	}

	results, exportErr := exp.exportAll(context.Background(), dashboard.ParseSelection([]string{*sourcesPtr}), *concurrencyPtr)
	for _, r := range results {
		printSummary(os.Stdout, r)
	}

	stats := monitor.Stop()
	appLogger.Info(component, "Peak usage: goroutines=%d memoryMB=%d", stats.PeakGoroutines, stats.PeakMemoryMB)

	if exportErr != nil {
		appLogger.Fatal(component, "Export finished with errors: error=%v", exportErr)
	}

	timeTaken := time.Since(startingTime)
	appLogger.Info(component, "Export completed successfully: duration=%.2f seconds", timeTaken.Seconds())
}

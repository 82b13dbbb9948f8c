package main

import (
	"context"
	"net/http"
	"time"

	"github.com/farxc/imoveis_dashboard/internal/imoveis"
	"github.com/farxc/imoveis_dashboard/internal/imoveis/cache"
	"github.com/farxc/imoveis_dashboard/internal/logger"
	"github.com/farxc/imoveis_dashboard/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type application struct {
	config config
	// store is nil when no database is configured.
	store  *store.Storage
	cache  *cache.Cache
	logger *logger.Logger
}

type config struct {
	addr        string
	corsOrigins []string
	logLevel    string
	snapshot    snapshotConfig
	db          dbConfig
}

type snapshotConfig struct {
	source       string
	extraColumns []string
	watch        bool
	httpTimeout  time.Duration
	userAgent    string
}

type dbConfig struct {
	driver       string
	addr         string
	maxOpenConns int
	maxIdleConns int
	maxIdleTime  string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: app.config.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	// Set a timeout value on the request context (ctx), that will signal
	// through ctx.Done() that the request has timed out and further
	// processing should be stopped.
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", app.healthCheckHandler)
		r.Route("/imoveis", func(r chi.Router) {
			r.Get("/options", app.handleGetOptions)
			r.Get("/summary", app.handleGetSummary)
			r.Get("/charts", app.handleGetCharts)
			r.Get("/rows", app.handleGetRows)
			r.Get("/export.csv", app.handleExportCSV)
		})
		r.Route("/snapshot", func(r chi.Router) {
			r.Post("/invalidate", app.handleInvalidateSnapshot)
			r.Get("/history", app.handleGetLoadHistory)
		})
	})

	return r
}

// snapshot returns the canonical table of the configured source through
// the cache.
func (app *application) snapshot(ctx context.Context) (imoveis.Table, error) {
	return app.cache.Get(ctx, app.config.snapshot.source)
}

func (app *application) run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 120,
		ReadTimeout:  time.Second * 40,
		IdleTimeout:  time.Minute,
	}

	app.logger.Info("API", "Server started on %s", app.config.addr)
	return srv.ListenAndServe()
}

// Package server assembles the HTTP router and listeners.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/bigbiz/catalog-api/internal/auth"
	"github.com/bigbiz/catalog-api/internal/config"
	"github.com/bigbiz/catalog-api/internal/handlers"
	"github.com/bigbiz/catalog-api/internal/metrics"
	"github.com/bigbiz/catalog-api/internal/middleware"
	"github.com/bigbiz/catalog-api/internal/repository"
	"github.com/bigbiz/catalog-api/internal/service"
	"github.com/bigbiz/catalog-api/pkg/logger"
)

const requestTimeout = 60 * time.Second

// Deps is everything the router needs. Counter and Metrics may be nil.
type Deps struct {
	Config  *config.Config
	Repo    repository.ProductRepository
	Checker handlers.Checker
	Counter middleware.Counter
	Metrics *metrics.Metrics
	Logger  *zerolog.Logger
	Version string
}

// NewRouter wires handlers, middleware and routes.
func NewRouter(d Deps) http.Handler {
	log := d.Logger
	gate := auth.NewGate(d.Config.Auth)
	productService := service.NewProductService(d.Repo)

	healthHandler := handlers.NewHealthHandler(d.Checker, d.Version, logger.Named(log, "health"))
	authHandler := handlers.NewAuthHandler(gate, d.Metrics, logger.Named(log, "auth"))
	productLog := logger.Named(log, "products")
	productHandler := handlers.NewProductHandler(productService, productLog)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	// forwarded headers are client controlled unless a proxy overwrites them
	if d.Config.Server.TrustedProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.Logger(logger.Named(log, "http")))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(requestTimeout))
	if d.Metrics != nil {
		r.Use(d.Metrics.Instrument)
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Config.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/", handlers.Welcome)
	r.Get("/health", healthHandler.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.With(middleware.LoginRateLimiter(d.Counter, int64(d.Config.Redis.LoginLimit), d.Metrics, log)).
			Post("/auth/login", handlers.WithError(log, authHandler.Login))

		r.Route("/products", func(r chi.Router) {
			r.Use(middleware.BearerAuth(gate, logger.Named(log, "auth")))

			r.Get("/", handlers.WithError(productLog, productHandler.ListProducts))
			r.Post("/", handlers.WithError(productLog, productHandler.CreateProduct))
			r.Get("/{id}", handlers.WithError(productLog, productHandler.GetProduct))
			r.Put("/{id}", handlers.WithError(productLog, productHandler.UpdateProduct))
			r.Delete("/{id}", handlers.WithError(productLog, productHandler.DeleteProduct))
		})
	})

	return r
}

// NewHTTPServer returns the API listener configured from cfg.
func NewHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	}
}

// NewMetricsServer returns the listener for /metrics.
func NewMetricsServer(addr string, m *metrics.Metrics) *http.Server {
	mux := chi.NewRouter()
	mux.Method(http.MethodGet, "/metrics", m.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

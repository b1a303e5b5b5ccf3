package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/VihaanShah2004/cardwise/internal/catalog"
	"github.com/VihaanShah2004/cardwise/internal/domain"
	"github.com/VihaanShah2004/cardwise/internal/insights"
	"github.com/VihaanShah2004/cardwise/internal/ranker"
	"github.com/VihaanShah2004/cardwise/internal/rules"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, repo domain.Repository, cache domain.Cache, bus domain.EventBus, cat *catalog.Catalog, rk *ranker.Ranker, rulesEngine *rules.Engine, ins *insights.Service, version string) *Server {
	handler := NewHandler(repo, cache, bus, cat, rk, rulesEngine, ins, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for browser clients
	router.Use(RecoverMiddleware)      // Recover from panics
	router.Use(TracingMiddleware)      // OpenTelemetry tracing
	router.Use(LoggingMiddleware)      // Request logging
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression

	// Operational endpoints (no user required)
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)
	router.Handle("/metrics", promhttp.Handler())

	// Catalog is public
	router.Get("/cards", handler.ListCards)
	router.Get("/cards/{id}", handler.GetCard)

	// API routes (user required)
	router.Route("/", func(r chi.Router) {
		r.Use(UserMiddleware)

		// Recommendation
		r.Post("/recommend", handler.Recommend)
		r.Post("/score", handler.Score)
		r.Get("/recommendations/{id}", handler.GetRecommendation)

		// Profile management
		r.Get("/users/cards", handler.ListHoldings)
		r.Post("/users/cards", handler.AddHolding)
		r.Delete("/users/cards/{cardId}", handler.RemoveHolding)
		r.Post("/users/preferences", handler.SetPreferences)
		r.Put("/users/profile", handler.UpdateProfile)
		r.Get("/users/analysis", handler.GetAnalysis)

		// Eligibility rule management
		r.Get("/rules", handler.ListRules)
		r.Post("/rules", handler.CreateRule)
		r.Post("/rules/reload", handler.ReloadRules)
	})

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}

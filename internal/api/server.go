// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jurrian/moviedb/internal/auth"
	"github.com/jurrian/moviedb/internal/config"
	"github.com/jurrian/moviedb/internal/database"
	"github.com/jurrian/moviedb/internal/embedding"
	"github.com/jurrian/moviedb/internal/importer"
	"github.com/jurrian/moviedb/internal/logging"
	"github.com/jurrian/moviedb/internal/middleware"
	"github.com/jurrian/moviedb/internal/search"
)

// Server wires the HTTP surface to the database, the search engine,
// and the import/embedding pipelines.
type Server struct {
	cfg      *config.Config
	db       *database.DB
	engine   *search.Engine
	jwt      *auth.JWTManager
	authMW   *auth.Middleware
	validate *validator.Validate
	jobs     *jobRunner

	imdb    *importer.ImdbImporter
	motn    *importer.MotnImporter
	remote  *importer.RemoteImporter
	builder *embedding.Builder

	httpServer *http.Server
}

// NewServer assembles the API server. jwt may be nil when auth_mode is
// "none".
func NewServer(
	cfg *config.Config,
	db *database.DB,
	engine *search.Engine,
	jwt *auth.JWTManager,
	imdb *importer.ImdbImporter,
	motn *importer.MotnImporter,
	remote *importer.RemoteImporter,
	builder *embedding.Builder,
) *Server {
	s := &Server{
		cfg:      cfg,
		db:       db,
		engine:   engine,
		jwt:      jwt,
		authMW:   auth.NewMiddleware(jwt, cfg.Security.AuthMode == "none"),
		validate: validator.New(),
		jobs:     newJobRunner(),
		imdb:     imdb,
		motn:     motn,
		remote:   remote,
		builder:  builder,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Security.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(httprate.LimitByIP(1000, time.Minute))
		r.Get("/", s.handleHealth)
		r.Get("/live", s.handleHealthLive)
		r.Get("/ready", s.handleHealthReady)
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		// Strict limit against brute force.
		r.With(httprate.LimitByIP(5, 5*time.Minute)).Post("/login", s.handleLogin)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(s.cfg.Security.RateLimitReqs, s.cfg.Security.RateLimitWindow))
		r.Use(middleware.Prometheus)
		r.Use(s.authMW.Authenticate)

		r.Get("/stats", s.handleStats)
		r.Get("/shows", s.handleListShows)
		r.Get("/shows/{id}", s.handleGetShow)
		r.Get("/genres", s.handleListGenres)
		r.Get("/search", s.handleSearch)
		r.Get("/recommendations", s.handleRecommendations)

		r.Get("/interactions", s.handleListInteractions)
		r.Post("/interactions", s.handleUpsertInteraction)
		r.Delete("/interactions/{showID}", s.handleDeleteInteraction)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.authMW.RequireAdmin)
			r.Post("/import/imdb", s.handleImportImdb)
			r.Post("/import/streaming", s.handleImportStreaming)
			r.Post("/embeddings/build", s.handleBuildEmbeddings)
			r.Get("/import/status", s.handleJobStatus)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Start serves HTTP until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	logging.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

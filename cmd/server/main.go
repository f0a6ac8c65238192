// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

// Package main is the entry point for the MovieDB dashboard server.
//
// The server initializes components in the following order:
//
//  1. Configuration: layered load via Koanf v2 (defaults, config.yaml, env)
//  2. Database: DuckDB catalog with versioned migrations
//  3. Cache: BadgerDB store for search response caching
//  4. Embeddings: OpenAI-compatible client behind a circuit breaker
//  5. Search: in-memory vector index plus the recommendation engine
//  6. HTTP API: chi router under a suture supervisor tree
//
// For JWT authentication (default):
//   - SECRET_KEY: 32+ character secret for token signing
//   - ADMIN_USERNAME / ADMIN_PASSWORD: bootstrap admin account
//
// For development without auth:
//
//	export AUTH_MODE=none
//	./moviedb-server
package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/jurrian/moviedb/internal/api"
	"github.com/jurrian/moviedb/internal/auth"
	"github.com/jurrian/moviedb/internal/cache"
	"github.com/jurrian/moviedb/internal/config"
	"github.com/jurrian/moviedb/internal/database"
	"github.com/jurrian/moviedb/internal/embedding"
	"github.com/jurrian/moviedb/internal/importer"
	"github.com/jurrian/moviedb/internal/logging"
	"github.com/jurrian/moviedb/internal/search"
	"github.com/jurrian/moviedb/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("auth_mode", cfg.Security.AuthMode).
		Str("embedding_model", cfg.Embedding.Model).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Bootstrap the admin account. EnsureUser never overwrites an existing
	// password hash, so rotating ADMIN_PASSWORD requires a manual reset.
	var jwtManager *auth.JWTManager
	if cfg.Security.AuthMode == "jwt" {
		jwtManager, err = auth.NewJWTManager(&cfg.Security)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
		}
		hash, err := auth.HashPassword(cfg.Security.AdminPassword)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to hash admin password")
		}
		if _, err := db.EnsureUser(ctx, cfg.Security.AdminUsername, hash, "admin"); err != nil {
			logging.Fatal().Err(err).Msg("Failed to bootstrap admin user")
		}
	} else {
		logging.Warn().Msg("Authentication disabled (AUTH_MODE=none)")
	}

	store, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Cache.Path).Msg("Failed to open cache store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing cache store")
		}
	}()

	embedClient := embedding.NewClient(&cfg.Embedding)

	index := search.NewIndex()
	if err := index.Refresh(ctx, db); err != nil {
		logging.Warn().Err(err).Msg("Initial index load failed, search starts empty")
	} else {
		logging.Info().Int("shows", index.Size()).Msg("Vector index loaded")
	}

	engine := search.NewEngine(db, embedClient, index, store, &cfg.Search, cfg.Cache.SearchTTL)

	server := api.NewServer(cfg, db, engine, jwtManager,
		importer.NewImdbImporter(&cfg.Imdb, db),
		importer.NewMotnImporter(db, cfg.Motn.BatchSize),
		importer.NewRemoteImporter(&cfg.Motn, db),
		embedding.NewBuilder(db, embedClient, cfg.Embedding.BatchSize),
	)

	tree := supervisor.NewTree(supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddAPIService(supervisor.NewHTTPService(server, cfg.Server.ShutdownTimeout))
	tree.AddWorkerService(supervisor.NewRefreshService(func(ctx context.Context) error {
		return index.Refresh(ctx, db)
	}, cfg.Search.IndexRefreshInterval))
	tree.AddWorkerService(supervisor.NewGCService(store.RunGC, 0))

	logging.Info().Msg("Starting MovieDB with supervisor tree")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree exited with error")
	}
	logging.Info().Msg("Shutdown complete")
}

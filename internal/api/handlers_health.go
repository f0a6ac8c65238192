// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jurrian/moviedb/internal/models"
)

// handleHealthLive reports process liveness only.
func (s *Server) handleHealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]string{"status": "alive"}, models.Metadata{})
}

// handleHealthReady reports whether the server can answer queries: the
// database must respond and the vector index must be loaded.
func (s *Server) handleHealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, codeService, "database not reachable")
		return
	}

	respondSuccess(w, http.StatusOK, map[string]any{
		"status":     "ready",
		"index_size": s.engine.Index().Size(),
	}, models.Metadata{})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "up"
	if err := s.db.Ping(ctx); err != nil {
		dbStatus = "down"
	}

	status := http.StatusOK
	if dbStatus == "down" {
		status = http.StatusServiceUnavailable
	}

	respondSuccess(w, status, map[string]any{
		"database":   dbStatus,
		"index_size": s.engine.Index().Size(),
		"version":    "v1",
	}, models.Metadata{QueryTimeMS: elapsedMS(start)})
}

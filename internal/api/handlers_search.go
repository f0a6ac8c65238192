// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jurrian/moviedb/internal/auth"
	"github.com/jurrian/moviedb/internal/embedding"
	"github.com/jurrian/moviedb/internal/logging"
	"github.com/jurrian/moviedb/internal/models"
	"github.com/jurrian/moviedb/internal/search"
)

// handleSearch answers GET /api/v1/search?q=...&limit=N with semantic
// nearest neighbours. When the caller is authenticated and has enough
// history, the query vector is blended with their taste vector.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondError(w, http.StatusBadRequest, codeValidation, "query parameter q is required")
		return
	}
	if len(query) > 500 {
		respondError(w, http.StatusBadRequest, codeValidation, "query too long (max 500 characters)")
		return
	}

	topK := queryInt(r, "limit", s.cfg.Search.TopK)
	if topK < 1 || topK > s.cfg.API.MaxPageSize {
		respondError(w, http.StatusBadRequest, codeValidation, "limit out of range")
		return
	}

	alpha := -1.0
	if raw := r.URL.Query().Get("alpha"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			respondError(w, http.StatusBadRequest, codeValidation, "alpha must be between 0 and 1")
			return
		}
		alpha = parsed
	}

	var userID int64
	if claims := auth.ClaimsFromContext(r.Context()); claims != nil {
		userID = claims.UserID
	}

	results, cached, err := s.engine.Search(r.Context(), query, userID, topK, alpha)
	if err != nil {
		s.respondSearchError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, results, models.Metadata{
		QueryTimeMS: elapsedMS(start),
		Cached:      cached,
	})
}

// handleRecommendations answers GET /api/v1/recommendations?q=...&limit=N
// with personalized, reranked picks for the authenticated user.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, codeAuthentication, "recommendations require a signed-in user")
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	topK := queryInt(r, "limit", s.cfg.Search.TopK)
	if topK < 1 || topK > s.cfg.API.MaxPageSize {
		respondError(w, http.StatusBadRequest, codeValidation, "limit out of range")
		return
	}

	results, err := s.engine.Recommend(r.Context(), claims.UserID, query, topK)
	if err != nil {
		if errors.Is(err, search.ErrNotEnoughHistory) {
			respondError(w, http.StatusConflict, codeConflict,
				"not enough watch history yet, rate a few shows first")
			return
		}
		s.respondSearchError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, results, models.Metadata{QueryTimeMS: elapsedMS(start)})
}

func (s *Server) respondSearchError(w http.ResponseWriter, err error) {
	if errors.Is(err, embedding.ErrNoAPIKey) {
		respondError(w, http.StatusServiceUnavailable, codeService, "embedding service is not configured")
		return
	}
	logging.Error().Err(err).Msg("search failed")
	respondError(w, http.StatusInternalServerError, codeService, "search failed")
}

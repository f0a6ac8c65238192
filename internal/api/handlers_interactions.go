// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jurrian/moviedb/internal/auth"
	"github.com/jurrian/moviedb/internal/database"
	"github.com/jurrian/moviedb/internal/logging"
	"github.com/jurrian/moviedb/internal/models"
)

type interactionRequest struct {
	ShowID          int64      `json:"show_id" validate:"required,min=1"`
	FirstDate       *time.Time `json:"first_date,omitempty"`
	LastDate        *time.Time `json:"last_date,omitempty"`
	ViewedAmount    *int       `json:"viewed_amount,omitempty" validate:"omitempty,min=0"`
	CompletionRatio *float64   `json:"completion_ratio,omitempty" validate:"omitempty,min=0,max=1"`
	Rating          *int       `json:"rating,omitempty" validate:"omitempty,min=0,max=2"`
}

func (s *Server) handleListInteractions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, codeAuthentication, "interactions require a signed-in user")
		return
	}

	interactions, err := s.db.ListInteractions(r.Context(), claims.UserID)
	if err != nil {
		logging.Error().Err(err).Int64("user_id", claims.UserID).Msg("list interactions failed")
		respondError(w, http.StatusInternalServerError, codeDatabase, "failed to list interactions")
		return
	}

	respondSuccess(w, http.StatusOK, interactions, models.Metadata{QueryTimeMS: elapsedMS(start)})
}

// handleUpsertInteraction records or updates a view/rating. Repeated posts
// for the same show merge: the oldest first_date wins, newer non-null
// fields replace older values.
func (s *Server) handleUpsertInteraction(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, codeAuthentication, "interactions require a signed-in user")
		return
	}

	var req interactionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "invalid request body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation,
			"show_id is required; rating must be 0 (down), 1 (up), or 2 (way up)")
		return
	}

	if _, err := s.db.GetShow(r.Context(), req.ShowID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, codeNotFound, "show not found")
			return
		}
		logging.Error().Err(err).Int64("show_id", req.ShowID).Msg("interaction show lookup failed")
		respondError(w, http.StatusInternalServerError, codeDatabase, "failed to save interaction")
		return
	}

	interaction := &models.Interaction{
		UserID:          claims.UserID,
		ShowID:          req.ShowID,
		FirstDate:       req.FirstDate,
		LastDate:        req.LastDate,
		ViewedAmount:    req.ViewedAmount,
		CompletionRatio: req.CompletionRatio,
		Rating:          req.Rating,
	}
	if err := s.db.UpsertInteraction(r.Context(), interaction); err != nil {
		logging.Error().Err(err).Int64("show_id", req.ShowID).Msg("upsert interaction failed")
		respondError(w, http.StatusInternalServerError, codeDatabase, "failed to save interaction")
		return
	}

	// Taste vectors changed; cached search responses may be stale.
	s.engine.InvalidateCache()

	respondSuccess(w, http.StatusOK, interaction, models.Metadata{})
}

func (s *Server) handleDeleteInteraction(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, codeAuthentication, "interactions require a signed-in user")
		return
	}

	showID, err := strconv.ParseInt(chi.URLParam(r, "showID"), 10, 64)
	if err != nil || showID < 1 {
		respondError(w, http.StatusBadRequest, codeValidation, "show id must be a positive integer")
		return
	}

	if err := s.db.DeleteInteraction(r.Context(), claims.UserID, showID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, codeNotFound, "interaction not found")
			return
		}
		logging.Error().Err(err).Int64("show_id", showID).Msg("delete interaction failed")
		respondError(w, http.StatusInternalServerError, codeDatabase, "failed to delete interaction")
		return
	}

	s.engine.InvalidateCache()
	respondSuccess(w, http.StatusOK, map[string]any{"deleted": true, "show_id": showID}, models.Metadata{})
}

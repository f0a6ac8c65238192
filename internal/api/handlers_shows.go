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

	"github.com/jurrian/moviedb/internal/database"
	"github.com/jurrian/moviedb/internal/logging"
	"github.com/jurrian/moviedb/internal/models"
)

// handleListShows returns a catalog page filtered by type, genre, and
// year range.
func (s *Server) handleListShows(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	limit, offset := s.pagination(r)

	filter := database.ShowFilter{
		ShowType: r.URL.Query().Get("type"),
		Genre:    r.URL.Query().Get("genre"),
		MinYear:  queryInt(r, "min_year", 0),
		MaxYear:  queryInt(r, "max_year", 0),
		Limit:    limit,
		Offset:   offset,
	}
	if filter.ShowType != "" && filter.ShowType != "movie" && filter.ShowType != "series" {
		respondError(w, http.StatusBadRequest, codeValidation, "type must be movie or series")
		return
	}

	shows, err := s.db.ListShows(r.Context(), filter)
	if err != nil {
		logging.Error().Err(err).Msg("list shows failed")
		respondError(w, http.StatusInternalServerError, codeDatabase, "failed to list shows")
		return
	}

	respondSuccess(w, http.StatusOK, shows, models.Metadata{QueryTimeMS: elapsedMS(start)})
}

func (s *Server) handleGetShow(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		respondError(w, http.StatusBadRequest, codeValidation, "show id must be a positive integer")
		return
	}

	show, err := s.db.GetShow(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, codeNotFound, "show not found")
			return
		}
		logging.Error().Err(err).Int64("show_id", id).Msg("get show failed")
		respondError(w, http.StatusInternalServerError, codeDatabase, "failed to load show")
		return
	}

	if genres, err := s.db.GenresForShow(r.Context(), id); err == nil && len(genres) > 0 {
		show.Genres = genres
	}

	respondSuccess(w, http.StatusOK, show, models.Metadata{QueryTimeMS: elapsedMS(start)})
}

func (s *Server) handleListGenres(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	genres, err := s.db.ListGenres(r.Context())
	if err != nil {
		logging.Error().Err(err).Msg("list genres failed")
		respondError(w, http.StatusInternalServerError, codeDatabase, "failed to list genres")
		return
	}

	respondSuccess(w, http.StatusOK, genres, models.Metadata{QueryTimeMS: elapsedMS(start)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	stats, err := s.db.GetStats(r.Context())
	if err != nil {
		logging.Error().Err(err).Msg("stats query failed")
		respondError(w, http.StatusInternalServerError, codeDatabase, "failed to load stats")
		return
	}

	respondSuccess(w, http.StatusOK, stats, models.Metadata{QueryTimeMS: elapsedMS(start)})
}

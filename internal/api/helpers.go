// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

// Package api implements the dashboard HTTP surface: catalog browsing,
// semantic search, personalized recommendations, interaction tracking,
// and admin pipeline triggers.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/jurrian/moviedb/internal/logging"
	"github.com/jurrian/moviedb/internal/models"
)

// Error codes used in API responses.
const (
	codeValidation     = "VALIDATION_ERROR"
	codeNotFound       = "NOT_FOUND"
	codeAuthentication = "AUTHENTICATION_ERROR"
	codeDatabase       = "DATABASE_ERROR"
	codeService        = "SERVICE_ERROR"
	codeConflict       = "CONFLICT"
)

func respondSuccess(w http.ResponseWriter, status int, data any, meta models.Metadata) {
	meta.Timestamp = time.Now().UTC()
	writeJSON(w, status, models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: meta,
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error:    &models.APIError{Code: code, Message: message},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error().Err(err).Msg("Failed to encode response")
	}
}

// decodeBody parses a JSON request body into dst, limited to 1MB.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// queryInt reads an integer query parameter, returning def when absent
// or unparseable.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// pagination resolves limit/offset params against configured bounds.
func (s *Server) pagination(r *http.Request) (limit, offset int) {
	limit = queryInt(r, "limit", s.cfg.API.DefaultPageSize)
	if limit <= 0 {
		limit = s.cfg.API.DefaultPageSize
	}
	if limit > s.cfg.API.MaxPageSize {
		limit = s.cfg.API.MaxPageSize
	}
	offset = queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func elapsedMS(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}

// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package models

import "time"

// APIResponse is the standardized response wrapper used by all HTTP
// endpoints.
//
// Status is "success" or "error". Data carries the payload on success;
// Error is populated on failure.
type APIResponse struct {
	Status   string   `json:"status"`
	Data     any      `json:"data"`
	Metadata Metadata `json:"metadata"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError carries structured error details.
//
// Common codes: VALIDATION_ERROR, DATABASE_ERROR, AUTHENTICATION_ERROR,
// NOT_FOUND, RATE_LIMIT_EXCEEDED, SERVICE_ERROR.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// SearchResult is one ranked show in a search or recommendation response.
type SearchResult struct {
	Show *Show `json:"show"`

	// Similarity is the cosine similarity between the (blended) query
	// vector and the show embedding.
	Similarity float64 `json:"similarity"`

	// Score is the reranking score combining similarity, quality priors,
	// genre overlap, and the user's history. Present when a user context
	// was available.
	Score *float64 `json:"score,omitempty"`
}

// Stats summarises the catalog for the dashboard landing page.
type Stats struct {
	TotalShows     int64      `json:"total_shows"`
	EmbeddedShows  int64      `json:"embedded_shows"`
	TotalGenres    int64      `json:"total_genres"`
	TotalImdb      int64      `json:"total_imdb_titles"`
	TotalUsers     int64      `json:"total_users"`
	Interactions   int64      `json:"interactions"`
	LastImportedAt *time.Time `json:"last_imported_at,omitempty"`
}

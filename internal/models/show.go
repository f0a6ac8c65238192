// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

// Package models defines the data structures shared between the database
// layer, the import pipeline, the search engine, and the HTTP API.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Show is a movie or series as returned by the Movie of the Night /
// Streaming Availability API. Key scalar fields are stored explicitly;
// list and map shaped upstream structures are kept as JSON.
type Show struct {
	ID int64 `json:"id"`

	// MotnID is the show identifier used by the Streaming Availability API
	// (often an IMDb or TMDb id).
	MotnID string `json:"motn_id"`

	// SourceID is the identifier of the external streaming source
	// (e.g. the Netflix title number), when one could be derived.
	SourceID *int64 `json:"source_id,omitempty"`

	Title         string `json:"title"`
	OriginalTitle string `json:"original_title,omitempty"`
	Overview      string `json:"overview,omitempty"`

	// ShowType is "movie" or "series".
	ShowType string `json:"show_type,omitempty"`

	Year             *int   `json:"year,omitempty"`
	Runtime          *int   `json:"runtime,omitempty"` // minutes
	AgeCertification string `json:"age_certification,omitempty"`
	SeasonCount      *int   `json:"season_count,omitempty"`
	EpisodeCount     *int   `json:"episode_count,omitempty"`

	ImdbID        string   `json:"imdb_id,omitempty"`
	ImdbRating    *float64 `json:"imdb_rating,omitempty"` // 0-10, two decimals
	ImdbVoteCount *int     `json:"imdb_vote_count,omitempty"`
	TmdbID        *int     `json:"tmdb_id,omitempty"`
	TmdbRating    *float64 `json:"tmdb_rating,omitempty"`

	OriginalLanguage string   `json:"original_language,omitempty"`
	Genres           []string `json:"genres,omitempty"`
	Cast             []string `json:"cast,omitempty"`
	Directors        []string `json:"directors,omitempty"`
	Countries        []string `json:"countries,omitempty"`
	Tags             []string `json:"tags,omitempty"`

	// PosterURLs and BackdropURLs map image size (e.g. "w240", "original")
	// to URL.
	PosterURLs   map[string]string `json:"poster_urls,omitempty"`
	BackdropURLs map[string]string `json:"backdrop_urls,omitempty"`

	// StreamingOptions maps country code to the raw upstream option list.
	StreamingOptions map[string]any `json:"streaming_options,omitempty"`

	// Embedding is the semantic vector for this show, nil until the
	// embedding build has processed it.
	Embedding []float32 `json:"-"`

	// RelevantQueries holds generated judgment queries used by the offline
	// relevance evaluation.
	RelevantQueries []string `json:"relevant_queries,omitempty"`

	AddedAt   time.Time `json:"added_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EmbeddingText builds the canonical text representation used for
// embedding this show. Empty parts are omitted; parts are joined with
// ". " and the result ends with ".".
func (s *Show) EmbeddingText() string {
	showType := s.ShowType
	if showType == "" {
		showType = "series"
	}

	parts := make([]string, 0, 8)
	if s.Year != nil {
		parts = append(parts, fmt.Sprintf("%s (%d) - %s", s.Title, *s.Year, showType))
	} else {
		parts = append(parts, s.Title+" - "+showType)
	}

	if s.OriginalTitle != "" {
		parts = append(parts, "Also known as: "+s.OriginalTitle)
	}
	if len(s.Genres) > 0 {
		parts = append(parts, "Genres: "+strings.Join(s.Genres, ", "))
	}
	if len(s.Countries) > 0 {
		parts = append(parts, "Countries: "+strings.Join(s.Countries, ", "))
	}
	if s.OriginalLanguage != "" {
		parts = append(parts, "Language: "+s.OriginalLanguage)
	}
	if s.AgeCertification != "" {
		parts = append(parts, "Age rating: "+s.AgeCertification)
	}
	if s.Overview != "" {
		parts = append(parts, "Plot: "+s.Overview)
	}

	return strings.Join(parts, ". ") + "."
}

// Genre is a show genre from the streaming availability taxonomy.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

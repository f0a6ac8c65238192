// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package importer

import (
	"testing"
)

func TestMapShow(t *testing.T) {
	raw := map[string]any{
		"id":               "tt0137523",
		"imdbId":           "tt0137523",
		"title":            "Fight Club",
		"originalTitle":    "Fight Club",
		"overview":         "An insomniac office worker...",
		"showType":         "movie",
		"releaseYear":      float64(1999),
		"runtime":          float64(139),
		"imdbRating":       float64(88), // percent scale
		"imdbVoteCount":    float64(2000000),
		"tmdbId":           "movie/550",
		"tmdbRating":       float64(8.4),
		"originalLanguage": "en",
		"genres": []any{
			map[string]any{"id": "drama", "name": "Drama"},
			map[string]any{"name": " Thriller "},
		},
		"cast":      []any{"Brad Pitt", "Edward Norton"},
		"directors": []any{"David Fincher"},
		"imageSet": map[string]any{
			"verticalPoster": map[string]any{"w240": "https://example.com/p.jpg"},
		},
		"streamingOptions": map[string]any{
			"nl": []any{map[string]any{
				"link": "https://www.netflix.com/title/26004747/",
			}},
		},
	}

	show := MapShow(raw)
	if show == nil {
		t.Fatal("MapShow() returned nil")
	}
	if show.MotnID != "tt0137523" || show.Title != "Fight Club" {
		t.Errorf("identity fields: %+v", show)
	}
	if show.Year == nil || *show.Year != 1999 {
		t.Errorf("Year = %v", show.Year)
	}
	if show.ImdbRating == nil || *show.ImdbRating != 8.8 {
		t.Errorf("ImdbRating = %v, want 8.8 (percent scale normalized)", show.ImdbRating)
	}
	if show.TmdbID == nil || *show.TmdbID != 550 {
		t.Errorf("TmdbID = %v, want 550", show.TmdbID)
	}
	if show.SourceID == nil || *show.SourceID != 26004747 {
		t.Errorf("SourceID = %v, want netflix title id 26004747", show.SourceID)
	}
	if len(show.Genres) != 2 || show.Genres[1] != "Thriller" {
		t.Errorf("Genres = %v", show.Genres)
	}
	if show.PosterURLs["w240"] == "" {
		t.Errorf("PosterURLs = %v", show.PosterURLs)
	}
}

func TestMapShowWithoutID(t *testing.T) {
	if MapShow(map[string]any{"title": "No ID"}) != nil {
		t.Error("MapShow() should return nil without an id")
	}
}

func TestMapShowFallbackFields(t *testing.T) {
	raw := map[string]any{
		"id":                "s1",
		"title":             "Series",
		"firstAirYear":      float64(2015),
		"creators":          []any{"Creator One"},
		"ageCertification":  `\N`,
		"advisedMinimumAge": float64(16),
	}
	show := MapShow(raw)
	if show.Year == nil || *show.Year != 2015 {
		t.Errorf("Year = %v, want firstAirYear fallback", show.Year)
	}
	if len(show.Directors) != 1 || show.Directors[0] != "Creator One" {
		t.Errorf("Directors = %v, want creators fallback", show.Directors)
	}
	if show.AgeCertification != "16" {
		t.Errorf("AgeCertification = %q, want advised minimum age fallback", show.AgeCertification)
	}
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want *float64
	}{
		{"nil", nil, nil},
		{"normal", float64(7.5), ptr(7.5)},
		{"percent_scale", float64(83), ptr(8.3)},
		{"string", "6.789", ptr(6.79)},
		{"garbage", "n/a", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseRating(tt.in)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("parseRating(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("parseRating(%v) = %v, want %v", tt.in, *got, *tt.want)
			}
		})
	}
}

func ptr(v float64) *float64 { return &v }

func TestParseTmdbID(t *testing.T) {
	tests := []struct {
		in   any
		want int
		ok   bool
	}{
		{"movie/550", 550, true},
		{"tv/1396", 1396, true},
		{float64(42), 42, true},
		{"no-digits", 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got := parseTmdbID(tt.in)
		if (got != nil) != tt.ok {
			t.Errorf("parseTmdbID(%v) = %v, ok=%v", tt.in, got, tt.ok)
			continue
		}
		if got != nil && *got != tt.want {
			t.Errorf("parseTmdbID(%v) = %d, want %d", tt.in, *got, tt.want)
		}
	}
}

func TestSafeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"tt0137523", "tt0137523"},
		{"Fight Club: Part 2?", "Fight Club Part 2"},
		{"  spaced   out  ", "spaced out"},
	}
	for _, tt := range tests {
		if got := safeFilename(tt.in); got != tt.want {
			t.Errorf("safeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

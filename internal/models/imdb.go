// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package models

// ImdbTitle is a row from the IMDb title.basics dataset.
type ImdbTitle struct {
	ID            int64  `json:"id"`
	ImdbID        string `json:"imdb_id"` // tconst, e.g. "tt0137523"
	Title         string `json:"title"`
	OriginalTitle string `json:"original_title,omitempty"`

	// TitleType is the dataset's titleType column (movie, tvSeries,
	// tvEpisode, short, ...).
	TitleType string `json:"title_type"`

	IsAdult        bool `json:"is_adult"`
	StartYear      int  `json:"start_year"`
	EndYear        *int `json:"end_year,omitempty"`
	RuntimeMinutes *int `json:"runtime_minutes,omitempty"`

	// Genres from the comma-separated genres column. Rows with "\N" get
	// the single genre "Unknown".
	Genres []string `json:"genres"`
}

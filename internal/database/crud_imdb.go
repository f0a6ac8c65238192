// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/jurrian/moviedb/internal/metrics"
	"github.com/jurrian/moviedb/internal/models"
)

// UpsertImdbTitles writes a batch of IMDb dataset rows in one transaction.
// Re-imports replace the metadata of existing tconsts.
func (db *DB) UpsertImdbTitles(ctx context.Context, titles []*models.ImdbTitle) (int, error) {
	if len(titles) == 0 {
		return 0, nil
	}

	start := time.Now()
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO imdb_titles (
			imdb_id, title, original_title, title_type,
			is_adult, start_year, end_year, runtime_minutes, genres
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (imdb_id) DO UPDATE SET
			title = excluded.title,
			original_title = excluded.original_title,
			title_type = excluded.title_type,
			is_adult = excluded.is_adult,
			start_year = excluded.start_year,
			end_year = excluded.end_year,
			runtime_minutes = excluded.runtime_minutes,
			genres = excluded.genres`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare imdb upsert: %w", err)
	}
	defer stmt.Close()

	written := 0
	for _, t := range titles {
		genresJSON, _ := json.Marshal(emptyIfNil(t.Genres))
		if _, err := stmt.ExecContext(ctx,
			t.ImdbID, t.Title, t.OriginalTitle, t.TitleType,
			t.IsAdult, t.StartYear, t.EndYear, t.RuntimeMinutes, string(genresJSON),
		); err != nil {
			metrics.ObserveDBQuery("upsert", "imdb_titles", start, err)
			return written, fmt.Errorf("failed to upsert imdb title %s: %w", t.ImdbID, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return written, fmt.Errorf("failed to commit imdb batch: %w", err)
	}

	metrics.ObserveDBQuery("upsert", "imdb_titles", start, nil)
	return written, nil
}

// GetImdbTitle returns a dataset row by tconst, or ErrNotFound.
func (db *DB) GetImdbTitle(ctx context.Context, imdbID string) (*models.ImdbTitle, error) {
	var (
		t          models.ImdbTitle
		genresJSON string
	)
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, imdb_id, title, original_title, title_type,
		       is_adult, start_year, end_year, runtime_minutes, genres
		FROM imdb_titles WHERE imdb_id = ?`, imdbID).Scan(
		&t.ID, &t.ImdbID, &t.Title, &t.OriginalTitle, &t.TitleType,
		&t.IsAdult, &t.StartYear, &t.EndYear, &t.RuntimeMinutes, &genresJSON)
	if err != nil {
		return nil, ErrNotFound
	}
	_ = json.Unmarshal([]byte(genresJSON), &t.Genres)
	return &t, nil
}

// CountImdbTitles reports the size of the imported IMDb dataset.
func (db *DB) CountImdbTitles(ctx context.Context) (int64, error) {
	var n int64
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM imdb_titles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count imdb titles: %w", err)
	}
	return n, nil
}

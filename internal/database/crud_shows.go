// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/jurrian/moviedb/internal/metrics"
	"github.com/jurrian/moviedb/internal/models"
)

// showColumns is the canonical select list; scanShow must stay in sync.
const showColumns = `id, motn_id, source_id, title, original_title, overview, show_type,
	year, runtime, age_certification, season_count, episode_count,
	imdb_id, imdb_rating, imdb_vote_count, tmdb_id, tmdb_rating,
	original_language, cast_members, directors, countries, tags,
	poster_urls, backdrop_urls, streaming_options, relevant_queries,
	added_at, updated_at`

// UpsertShows writes a batch of shows inside a single transaction.
// Existing rows (matched on motn_id) get their metadata refreshed but keep
// their embedding; genre links are created as needed. Returns the number
// of shows written.
func (db *DB) UpsertShows(ctx context.Context, shows []*models.Show) (int, error) {
	if len(shows) == 0 {
		return 0, nil
	}

	start := time.Now()
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	upsert, err := tx.PrepareContext(ctx, `
		INSERT INTO shows (
			motn_id, source_id, title, original_title, overview, show_type,
			year, runtime, age_certification, season_count, episode_count,
			imdb_id, imdb_rating, imdb_vote_count, tmdb_id, tmdb_rating,
			original_language, cast_members, directors, countries, tags,
			poster_urls, backdrop_urls, streaming_options
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (motn_id) DO UPDATE SET
			source_id = excluded.source_id,
			title = excluded.title,
			original_title = excluded.original_title,
			overview = excluded.overview,
			show_type = excluded.show_type,
			year = excluded.year,
			runtime = excluded.runtime,
			age_certification = excluded.age_certification,
			season_count = excluded.season_count,
			episode_count = excluded.episode_count,
			imdb_id = excluded.imdb_id,
			imdb_rating = excluded.imdb_rating,
			imdb_vote_count = excluded.imdb_vote_count,
			tmdb_id = excluded.tmdb_id,
			tmdb_rating = excluded.tmdb_rating,
			original_language = excluded.original_language,
			cast_members = excluded.cast_members,
			directors = excluded.directors,
			countries = excluded.countries,
			tags = excluded.tags,
			poster_urls = excluded.poster_urls,
			backdrop_urls = excluded.backdrop_urls,
			streaming_options = excluded.streaming_options,
			updated_at = now()`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare show upsert: %w", err)
	}
	defer upsert.Close()

	written := 0
	for _, s := range shows {
		castJSON, _ := json.Marshal(emptyIfNil(s.Cast))
		directorsJSON, _ := json.Marshal(emptyIfNil(s.Directors))
		countriesJSON, _ := json.Marshal(emptyIfNil(s.Countries))
		tagsJSON, _ := json.Marshal(emptyIfNil(s.Tags))
		posterJSON, _ := json.Marshal(emptyMapIfNil(s.PosterURLs))
		backdropJSON, _ := json.Marshal(emptyMapIfNil(s.BackdropURLs))
		streamingJSON, _ := json.Marshal(s.StreamingOptions)

		if _, err := upsert.ExecContext(ctx,
			s.MotnID, s.SourceID, s.Title, s.OriginalTitle, s.Overview, s.ShowType,
			s.Year, s.Runtime, s.AgeCertification, s.SeasonCount, s.EpisodeCount,
			s.ImdbID, s.ImdbRating, s.ImdbVoteCount, s.TmdbID, s.TmdbRating,
			s.OriginalLanguage, string(castJSON), string(directorsJSON),
			string(countriesJSON), string(tagsJSON),
			string(posterJSON), string(backdropJSON), string(streamingJSON),
		); err != nil {
			metrics.ObserveDBQuery("upsert", "shows", start, err)
			return written, fmt.Errorf("failed to upsert show %s: %w", s.MotnID, err)
		}
		written++
	}

	if err := db.linkGenresTx(ctx, tx, shows); err != nil {
		return written, err
	}

	if err := tx.Commit(); err != nil {
		return written, fmt.Errorf("failed to commit show batch: %w", err)
	}

	metrics.ObserveDBQuery("upsert", "shows", start, nil)
	return written, nil
}

// linkGenresTx ensures genre rows exist and links them to the batch's shows.
func (db *DB) linkGenresTx(ctx context.Context, tx *sql.Tx, shows []*models.Show) error {
	names := make(map[string]struct{})
	for _, s := range shows {
		for _, g := range s.Genres {
			if g = strings.TrimSpace(g); g != "" {
				names[g] = struct{}{}
			}
		}
	}
	if len(names) == 0 {
		return nil
	}

	for name := range names {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO genres (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, name); err != nil {
			return fmt.Errorf("failed to upsert genre %q: %w", name, err)
		}
	}

	for _, s := range shows {
		for _, g := range s.Genres {
			if g = strings.TrimSpace(g); g == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO show_genres (show_id, genre_id)
				SELECT s.id, g.id FROM shows s, genres g
				WHERE s.motn_id = ? AND g.name = ?
				ON CONFLICT DO NOTHING`, s.MotnID, g); err != nil {
				return fmt.Errorf("failed to link genre %q to %s: %w", g, s.MotnID, err)
			}
		}
	}

	return nil
}

// GetShow returns a show by its primary key.
func (db *DB) GetShow(ctx context.Context, id int64) (*models.Show, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+showColumns+` FROM shows WHERE id = ?`, id)
	return scanShow(row)
}

// GetShowByMotnID returns a show by its streaming availability identifier.
func (db *DB) GetShowByMotnID(ctx context.Context, motnID string) (*models.Show, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+showColumns+` FROM shows WHERE motn_id = ?`, motnID)
	return scanShow(row)
}

// ShowFilter restricts ListShows results.
type ShowFilter struct {
	ShowType string // "movie" or "series"
	Genre    string
	MinYear  int
	MaxYear  int
	Limit    int
	Offset   int
}

// ListShows returns catalog pages ordered by year descending then title.
func (db *DB) ListShows(ctx context.Context, filter ShowFilter) ([]*models.Show, error) {
	start := time.Now()

	var (
		conds []string
		args  []any
	)
	if filter.ShowType != "" {
		conds = append(conds, "lower(show_type) = lower(?)")
		args = append(args, filter.ShowType)
	}
	if filter.Genre != "" {
		conds = append(conds, `id IN (
			SELECT sg.show_id FROM show_genres sg
			JOIN genres g ON g.id = sg.genre_id
			WHERE lower(g.name) = lower(?))`)
		args = append(args, filter.Genre)
	}
	if filter.MinYear > 0 {
		conds = append(conds, "year >= ?")
		args = append(args, filter.MinYear)
	}
	if filter.MaxYear > 0 {
		conds = append(conds, "year <= ?")
		args = append(args, filter.MaxYear)
	}

	query := `SELECT ` + showColumns + ` FROM shows`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY year DESC NULLS LAST, title LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		metrics.ObserveDBQuery("list", "shows", start, err)
		return nil, fmt.Errorf("failed to list shows: %w", err)
	}
	defer rows.Close()

	var shows []*models.Show
	for rows.Next() {
		s, err := scanShow(rows)
		if err != nil {
			return nil, err
		}
		shows = append(shows, s)
	}

	metrics.ObserveDBQuery("list", "shows", start, rows.Err())
	return shows, rows.Err()
}

// ListGenres returns all genres ordered by name.
func (db *DB) ListGenres(ctx context.Context) ([]models.Genre, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name FROM genres ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	defer rows.Close()

	var genres []models.Genre
	for rows.Next() {
		var g models.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("failed to scan genre: %w", err)
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

// GenresForShow returns the genre names linked to a show.
func (db *DB) GenresForShow(ctx context.Context, showID int64) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT g.name FROM genres g
		JOIN show_genres sg ON sg.genre_id = g.id
		WHERE sg.show_id = ? ORDER BY g.name`, showID)
	if err != nil {
		return nil, fmt.Errorf("failed to query show genres: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// SetRelevantQueries stores generated judgment queries for a show.
func (db *DB) SetRelevantQueries(ctx context.Context, showID int64, queries []string) error {
	data, err := json.Marshal(emptyIfNil(queries))
	if err != nil {
		return fmt.Errorf("failed to marshal queries: %w", err)
	}
	_, err = db.conn.ExecContext(ctx,
		`UPDATE shows SET relevant_queries = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(data), showID)
	if err != nil {
		return fmt.Errorf("failed to set relevant queries: %w", err)
	}
	return nil
}

// ShowsNeedingQueries returns a random sample of shows that have an
// overview but no judgment queries yet. limit <= 0 returns all of them.
func (db *DB) ShowsNeedingQueries(ctx context.Context, limit int) ([]*models.Show, error) {
	query := `SELECT ` + showColumns + ` FROM shows
	 WHERE relevant_queries = '[]' AND overview != ''
	 ORDER BY random()`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list query candidates: %w", err)
	}
	defer rows.Close()

	var shows []*models.Show
	for rows.Next() {
		s, err := scanShow(rows)
		if err != nil {
			return nil, err
		}
		shows = append(shows, s)
	}
	return shows, rows.Err()
}

// CountShowsWithRelevantQueries reports how many shows already carry
// judgment queries.
func (db *DB) CountShowsWithRelevantQueries(ctx context.Context) (int64, error) {
	var n int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM shows WHERE relevant_queries != '[]'`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count judged shows: %w", err)
	}
	return n, nil
}

// ListShowsWithRelevantQueries returns shows carrying judgment queries,
// for the offline evaluation harness. limit <= 0 returns all of them.
func (db *DB) ListShowsWithRelevantQueries(ctx context.Context, limit int) ([]*models.Show, error) {
	query := `SELECT ` + showColumns + ` FROM shows WHERE relevant_queries != '[]'`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluation shows: %w", err)
	}
	defer rows.Close()

	var shows []*models.Show
	for rows.Next() {
		s, err := scanShow(rows)
		if err != nil {
			return nil, err
		}
		shows = append(shows, s)
	}
	return shows, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanShow(row rowScanner) (*models.Show, error) {
	var (
		s                models.Show
		sourceID         sql.NullInt64
		year             sql.NullInt32
		runtime          sql.NullInt32
		seasonCount      sql.NullInt32
		episodeCount     sql.NullInt32
		imdbRating       sql.NullFloat64
		imdbVoteCount    sql.NullInt32
		tmdbID           sql.NullInt32
		tmdbRating       sql.NullFloat64
		castJSON         string
		directorsJSON    string
		countriesJSON    string
		tagsJSON         string
		posterJSON       string
		backdropJSON     string
		streamingJSON    string
		relevantJSON     string
	)

	err := row.Scan(
		&s.ID, &s.MotnID, &sourceID, &s.Title, &s.OriginalTitle, &s.Overview, &s.ShowType,
		&year, &runtime, &s.AgeCertification, &seasonCount, &episodeCount,
		&s.ImdbID, &imdbRating, &imdbVoteCount, &tmdbID, &tmdbRating,
		&s.OriginalLanguage, &castJSON, &directorsJSON, &countriesJSON, &tagsJSON,
		&posterJSON, &backdropJSON, &streamingJSON, &relevantJSON,
		&s.AddedAt, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan show: %w", err)
	}

	if sourceID.Valid {
		s.SourceID = &sourceID.Int64
	}
	s.Year = int32Ptr(year)
	s.Runtime = int32Ptr(runtime)
	s.SeasonCount = int32Ptr(seasonCount)
	s.EpisodeCount = int32Ptr(episodeCount)
	s.ImdbVoteCount = int32Ptr(imdbVoteCount)
	s.TmdbID = int32Ptr(tmdbID)
	if imdbRating.Valid {
		s.ImdbRating = &imdbRating.Float64
	}
	if tmdbRating.Valid {
		s.TmdbRating = &tmdbRating.Float64
	}

	_ = json.Unmarshal([]byte(castJSON), &s.Cast)
	_ = json.Unmarshal([]byte(directorsJSON), &s.Directors)
	_ = json.Unmarshal([]byte(countriesJSON), &s.Countries)
	_ = json.Unmarshal([]byte(tagsJSON), &s.Tags)
	_ = json.Unmarshal([]byte(posterJSON), &s.PosterURLs)
	_ = json.Unmarshal([]byte(backdropJSON), &s.BackdropURLs)
	_ = json.Unmarshal([]byte(streamingJSON), &s.StreamingOptions)
	_ = json.Unmarshal([]byte(relevantJSON), &s.RelevantQueries)

	return &s, nil
}

func int32Ptr(v sql.NullInt32) *int {
	if !v.Valid {
		return nil
	}
	val := int(v.Int32)
	return &val
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func emptyMapIfNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

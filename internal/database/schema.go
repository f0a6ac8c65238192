// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package database

import (
	"fmt"
)

// createSchema creates the core tables and indexes. All statements are
// idempotent (IF NOT EXISTS) so startup is safe on existing databases;
// incremental changes go through the versioned migrations instead.
func (db *DB) createSchema() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_shows_id START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_genres_id START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_imdb_id START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_users_id START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_interactions_id START 1`,

		// Streaming availability shows. List/map shaped upstream fields
		// are stored as JSON text; the embedding is float32 little-endian
		// bytes (see crud_embeddings.go).
		`CREATE TABLE IF NOT EXISTS shows (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_shows_id'),
			motn_id TEXT NOT NULL UNIQUE,
			source_id BIGINT,
			title TEXT NOT NULL,
			original_title TEXT NOT NULL DEFAULT '',
			overview TEXT NOT NULL DEFAULT '',
			show_type TEXT NOT NULL DEFAULT '',
			year INTEGER,
			runtime INTEGER,
			age_certification TEXT NOT NULL DEFAULT '',
			season_count SMALLINT,
			episode_count SMALLINT,
			imdb_id TEXT NOT NULL DEFAULT '',
			imdb_rating DOUBLE,
			imdb_vote_count INTEGER,
			tmdb_id INTEGER,
			tmdb_rating DOUBLE,
			original_language TEXT NOT NULL DEFAULT '',
			cast_members TEXT NOT NULL DEFAULT '[]',
			directors TEXT NOT NULL DEFAULT '[]',
			countries TEXT NOT NULL DEFAULT '[]',
			tags TEXT NOT NULL DEFAULT '[]',
			poster_urls TEXT NOT NULL DEFAULT '{}',
			backdrop_urls TEXT NOT NULL DEFAULT '{}',
			streaming_options TEXT NOT NULL DEFAULT '{}',
			embedding BLOB,
			relevant_queries TEXT NOT NULL DEFAULT '[]',
			added_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS genres (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_genres_id'),
			name TEXT NOT NULL UNIQUE
		)`,

		`CREATE TABLE IF NOT EXISTS show_genres (
			show_id BIGINT NOT NULL,
			genre_id BIGINT NOT NULL,
			PRIMARY KEY (show_id, genre_id)
		)`,

		// IMDb title.basics rows. Genres are denormalized to a JSON list;
		// the catalog is read-only reference data joined by imdb_id.
		`CREATE TABLE IF NOT EXISTS imdb_titles (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_imdb_id'),
			imdb_id TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			original_title TEXT NOT NULL DEFAULT '',
			title_type TEXT NOT NULL,
			is_adult BOOLEAN NOT NULL DEFAULT FALSE,
			start_year INTEGER NOT NULL DEFAULT 0,
			end_year INTEGER,
			runtime_minutes INTEGER,
			genres TEXT NOT NULL DEFAULT '[]'
		)`,

		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_users_id'),
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS interactions (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_interactions_id'),
			user_id BIGINT NOT NULL,
			show_id BIGINT NOT NULL,
			first_date DATE,
			last_date DATE,
			viewed_amount SMALLINT,
			completion_ratio DOUBLE,
			rating INTEGER,
			UNIQUE (user_id, show_id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_shows_imdb_id ON shows (imdb_id)`,
		`CREATE INDEX IF NOT EXISTS idx_shows_tmdb_id ON shows (tmdb_id)`,
		`CREATE INDEX IF NOT EXISTS idx_shows_type_year ON shows (show_type, year)`,
		`CREATE INDEX IF NOT EXISTS idx_imdb_titles_imdb_id ON imdb_titles (imdb_id)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_user ON interactions (user_id)`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jurrian/moviedb/internal/metrics"
	"github.com/jurrian/moviedb/internal/models"
)

// UpsertInteraction records or updates a user's view state for one show.
// A repeated view merges into the existing (user, show) row.
func (db *DB) UpsertInteraction(ctx context.Context, in *models.Interaction) error {
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO interactions (
			user_id, show_id, first_date, last_date,
			viewed_amount, completion_ratio, rating
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, show_id) DO UPDATE SET
			first_date = coalesce(interactions.first_date, excluded.first_date),
			last_date = coalesce(excluded.last_date, interactions.last_date),
			viewed_amount = coalesce(excluded.viewed_amount, interactions.viewed_amount),
			completion_ratio = coalesce(excluded.completion_ratio, interactions.completion_ratio),
			rating = coalesce(excluded.rating, interactions.rating)`,
		in.UserID, in.ShowID, in.FirstDate, in.LastDate,
		in.ViewedAmount, in.CompletionRatio, in.Rating)
	metrics.ObserveDBQuery("upsert", "interactions", start, err)
	if err != nil {
		return fmt.Errorf("failed to upsert interaction: %w", err)
	}
	return nil
}

// SetRating updates only the thumbs rating of an existing (user, show) pair,
// creating the interaction row if the user never watched the show.
func (db *DB) SetRating(ctx context.Context, userID, showID int64, rating int) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO interactions (user_id, show_id, rating) VALUES (?, ?, ?)
		ON CONFLICT (user_id, show_id) DO UPDATE SET rating = excluded.rating`,
		userID, showID, rating)
	if err != nil {
		return fmt.Errorf("failed to set rating: %w", err)
	}
	return nil
}

// DeleteInteraction removes a user's interaction for one show.
func (db *DB) DeleteInteraction(ctx context.Context, userID, showID int64) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM interactions WHERE user_id = ? AND show_id = ?`, userID, showID)
	if err != nil {
		return fmt.Errorf("failed to delete interaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListInteractions returns all of a user's interactions, most recent first.
func (db *DB) ListInteractions(ctx context.Context, userID int64) ([]*models.Interaction, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, user_id, show_id, first_date, last_date,
		       viewed_amount, completion_ratio, rating
		FROM interactions WHERE user_id = ?
		ORDER BY last_date DESC NULLS LAST, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	defer rows.Close()

	var out []*models.Interaction
	for rows.Next() {
		var in models.Interaction
		if err := rows.Scan(&in.ID, &in.UserID, &in.ShowID, &in.FirstDate, &in.LastDate,
			&in.ViewedAmount, &in.CompletionRatio, &in.Rating); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		out = append(out, &in)
	}
	return out, rows.Err()
}

// ListEmbeddedInteractions returns a user's interactions restricted to shows
// that already carry an embedding, paired with those vectors. The taste
// profile builder only works with embedded shows.
func (db *DB) ListEmbeddedInteractions(ctx context.Context, userID int64) ([]EmbeddedInteraction, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT i.id, i.user_id, i.show_id, i.first_date, i.last_date,
		       i.viewed_amount, i.completion_ratio, i.rating, s.embedding
		FROM interactions i
		JOIN shows s ON s.id = i.show_id
		WHERE i.user_id = ? AND s.embedding IS NOT NULL`, userID)
	if err != nil {
		metrics.ObserveDBQuery("list", "interactions", start, err)
		return nil, fmt.Errorf("failed to list embedded interactions: %w", err)
	}
	defer rows.Close()

	var out []EmbeddedInteraction
	for rows.Next() {
		var (
			item EmbeddedInteraction
			blob []byte
		)
		in := &item.Interaction
		if err := rows.Scan(&in.ID, &in.UserID, &in.ShowID, &in.FirstDate, &in.LastDate,
			&in.ViewedAmount, &in.CompletionRatio, &in.Rating, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan embedded interaction: %w", err)
		}
		if item.Embedding, err = DecodeVector(blob); err != nil {
			return nil, fmt.Errorf("show %d: %w", in.ShowID, err)
		}
		out = append(out, item)
	}

	metrics.ObserveDBQuery("list", "interactions", start, rows.Err())
	return out, rows.Err()
}

// WatchedShowIDs returns the set of show ids a user has interactions for.
func (db *DB) WatchedShowIDs(ctx context.Context, userID int64) (map[int64]struct{}, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT show_id FROM interactions WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watched shows: %w", err)
	}
	defer rows.Close()

	watched := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		watched[id] = struct{}{}
	}
	return watched, rows.Err()
}

// RatingsByShow returns a user's thumbs ratings keyed by show id. Unrated
// interactions are omitted.
func (db *DB) RatingsByShow(ctx context.Context, userID int64) (map[int64]int, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT show_id, rating FROM interactions WHERE user_id = ? AND rating IS NOT NULL`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	ratings := make(map[int64]int)
	for rows.Next() {
		var (
			id     int64
			rating int
		)
		if err := rows.Scan(&id, &rating); err != nil {
			return nil, err
		}
		ratings[id] = rating
	}
	return ratings, rows.Err()
}

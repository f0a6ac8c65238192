// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jurrian/moviedb/internal/metrics"
	"github.com/jurrian/moviedb/internal/models"
)

// GetStats collects catalog counters for the stats endpoint.
func (db *DB) GetStats(ctx context.Context) (*models.Stats, error) {
	start := time.Now()
	var (
		stats        models.Stats
		lastImported sql.NullTime
	)

	err := db.conn.QueryRowContext(ctx, `
		SELECT
			(SELECT count(*) FROM shows),
			(SELECT count(*) FROM shows WHERE embedding IS NOT NULL),
			(SELECT count(*) FROM genres),
			(SELECT count(*) FROM imdb_titles),
			(SELECT count(*) FROM users),
			(SELECT count(*) FROM interactions),
			(SELECT max(updated_at) FROM shows)`).Scan(
		&stats.TotalShows, &stats.EmbeddedShows, &stats.TotalGenres,
		&stats.TotalImdb, &stats.TotalUsers, &stats.Interactions, &lastImported)
	metrics.ObserveDBQuery("stats", "shows", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to collect stats: %w", err)
	}

	if lastImported.Valid {
		stats.LastImportedAt = &lastImported.Time
	}
	return &stats, nil
}

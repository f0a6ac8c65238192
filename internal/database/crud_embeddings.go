// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package database

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jurrian/moviedb/internal/metrics"
	"github.com/jurrian/moviedb/internal/models"
)

// EncodeVector packs a float32 vector into a little-endian blob.
func EncodeVector(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

// DecodeVector unpacks a little-endian blob into a float32 vector.
func DecodeVector(buf []byte) ([]float32, error) {
	if len(buf) == 0 {
		return nil, nil
	}
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("invalid vector blob length %d", len(buf))
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return vec, nil
}

// EmbeddingCandidate is a show awaiting an embedding.
type EmbeddingCandidate struct {
	ID   int64
	Text string
}

// ShowsNeedingEmbedding returns shows without an embedding, oldest first.
// Shows without an overview are excluded; their embedding text carries too
// little signal to be worth an API call.
func (db *DB) ShowsNeedingEmbedding(ctx context.Context, limit, offset int) ([]EmbeddingCandidate, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+showColumns+` FROM shows
		 WHERE embedding IS NULL AND overview != ''
		 ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query embedding candidates: %w", err)
	}
	defer rows.Close()

	var candidates []EmbeddingCandidate
	for rows.Next() {
		s, err := scanShow(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, EmbeddingCandidate{ID: s.ID, Text: s.EmbeddingText()})
	}
	return candidates, rows.Err()
}

// CountShowsNeedingEmbedding reports how many shows still lack an embedding.
func (db *DB) CountShowsNeedingEmbedding(ctx context.Context) (int64, error) {
	var n int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM shows WHERE embedding IS NULL AND overview != ''`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count embedding candidates: %w", err)
	}
	return n, nil
}

// UpdateEmbeddings stores vectors for a batch of shows in one transaction.
func (db *DB) UpdateEmbeddings(ctx context.Context, ids []int64, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("id/vector count mismatch: %d vs %d", len(ids), len(vectors))
	}
	if len(ids) == 0 {
		return nil
	}

	start := time.Now()
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE shows SET embedding = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare embedding update: %w", err)
	}
	defer stmt.Close()

	for i, id := range ids {
		if _, err := stmt.ExecContext(ctx, EncodeVector(vectors[i]), id); err != nil {
			metrics.ObserveDBQuery("update", "shows", start, err)
			return fmt.Errorf("failed to store embedding for show %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit embedding batch: %w", err)
	}
	metrics.ObserveDBQuery("update", "shows", start, nil)
	return nil
}

// IndexedShow is the slice of show state the vector index needs.
type IndexedShow struct {
	ID         int64
	Embedding  []float32
	ImdbRating float64  // 0 when unknown
	Genres     []string
}

// LoadEmbeddings streams all embedded shows for building the in-memory
// vector index. Genre names are aggregated per show in a single pass.
func (db *DB) LoadEmbeddings(ctx context.Context) ([]IndexedShow, error) {
	start := time.Now()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT s.id, s.embedding, coalesce(s.imdb_rating, 0),
		       coalesce(string_agg(g.name, ','), '')
		FROM shows s
		LEFT JOIN show_genres sg ON sg.show_id = s.id
		LEFT JOIN genres g ON g.id = sg.genre_id
		WHERE s.embedding IS NOT NULL
		GROUP BY s.id, s.embedding, s.imdb_rating`)
	if err != nil {
		metrics.ObserveDBQuery("load_embeddings", "shows", start, err)
		return nil, fmt.Errorf("failed to load embeddings: %w", err)
	}
	defer rows.Close()

	var out []IndexedShow
	for rows.Next() {
		var (
			item   IndexedShow
			blob   []byte
			genres string
		)
		if err := rows.Scan(&item.ID, &blob, &item.ImdbRating, &genres); err != nil {
			return nil, fmt.Errorf("failed to scan embedded show: %w", err)
		}
		if item.Embedding, err = DecodeVector(blob); err != nil {
			return nil, fmt.Errorf("show %d: %w", item.ID, err)
		}
		if genres != "" {
			item.Genres = splitCSV(genres)
		}
		out = append(out, item)
	}

	metrics.ObserveDBQuery("load_embeddings", "shows", start, rows.Err())
	return out, rows.Err()
}

// GetEmbedding returns the stored vector for one show, or ErrNotFound.
func (db *DB) GetEmbedding(ctx context.Context, showID int64) ([]float32, error) {
	var blob []byte
	err := db.conn.QueryRowContext(ctx,
		`SELECT embedding FROM shows WHERE id = ? AND embedding IS NOT NULL`, showID).Scan(&blob)
	if err != nil {
		return nil, ErrNotFound
	}
	return DecodeVector(blob)
}

// EmbeddedInteraction pairs an interaction with its show's vector, for
// building user taste profiles.
type EmbeddedInteraction struct {
	Interaction models.Interaction
	Embedding   []float32
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/jurrian/moviedb/internal/database"
	"github.com/jurrian/moviedb/internal/logging"
)

// Embedder is the vector provider the builder drives. Satisfied by *Client.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Builder embeds every show that does not have a vector yet.
type Builder struct {
	db        *database.DB
	client    Embedder
	batchSize int
}

// NewBuilder creates a builder over the given store and embedder.
func NewBuilder(db *database.DB, client Embedder, batchSize int) *Builder {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &Builder{db: db, client: client, batchSize: batchSize}
}

// Result summarizes one build run.
type Result struct {
	Embedded int           `json:"embedded"`
	Skipped  int64         `json:"skipped"`
	Duration time.Duration `json:"-"`
}

// Run embeds pending shows batch by batch until none remain, limit is
// reached, or the context is cancelled. limit <= 0 means no limit; offset
// skips the first pending shows, leaving them for a later run.
func (b *Builder) Run(ctx context.Context, limit, offset int) (*Result, error) {
	start := time.Now()
	result := &Result{}
	if offset < 0 {
		offset = 0
	}

	pending, err := b.db.CountShowsNeedingEmbedding(ctx)
	if err != nil {
		return nil, err
	}
	logging.Info().Int64("pending", pending).Int("batch_size", b.batchSize).Msg("Starting embedding build")

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		batch := b.batchSize
		if limit > 0 && limit-result.Embedded < batch {
			batch = limit - result.Embedded
		}
		if batch <= 0 {
			break
		}

		candidates, err := b.db.ShowsNeedingEmbedding(ctx, batch, offset)
		if err != nil {
			return result, err
		}
		if len(candidates) == 0 {
			break
		}

		texts := make([]string, len(candidates))
		ids := make([]int64, len(candidates))
		for i, c := range candidates {
			texts[i] = c.Text
			ids[i] = c.ID
		}

		vectors, err := b.client.Embed(ctx, texts)
		if err != nil {
			return result, fmt.Errorf("embedding batch failed after %d shows: %w", result.Embedded, err)
		}
		if err := b.db.UpdateEmbeddings(ctx, ids, vectors); err != nil {
			return result, err
		}

		result.Embedded += len(candidates)
		logging.Debug().Int("embedded", result.Embedded).Msg("Embedding batch stored")
	}

	result.Skipped, err = b.db.CountShowsNeedingEmbedding(ctx)
	if err != nil {
		return result, err
	}
	result.Duration = time.Since(start)

	logging.Info().
		Int("embedded", result.Embedded).
		Int64("remaining", result.Skipped).
		Dur("duration", result.Duration).
		Msg("Embedding build finished")
	return result, nil
}

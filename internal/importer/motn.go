// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package importer

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/jurrian/moviedb/internal/database"
	"github.com/jurrian/moviedb/internal/logging"
	"github.com/jurrian/moviedb/internal/metrics"
	"github.com/jurrian/moviedb/internal/models"
)

// MotnImporter loads Streaming Availability catalog snapshots into the
// database in batches.
type MotnImporter struct {
	db        *database.DB
	batchSize int
}

// NewMotnImporter creates an importer writing batches of batchSize shows.
func NewMotnImporter(db *database.DB, batchSize int) *MotnImporter {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &MotnImporter{db: db, batchSize: batchSize}
}

// ImportResult summarizes one import run.
type ImportResult struct {
	Processed int           `json:"processed"`
	Written   int           `json:"written"`
	Skipped   int           `json:"skipped"`
	Duration  time.Duration `json:"-"`
}

// ImportFile reads a gzipped JSON-lines snapshot (one raw API show per
// line) and upserts the catalog. Blank lines are ignored; objects
// without an id are counted as skipped.
func (imp *MotnImporter) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot %s: %w", path, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s is not valid gzip: %w", path, err)
	}
	defer gz.Close()

	start := time.Now()
	result := &ImportResult{}
	batch := make([]*models.Show, 0, imp.batchSize)

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		result.Processed++
		metrics.ImportRowsProcessed.WithLabelValues("motn").Inc()

		var raw map[string]any
		if err := json.Unmarshal(line, &raw); err != nil {
			metrics.ImportErrors.WithLabelValues("motn", "parse").Inc()
			logging.Warn().Err(err).Int("line", result.Processed).Msg("Skipping malformed snapshot line")
			result.Skipped++
			continue
		}

		show := MapShow(raw)
		if show == nil {
			result.Skipped++
			continue
		}
		batch = append(batch, show)

		if len(batch) >= imp.batchSize {
			if err := imp.flush(ctx, &batch, result); err != nil {
				return result, err
			}
		}
		if result.Processed%5000 == 0 {
			logging.Info().Int("processed", result.Processed).Msg("Streaming catalog import progress")
		}
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}

	if err := imp.flush(ctx, &batch, result); err != nil {
		return result, err
	}

	result.Duration = time.Since(start)
	logging.Info().
		Int("processed", result.Processed).
		Int("written", result.Written).
		Int("skipped", result.Skipped).
		Dur("duration", result.Duration).
		Msg("Streaming catalog import finished")
	return result, nil
}

func (imp *MotnImporter) flush(ctx context.Context, batch *[]*models.Show, result *ImportResult) error {
	if len(*batch) == 0 {
		return nil
	}
	written, err := imp.db.UpsertShows(ctx, *batch)
	result.Written += written
	metrics.ImportRowsWritten.WithLabelValues("motn").Add(float64(written))
	if err != nil {
		metrics.ImportErrors.WithLabelValues("motn", "database").Inc()
		return fmt.Errorf("failed to flush show batch: %w", err)
	}
	*batch = (*batch)[:0]
	return nil
}

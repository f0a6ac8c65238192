// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package importer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/jurrian/moviedb/internal/config"
	"github.com/jurrian/moviedb/internal/database"
	"github.com/jurrian/moviedb/internal/logging"
	"github.com/jurrian/moviedb/internal/metrics"
	"github.com/jurrian/moviedb/internal/models"
)

// searchPage is one page of the filtered shows search response.
type searchPage struct {
	Shows      []map[string]any `json:"shows"`
	HasMore    bool             `json:"hasMore"`
	NextCursor string           `json:"nextCursor"`
}

// RemoteImporter pulls the full filtered catalog from the Streaming
// Availability API, writing raw per-show snapshots alongside the
// database import so runs can be replayed offline.
type RemoteImporter struct {
	cfg        *config.MotnConfig
	db         *database.DB
	httpClient *http.Client
	limiter    *rate.Limiter
	cb         *gobreaker.CircuitBreaker[*searchPage]
	batchSize  int
}

// NewRemoteImporter creates a remote catalog importer.
func NewRemoteImporter(cfg *config.MotnConfig, db *database.DB) *RemoteImporter {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	cb := gobreaker.NewCircuitBreaker[*searchPage](gobreaker.Settings{
		Name:        "streaming-availability-api",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Catalog API circuit breaker state change")
		},
	})

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 500
	}

	return &RemoteImporter{
		cfg:        cfg,
		db:         db,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		cb:         cb,
		batchSize:  batchSize,
	}
}

// Run walks the paginated catalog until the API reports no more pages.
func (r *RemoteImporter) Run(ctx context.Context) (*ImportResult, error) {
	if r.cfg.APIKey == "" {
		return nil, fmt.Errorf("streaming availability API key not configured")
	}
	if r.cfg.SnapshotDir != "" {
		if err := os.MkdirAll(r.cfg.SnapshotDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create snapshot dir: %w", err)
		}
	}

	start := time.Now()
	result := &ImportResult{}
	batch := make([]*models.Show, 0, r.batchSize)
	cursor := ""

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := r.limiter.Wait(ctx); err != nil {
			return result, err
		}

		page, err := r.cb.Execute(func() (*searchPage, error) {
			return r.fetchPage(ctx, cursor)
		})
		if err != nil {
			metrics.ImportErrors.WithLabelValues("motn", "remote").Inc()
			return result, fmt.Errorf("catalog page fetch failed: %w", err)
		}

		for _, raw := range page.Shows {
			result.Processed++
			metrics.ImportRowsProcessed.WithLabelValues("motn").Inc()

			r.writeSnapshot(raw)

			show := MapShow(raw)
			if show == nil {
				result.Skipped++
				continue
			}
			batch = append(batch, show)

			if len(batch) >= r.batchSize {
				if err := r.flush(ctx, &batch, result); err != nil {
					return result, err
				}
			}
		}

		logging.Info().Int("processed", result.Processed).Bool("has_more", page.HasMore).Msg("Catalog page imported")
		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}

	if err := r.flush(ctx, &batch, result); err != nil {
		return result, err
	}

	result.Duration = time.Since(start)
	logging.Info().
		Int("processed", result.Processed).
		Int("written", result.Written).
		Dur("duration", result.Duration).
		Msg("Remote catalog import finished")
	return result, nil
}

func (r *RemoteImporter) fetchPage(ctx context.Context, cursor string) (*searchPage, error) {
	orderBy := r.cfg.OrderBy
	if orderBy == "" {
		orderBy = "release_date"
	}
	orderDirection := r.cfg.OrderDirection
	if orderDirection == "" {
		orderDirection = "desc"
	}
	params := url.Values{
		"country":            {r.cfg.Country},
		"catalogs":           {r.cfg.Catalog},
		"series_granularity": {"show"},
		"order_by":           {orderBy},
		"order_direction":    {orderDirection},
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	endpoint := r.cfg.BaseURL + "/shows/search/filters?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}
	req.Header.Set("x-rapidapi-key", r.cfg.APIKey)
	req.Header.Set("x-rapidapi-host", r.cfg.Host)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog API returned %d", resp.StatusCode)
	}

	var page searchPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode catalog page: %w", err)
	}
	return &page, nil
}

// writeSnapshot saves the raw API object under "<id> <title>.json" for
// offline replay. Snapshot failures are logged, never fatal.
func (r *RemoteImporter) writeSnapshot(raw map[string]any) {
	if r.cfg.SnapshotDir == "" {
		return
	}

	id := stringField(raw, "imdbId")
	if id == "" {
		id = stringField(raw, "id")
	}
	if id == "" {
		id = "unknown-id"
	}
	title := stringField(raw, "title")
	if title == "" {
		title = "untitled"
	}

	name := safeFilename(id) + " " + safeFilename(title) + ".json"
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(filepath.Join(r.cfg.SnapshotDir, name), data, 0o640); err != nil {
		logging.Warn().Err(err).Str("file", name).Msg("Failed to write catalog snapshot")
	}
}

func (r *RemoteImporter) flush(ctx context.Context, batch *[]*models.Show, result *ImportResult) error {
	if len(*batch) == 0 {
		return nil
	}
	written, err := r.db.UpsertShows(ctx, *batch)
	result.Written += written
	metrics.ImportRowsWritten.WithLabelValues("motn").Add(float64(written))
	if err != nil {
		metrics.ImportErrors.WithLabelValues("motn", "database").Inc()
		return fmt.Errorf("failed to flush show batch: %w", err)
	}
	*batch = (*batch)[:0]
	return nil
}

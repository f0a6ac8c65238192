// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package importer

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jurrian/moviedb/internal/config"
	"github.com/jurrian/moviedb/internal/database"
	"github.com/jurrian/moviedb/internal/logging"
	"github.com/jurrian/moviedb/internal/metrics"
	"github.com/jurrian/moviedb/internal/models"
)

const (
	// imdbNull is the dataset's marker for a missing value.
	imdbNull = `\N`

	// unknownGenre is the fallback for rows without genres.
	unknownGenre = "Unknown"

	progressLogInterval = 100_000
)

// ImdbImporter streams the IMDb title.basics dataset (~12M rows) into
// the database in batches.
type ImdbImporter struct {
	cfg        *config.ImdbConfig
	db         *database.DB
	httpClient *http.Client

	// DryRun parses and counts rows without writing to the database.
	DryRun bool
}

// NewImdbImporter creates an IMDb dataset importer.
func NewImdbImporter(cfg *config.ImdbConfig, db *database.DB) *ImdbImporter {
	return &ImdbImporter{
		cfg:        cfg,
		db:         db,
		httpClient: &http.Client{Timeout: 30 * time.Minute},
	}
}

// Run imports from source, downloading the default dataset when source is
// empty. A corrupted cached download is fetched again once.
func (imp *ImdbImporter) Run(ctx context.Context, source string) (*ImportResult, error) {
	usingDefault := source == ""
	if usingDefault {
		var err error
		if source, err = imp.ensureDataset(ctx, false); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat(source); err != nil {
		return nil, fmt.Errorf("source path does not exist: %s", source)
	}

	logging.Info().Str("source", source).Msg("Starting IMDb import")

	result, err := imp.processFile(ctx, source)
	if err != nil && usingDefault && isCorruptRead(err) {
		logging.Warn().Err(err).Msg("Dataset read failed; re-downloading and retrying")
		if source, err = imp.ensureDataset(ctx, true); err != nil {
			return nil, err
		}
		result, err = imp.processFile(ctx, source)
	}
	return result, err
}

func isCorruptRead(err error) bool {
	return errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, gzip.ErrHeader) ||
		errors.Is(err, gzip.ErrChecksum)
}

func (imp *ImdbImporter) processFile(ctx context.Context, source string) (*ImportResult, error) {
	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(source, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("dataset is not valid gzip: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	tsv := csv.NewReader(reader)
	tsv.Comma = '\t'
	tsv.LazyQuotes = true
	tsv.FieldsPerRecord = -1

	// Header line.
	if _, err := tsv.Read(); err != nil {
		if err == io.EOF {
			return &ImportResult{}, nil
		}
		return nil, fmt.Errorf("failed to read dataset header: %w", err)
	}

	batchSize := imp.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 5000
	}

	start := time.Now()
	result := &ImportResult{}
	batch := make([]*models.ImdbTitle, 0, batchSize)

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		row, err := tsv.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return result, fmt.Errorf("failed to read dataset row %d: %w", result.Processed+1, err)
		}

		result.Processed++
		metrics.ImportRowsProcessed.WithLabelValues("imdb").Inc()

		title := rowToTitle(row)
		if title == nil {
			metrics.ImportErrors.WithLabelValues("imdb", "parse").Inc()
			result.Skipped++
			continue
		}
		batch = append(batch, title)

		if len(batch) >= batchSize {
			if err := imp.flush(ctx, &batch, result); err != nil {
				return result, err
			}
		}
		if result.Processed%progressLogInterval == 0 {
			logging.Info().Int("processed", result.Processed).Int("written", result.Written).Msg("IMDb import progress")
		}
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
		Msg("IMDb import finished")
	return result, nil
}

// rowToTitle parses one title.basics row. Returns nil for rows with an
// unexpected column count or an empty tconst.
func rowToTitle(row []string) *models.ImdbTitle {
	if len(row) != 9 {
		return nil
	}

	tconst := row[0]
	if tconst == "" || tconst == imdbNull {
		return nil
	}

	originalTitle := row[3]
	if originalTitle == imdbNull {
		originalTitle = ""
	}

	startYear := 0
	if v := parseImdbInt(row[5]); v != nil {
		startYear = *v
	}

	return &models.ImdbTitle{
		ImdbID:         tconst,
		TitleType:      row[1],
		Title:          row[2],
		OriginalTitle:  originalTitle,
		IsAdult:        row[4] == "1",
		StartYear:      startYear,
		EndYear:        parseImdbInt(row[6]),
		RuntimeMinutes: parseImdbInt(row[7]),
		Genres:         parseImdbGenres(row[8]),
	}
}

func parseImdbInt(value string) *int {
	if value == "" || value == imdbNull {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}
	return &i
}

// parseImdbGenres splits the comma-separated genres column; rows without
// usable genres get the Unknown fallback.
func parseImdbGenres(value string) []string {
	if value == "" || value == imdbNull {
		return []string{unknownGenre}
	}
	var genres []string
	for _, name := range strings.Split(value, ",") {
		if name = strings.TrimSpace(name); name != "" {
			genres = append(genres, name)
		}
	}
	if len(genres) == 0 {
		return []string{unknownGenre}
	}
	return genres
}

func (imp *ImdbImporter) flush(ctx context.Context, batch *[]*models.ImdbTitle, result *ImportResult) error {
	if len(*batch) == 0 {
		return nil
	}
	if imp.DryRun {
		result.Written += len(*batch)
		*batch = (*batch)[:0]
		return nil
	}
	written, err := imp.db.UpsertImdbTitles(ctx, *batch)
	result.Written += written
	metrics.ImportRowsWritten.WithLabelValues("imdb").Add(float64(written))
	if err != nil {
		metrics.ImportErrors.WithLabelValues("imdb", "database").Inc()
		return fmt.Errorf("failed to flush imdb batch: %w", err)
	}
	*batch = (*batch)[:0]
	return nil
}

// ensureDataset returns a locally cached dataset path, downloading it when
// missing, corrupted, or force is set.
func (imp *ImdbImporter) ensureDataset(ctx context.Context, force bool) (string, error) {
	if err := os.MkdirAll(imp.cfg.DataDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create data dir: %w", err)
	}

	parsed, err := url.Parse(imp.cfg.DatasetURL)
	if err != nil {
		return "", fmt.Errorf("invalid dataset URL: %w", err)
	}
	target := filepath.Join(imp.cfg.DataDir, path.Base(parsed.Path))

	if !force {
		if _, err := os.Stat(target); err == nil {
			if isValidGzip(target) {
				logging.Info().Str("path", target).Msg("Using existing dataset")
				return target, nil
			}
			logging.Warn().Str("path", target).Msg("Existing dataset appears corrupted; re-downloading")
		}
	}

	logging.Info().Str("url", imp.cfg.DatasetURL).Str("path", target).Msg("Downloading dataset")
	if err := imp.download(ctx, target); err != nil {
		return "", fmt.Errorf("failed to download dataset: %w", err)
	}
	return target, nil
}

func isValidGzip(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return false
	}
	defer gz.Close()

	buf := make([]byte, 1)
	_, err = gz.Read(buf)
	return err == nil || err == io.EOF
}

// download streams the dataset to a temp file and renames it into place,
// logging progress every 5%.
func (imp *ImdbImporter) download(ctx context.Context, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imp.cfg.DatasetURL, nil)
	if err != nil {
		return err
	}
	resp, err := imp.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dataset server returned %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".download-*")
	if err != nil {
		return err
	}
	defer func() {
		tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	progress := &progressWriter{total: resp.ContentLength, lastPercent: -5}
	if _, err := io.Copy(io.MultiWriter(tmp, progress), resp.Body); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), target)
}

type progressWriter struct {
	total       int64
	downloaded  int64
	lastPercent int
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.downloaded += int64(len(b))
	if p.total > 0 {
		percent := int(p.downloaded * 100 / p.total)
		if percent >= 100 || percent-p.lastPercent >= 5 {
			logging.Info().
				Int("percent", percent).
				Float64("mb_done", float64(p.downloaded)/(1024*1024)).
				Float64("mb_total", float64(p.total)/(1024*1024)).
				Msg("Download progress")
			p.lastPercent = percent
		}
	}
	return len(b), nil
}

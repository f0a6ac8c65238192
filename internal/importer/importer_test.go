// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package importer

import (
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jurrian/moviedb/internal/config"
	"github.com/jurrian/moviedb/internal/database"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(&config.DatabaseConfig{
		Path:      filepath.Join(t.TempDir(), "test.duckdb"),
		MaxMemory: "256MB",
		Threads:   2,
	})
	if err != nil {
		t.Fatalf("database.New() error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func writeGzip(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(content)); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	return path
}

func TestMotnImportFile(t *testing.T) {
	db := newTestDB(t)
	lines := []string{
		`{"id":"tt1","title":"First Movie","showType":"movie","releaseYear":2020,"genres":[{"name":"Drama"}]}`,
		``,
		`{"title":"no id, skipped"}`,
		`{"id":"tt2","title":"Second Movie","showType":"movie","releaseYear":2021}`,
		`not json`,
	}
	path := writeGzip(t, t.TempDir(), "netflix-nl.jsonl.gz", strings.Join(lines, "\n"))

	imp := NewMotnImporter(db, 1) // batch size 1 exercises mid-stream flushes
	result, err := imp.ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportFile() error: %v", err)
	}
	if result.Processed != 4 {
		t.Errorf("Processed = %d, want 4 (blank line ignored)", result.Processed)
	}
	if result.Written != 2 {
		t.Errorf("Written = %d, want 2", result.Written)
	}
	if result.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", result.Skipped)
	}

	show, err := db.GetShowByMotnID(context.Background(), "tt1")
	if err != nil {
		t.Fatalf("GetShowByMotnID() error: %v", err)
	}
	if show.Title != "First Movie" {
		t.Errorf("Title = %q", show.Title)
	}
}

func TestMotnImportFileMissing(t *testing.T) {
	imp := NewMotnImporter(newTestDB(t), 500)
	if _, err := imp.ImportFile(context.Background(), "/nonexistent.jsonl.gz"); err == nil {
		t.Fatal("ImportFile() should fail for a missing snapshot")
	}
}

func TestRemoteFetchPageOrdering(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		_, _ = w.Write([]byte(`{"shows":[],"hasMore":false}`))
	}))
	defer srv.Close()

	cfg := &config.MotnConfig{
		APIKey:         "key",
		Host:           "example.test",
		BaseURL:        srv.URL,
		Country:        "nl",
		Catalog:        "netflix",
		OrderBy:        "rating",
		OrderDirection: "asc",
	}
	imp := NewRemoteImporter(cfg, newTestDB(t))

	if _, err := imp.fetchPage(context.Background(), ""); err != nil {
		t.Fatalf("fetchPage() error: %v", err)
	}
	if got.Get("order_by") != "rating" || got.Get("order_direction") != "asc" {
		t.Errorf("ordering params = %q/%q, want configured rating/asc",
			got.Get("order_by"), got.Get("order_direction"))
	}

	// Unset ordering falls back to the newest-first default.
	cfg.OrderBy, cfg.OrderDirection = "", ""
	if _, err := imp.fetchPage(context.Background(), ""); err != nil {
		t.Fatalf("fetchPage() error: %v", err)
	}
	if got.Get("order_by") != "release_date" || got.Get("order_direction") != "desc" {
		t.Errorf("default ordering params = %q/%q, want release_date/desc",
			got.Get("order_by"), got.Get("order_direction"))
	}
}

func TestImdbImport(t *testing.T) {
	db := newTestDB(t)
	rows := []string{
		"tconst\ttitleType\tprimaryTitle\toriginalTitle\tisAdult\tstartYear\tendYear\truntimeMinutes\tgenres",
		"tt0137523\tmovie\tFight Club\tFight Club\t0\t1999\t\\N\t139\tDrama,Thriller",
		"tt0903747\ttvSeries\tBreaking Bad\tBreaking Bad\t0\t2008\t2013\t45\t\\N",
		"tt0000000\tshort\tBroken Row\t0", // wrong column count, skipped
	}
	path := writeGzip(t, t.TempDir(), "title.basics.tsv.gz", strings.Join(rows, "\n"))

	imp := NewImdbImporter(&config.ImdbConfig{BatchSize: 1}, db)
	result, err := imp.Run(context.Background(), path)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if result.Written != 2 || result.Skipped != 1 {
		t.Errorf("result = %+v, want 2 written 1 skipped", result)
	}

	title, err := db.GetImdbTitle(context.Background(), "tt0903747")
	if err != nil {
		t.Fatalf("GetImdbTitle() error: %v", err)
	}
	if title.EndYear == nil || *title.EndYear != 2013 {
		t.Errorf("EndYear = %v", title.EndYear)
	}
	if len(title.Genres) != 1 || title.Genres[0] != "Unknown" {
		t.Errorf("Genres = %v, want [Unknown] for \\N", title.Genres)
	}
}

func TestRowToTitle(t *testing.T) {
	tests := []struct {
		name string
		row  []string
		ok   bool
	}{
		{"valid", []string{"tt1", "movie", "A", "A", "0", "2000", `\N`, "90", "Drama"}, true},
		{"null_tconst", []string{`\N`, "movie", "A", "A", "0", "2000", `\N`, "90", "Drama"}, false},
		{"wrong_columns", []string{"tt1", "movie"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rowToTitle(tt.row)
			if (got != nil) != tt.ok {
				t.Errorf("rowToTitle() = %v, ok=%v", got, tt.ok)
			}
		})
	}

	adult := rowToTitle([]string{"tt2", "movie", "X", `\N`, "1", `\N`, `\N`, `\N`, ""})
	if adult == nil || !adult.IsAdult {
		t.Fatalf("IsAdult not parsed: %+v", adult)
	}
	if adult.OriginalTitle != "" {
		t.Errorf(`OriginalTitle = %q, want "" for \N`, adult.OriginalTitle)
	}
	if adult.StartYear != 0 {
		t.Errorf("StartYear = %d, want 0 default", adult.StartYear)
	}
	if len(adult.Genres) != 1 || adult.Genres[0] != "Unknown" {
		t.Errorf("Genres = %v", adult.Genres)
	}
}

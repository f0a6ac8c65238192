// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package search

import (
	"testing"

	"github.com/jurrian/moviedb/internal/database"
)

func testIndex(shows ...database.IndexedShow) *Index {
	idx := NewIndex()
	idx.shows = shows
	return idx
}

func TestTopK(t *testing.T) {
	idx := testIndex(
		database.IndexedShow{ID: 1, Embedding: []float32{1, 0}},
		database.IndexedShow{ID: 2, Embedding: []float32{0, 1}},
		database.IndexedShow{ID: 3, Embedding: []float32{0.9, 0.1}},
	)

	hits := idx.TopK([]float32{1, 0}, 2)
	if len(hits) != 2 {
		t.Fatalf("len = %d, want 2", len(hits))
	}
	if hits[0].ID != 1 {
		t.Errorf("best hit = %d, want 1", hits[0].ID)
	}
	if hits[1].ID != 3 {
		t.Errorf("second hit = %d, want 3", hits[1].ID)
	}
	if hits[0].Similarity < hits[1].Similarity {
		t.Error("hits not ordered by similarity")
	}
}

func TestTopKEdgeCases(t *testing.T) {
	idx := testIndex(database.IndexedShow{ID: 1, Embedding: []float32{1, 0}})

	if hits := idx.TopK(nil, 5); hits != nil {
		t.Errorf("TopK(nil) = %v, want nil", hits)
	}
	if hits := idx.TopK([]float32{1, 0}, 0); hits != nil {
		t.Errorf("TopK(k=0) = %v, want nil", hits)
	}
	if hits := idx.TopK([]float32{1, 0}, 10); len(hits) != 1 {
		t.Errorf("k beyond size should return all %d hits, got %d", 1, len(hits))
	}
}

func TestGenresByID(t *testing.T) {
	idx := testIndex(
		database.IndexedShow{ID: 1, Genres: []string{"Drama"}},
		database.IndexedShow{ID: 2, Genres: []string{"Comedy"}},
	)

	got := idx.GenresByID(map[int64]struct{}{1: {}})
	if len(got) != 1 || got[1][0] != "Drama" {
		t.Errorf("GenresByID() = %v", got)
	}
}

func TestIndexSizeEmpty(t *testing.T) {
	if size := NewIndex().Size(); size != 0 {
		t.Errorf("Size() = %d, want 0", size)
	}
}

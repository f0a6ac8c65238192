// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

// Package search implements semantic retrieval over show embeddings with
// optional personalization from user view history.
package search

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jurrian/moviedb/internal/database"
	"github.com/jurrian/moviedb/internal/embedding"
	"github.com/jurrian/moviedb/internal/logging"
	"github.com/jurrian/moviedb/internal/metrics"
)

// Hit is one nearest-neighbour result from the index. Embedding
// references the indexed vector so rerankers can compute additional
// similarities without another lookup.
type Hit struct {
	ID         int64
	Similarity float64
	ImdbRating float64
	Genres     []string
	Embedding  []float32
}

// Index holds all show embeddings in memory for brute-force cosine
// search. The catalog is small enough (tens of thousands of vectors)
// that a scan beats maintaining an ANN structure.
type Index struct {
	mu    sync.RWMutex
	shows []database.IndexedShow
}

// NewIndex returns an empty index; call Refresh before searching.
func NewIndex() *Index {
	return &Index{}
}

// Refresh reloads every embedded show from the database.
func (idx *Index) Refresh(ctx context.Context, db *database.DB) error {
	start := time.Now()
	shows, err := db.LoadEmbeddings(ctx)
	if err != nil {
		return err
	}

	idx.mu.Lock()
	idx.shows = shows
	idx.mu.Unlock()

	metrics.IndexSize.Set(float64(len(shows)))
	logging.Info().Int("vectors", len(shows)).Dur("duration", time.Since(start)).Msg("Search index refreshed")
	return nil
}

// Size returns the number of indexed vectors.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.shows)
}

// GenresByID returns the genre lists of the requested shows, for shows
// present in the index.
func (idx *Index) GenresByID(ids map[int64]struct{}) map[int64][]string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make(map[int64][]string, len(ids))
	for _, s := range idx.shows {
		if _, ok := ids[s.ID]; ok {
			out[s.ID] = s.Genres
		}
	}
	return out
}

// TopK returns the k most similar shows to query by cosine similarity,
// best first.
func (idx *Index) TopK(query []float32, k int) []Hit {
	if len(query) == 0 || k <= 0 {
		return nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	hits := make([]Hit, 0, len(idx.shows))
	for _, s := range idx.shows {
		hits = append(hits, Hit{
			ID:         s.ID,
			Similarity: embedding.Cosine(query, s.Embedding),
			ImdbRating: s.ImdbRating,
			Genres:     s.Genres,
			Embedding:  s.Embedding,
		})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

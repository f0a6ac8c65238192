// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/jurrian/moviedb/internal/cache"
	"github.com/jurrian/moviedb/internal/config"
	"github.com/jurrian/moviedb/internal/database"
	"github.com/jurrian/moviedb/internal/embedding"
	"github.com/jurrian/moviedb/internal/logging"
	"github.com/jurrian/moviedb/internal/metrics"
	"github.com/jurrian/moviedb/internal/models"
)

// ErrNotEnoughHistory signals that personalized recommendations need
// more embedded view history.
var ErrNotEnoughHistory = errors.New("search: not enough view history for recommendations")

// Embedder produces query vectors. Satisfied by *embedding.Client.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Engine ties the vector index, the embeddings client, and the
// database together into the search and recommendation operations.
type Engine struct {
	db       *database.DB
	embedder Embedder
	index    *Index
	store    *cache.Store // nil disables response caching
	cfg      *config.SearchConfig
	cacheTTL time.Duration
}

// NewEngine creates a search engine. store may be nil to disable the
// response cache.
func NewEngine(db *database.DB, embedder Embedder, index *Index, store *cache.Store, cfg *config.SearchConfig, cacheTTL time.Duration) *Engine {
	return &Engine{
		db:       db,
		embedder: embedder,
		index:    index,
		store:    store,
		cfg:      cfg,
		cacheTTL: cacheTTL,
	}
}

// Index exposes the engine's vector index for refresh scheduling.
func (e *Engine) Index() *Index {
	return e.index
}

// Search returns the shows most similar to a free-text query. When the
// user has enough embedded view history, the query vector is blended
// with their taste vector before retrieval; alpha controls the blend
// (negative means the configured default). The second return reports
// whether the response came from the cache.
func (e *Engine) Search(ctx context.Context, query string, userID int64, topK int, alpha float64) ([]models.SearchResult, bool, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, false, fmt.Errorf("search query must not be empty")
	}
	if topK <= 0 {
		topK = e.cfg.TopK
	}
	if alpha < 0 || alpha > 1 {
		alpha = e.cfg.Alpha
	}

	cacheKey := e.searchCacheKey(query, userID, topK, alpha)
	if cached, ok := e.cachedResults(cacheKey); ok {
		metrics.SearchCacheHits.Inc()
		return cached, true, nil
	}
	metrics.SearchCacheMisses.Inc()

	start := time.Now()
	defer func() { metrics.SearchDuration.Observe(time.Since(start).Seconds()) }()

	queryVec, err := e.embedQuery(ctx, query)
	if err != nil {
		return nil, false, err
	}

	searchVec := queryVec
	if userID > 0 {
		userVec, err := userVector(ctx, e.db, userID, e.cfg.MinInteractions)
		if err != nil {
			return nil, false, err
		}
		if userVec != nil {
			searchVec = embedding.Blend(queryVec, userVec, alpha)
		}
	}

	hits := e.index.TopK(searchVec, topK)
	results, err := e.hydrate(ctx, hits, nil)
	if err != nil {
		return nil, false, err
	}

	e.storeResults(cacheKey, results)
	return results, false, nil
}

// Recommend returns personalized suggestions for a user. An optional
// query steers the candidate retrieval; without one the taste vector
// alone drives it. Candidates are reranked with quality priors, genre
// alignment, and history adjustments.
func (e *Engine) Recommend(ctx context.Context, userID int64, query string, topK int) ([]models.SearchResult, error) {
	if topK <= 0 {
		topK = e.cfg.TopK
	}

	start := time.Now()
	defer func() { metrics.SearchDuration.Observe(time.Since(start).Seconds()) }()

	userVec, err := userVector(ctx, e.db, userID, e.cfg.MinInteractions)
	if err != nil {
		return nil, err
	}
	if userVec == nil {
		return nil, ErrNotEnoughHistory
	}

	searchVec := userVec
	var queryVec []float32
	if query = strings.TrimSpace(query); query != "" {
		if queryVec, err = e.embedQuery(ctx, query); err != nil {
			return nil, err
		}
		searchVec = embedding.Blend(queryVec, userVec, e.cfg.Alpha)
	}

	watched, err := e.db.WatchedShowIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	ratings, err := e.db.RatingsByShow(ctx, userID)
	if err != nil {
		return nil, err
	}
	favoured := e.favouredGenres(watched, ratings)

	hits := e.index.TopK(searchVec, e.cfg.CandidatePool)
	scored := make([]scoredHit, 0, len(hits))
	for _, hit := range hits {
		simQuery := hit.Similarity
		if queryVec != nil {
			simQuery = embedding.Cosine(queryVec, hit.Embedding)
		}
		in := ScoreInput{
			SimUser:      embedding.Cosine(userVec, hit.Embedding),
			SimQuery:     simQuery,
			Rating:       hit.ImdbRating,
			GenreOverlap: GenreOverlap(hit.Genres, favoured),
		}
		if _, ok := watched[hit.ID]; ok {
			in.Watched = true
		}
		if rating, ok := ratings[hit.ID]; ok {
			r := rating
			in.Thumbs = &r
		}
		scored = append(scored, scoredHit{Hit: hit, score: ComputeScore(in)})
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	if len(scored) > topK {
		scored = scored[:topK]
	}

	top := make([]Hit, len(scored))
	scores := make([]float64, len(scored))
	for i, s := range scored {
		top[i] = s.Hit
		scores[i] = s.score
	}
	return e.hydrate(ctx, top, scores)
}

type scoredHit struct {
	Hit
	score float64
}

func (e *Engine) embedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := e.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query", len(vectors))
	}
	return vectors[0], nil
}

// favouredGenres collects the genres of shows the user rated up.
func (e *Engine) favouredGenres(watched map[int64]struct{}, ratings map[int64]int) map[string]struct{} {
	liked := make(map[int64]struct{})
	for id, rating := range ratings {
		if rating >= models.ThumbsUp {
			liked[id] = struct{}{}
		}
	}
	if len(liked) == 0 {
		return nil
	}

	favoured := make(map[string]struct{})
	for _, genres := range e.index.GenresByID(liked) {
		for _, g := range genres {
			favoured[strings.ToLower(g)] = struct{}{}
		}
	}
	return favoured
}

// hydrate turns index hits into full results, preserving hit order.
// scores may be nil for plain searches.
func (e *Engine) hydrate(ctx context.Context, hits []Hit, scores []float64) ([]models.SearchResult, error) {
	results := make([]models.SearchResult, 0, len(hits))
	for i, hit := range hits {
		show, err := e.db.GetShow(ctx, hit.ID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				// Index can briefly lag behind deletes.
				continue
			}
			return nil, err
		}
		show.Genres, err = e.db.GenresForShow(ctx, hit.ID)
		if err != nil {
			return nil, err
		}

		result := models.SearchResult{Show: show, Similarity: hit.Similarity}
		if scores != nil {
			s := scores[i]
			result.Score = &s
		}
		results = append(results, result)
	}
	return results, nil
}

func (e *Engine) searchCacheKey(query string, userID int64, topK int, alpha float64) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%d|%d|%g", query, userID, topK, alpha))
	return "search:" + hex.EncodeToString(sum[:16])
}

func (e *Engine) cachedResults(key string) ([]models.SearchResult, bool) {
	if e.store == nil {
		return nil, false
	}
	data, err := e.store.Get(key)
	if err != nil {
		return nil, false
	}
	var results []models.SearchResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, false
	}
	return results, true
}

func (e *Engine) storeResults(key string, results []models.SearchResult) {
	if e.store == nil {
		return
	}
	data, err := json.Marshal(results)
	if err != nil {
		return
	}
	if err := e.store.Set(key, data, e.cacheTTL); err != nil {
		logging.Debug().Err(err).Msg("Failed to cache search response")
	}
}

// InvalidateCache drops all cached search responses; called after
// imports and embedding builds change the catalog.
func (e *Engine) InvalidateCache() {
	if e.store == nil {
		return
	}
	if err := e.store.DeletePrefix("search:"); err != nil {
		logging.Warn().Err(err).Msg("Failed to invalidate search cache")
	}
}

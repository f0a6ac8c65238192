// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package search

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jurrian/moviedb/internal/cache"
	"github.com/jurrian/moviedb/internal/config"
	"github.com/jurrian/moviedb/internal/database"
	"github.com/jurrian/moviedb/internal/models"
)

// fakeEmbedder maps known phrases to fixed unit vectors so tests can
// steer retrieval deterministically.
type fakeEmbedder struct {
	vectors map[string][]float32
	calls   int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if vec, ok := f.vectors[text]; ok {
			out[i] = vec
		} else {
			out[i] = []float32{1, 0, 0}
		}
	}
	return out, nil
}

func searchConfig() *config.SearchConfig {
	return &config.SearchConfig{
		TopK:            10,
		CandidatePool:   50,
		Alpha:           0.5,
		MinInteractions: 3,
	}
}

type testEnv struct {
	db       *database.DB
	engine   *Engine
	embedder *fakeEmbedder
	showIDs  map[string]int64
}

// newTestEnv seeds three embedded shows on distinct axes plus one
// unembedded show.
func newTestEnv(t *testing.T, store *cache.Store) *testEnv {
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

	ctx := context.Background()
	year := 2020
	rating := 8.0
	shows := []*models.Show{
		{MotnID: "m1", Title: "Space Epic", ShowType: "movie", Year: &year, ImdbRating: &rating, Genres: []string{"SciFi"}},
		{MotnID: "m2", Title: "Love Story", ShowType: "movie", Year: &year, Genres: []string{"Romance"}},
		{MotnID: "m3", Title: "Space Romance", ShowType: "movie", Year: &year, Genres: []string{"SciFi", "Romance"}},
		{MotnID: "m4", Title: "No Vector Yet", ShowType: "movie", Year: &year},
	}
	if _, err := db.UpsertShows(ctx, shows); err != nil {
		t.Fatalf("UpsertShows() error: %v", err)
	}

	ids := make(map[string]int64)
	embeddings := map[string][]float32{
		"m1": {1, 0, 0},
		"m2": {0, 1, 0},
		"m3": {0.7, 0.7, 0},
	}
	for motnID, vec := range embeddings {
		show, err := db.GetShowByMotnID(ctx, motnID)
		if err != nil {
			t.Fatalf("GetShowByMotnID(%s) error: %v", motnID, err)
		}
		ids[motnID] = show.ID
		if err := db.UpdateEmbeddings(ctx, []int64{show.ID}, [][]float32{vec}); err != nil {
			t.Fatalf("UpdateEmbeddings() error: %v", err)
		}
	}

	idx := NewIndex()
	if err := idx.Refresh(ctx, db); err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}

	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"space movie": {1, 0, 0},
		"romance":     {0, 1, 0},
	}}
	engine := NewEngine(db, embedder, idx, store, searchConfig(), time.Minute)

	return &testEnv{db: db, engine: engine, embedder: embedder, showIDs: ids}
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t, nil)

	results, cached, err := env.engine.Search(context.Background(), "space movie", 0, 2, -1)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if cached {
		t.Error("first search reported as cached")
	}
	if len(results) != 2 {
		t.Fatalf("len = %d, want 2", len(results))
	}
	if results[0].Show.ID != env.showIDs["m1"] {
		t.Errorf("top result = %q, want Space Epic", results[0].Show.Title)
	}
	if results[0].Similarity < results[1].Similarity {
		t.Error("results not ordered by similarity")
	}
	if results[0].Score != nil {
		t.Error("plain search should not carry a rerank score")
	}
	if len(results[0].Show.Genres) == 0 {
		t.Error("result shows should carry genres")
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	env := newTestEnv(t, nil)
	if _, _, err := env.engine.Search(context.Background(), "  ", 0, 5, -1); err == nil {
		t.Fatal("Search() with blank query should fail")
	}
}

func TestSearchCaching(t *testing.T) {
	store, err := cache.Open("")
	if err != nil {
		t.Fatalf("cache.Open() error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	env := newTestEnv(t, store)
	ctx := context.Background()

	if _, cached, err := env.engine.Search(ctx, "space movie", 0, 3, -1); err != nil || cached {
		t.Fatalf("first search: cached=%v err=%v", cached, err)
	}
	results, cached, err := env.engine.Search(ctx, "space movie", 0, 3, -1)
	if err != nil {
		t.Fatalf("second search error: %v", err)
	}
	if !cached {
		t.Error("second identical search should be cached")
	}
	if env.embedder.calls != 1 {
		t.Errorf("embedder calls = %d, want 1 (cache hit skips embedding)", env.embedder.calls)
	}
	if len(results) == 0 || results[0].Show.ID != env.showIDs["m1"] {
		t.Errorf("cached results differ: %+v", results)
	}

	env.engine.InvalidateCache()
	if _, cached, err := env.engine.Search(ctx, "space movie", 0, 3, -1); err != nil || cached {
		t.Errorf("post-invalidation search: cached=%v err=%v", cached, err)
	}
}

// seedHistory records interactions for a fresh user: m2 loved, m1 watched.
func seedHistory(t *testing.T, env *testEnv) int64 {
	t.Helper()
	ctx := context.Background()

	user, err := env.db.CreateUser(ctx, "viewer", "hash", "user")
	if err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}
	for motnID, rating := range map[string]*int{
		"m1": nil,
		"m2": thumbs(models.ThumbsWayUp),
		"m3": thumbs(models.ThumbsUp),
	} {
		in := &models.Interaction{UserID: user.ID, ShowID: env.showIDs[motnID], Rating: rating}
		if err := env.db.UpsertInteraction(ctx, in); err != nil {
			t.Fatalf("UpsertInteraction() error: %v", err)
		}
	}
	return user.ID
}

func TestRecommend(t *testing.T) {
	env := newTestEnv(t, nil)
	userID := seedHistory(t, env)

	results, err := env.engine.Recommend(context.Background(), userID, "", 3)
	if err != nil {
		t.Fatalf("Recommend() error: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("Recommend() returned no results")
	}
	for _, r := range results {
		if r.Score == nil {
			t.Fatalf("recommendation for %q missing score", r.Show.Title)
		}
	}
	for i := 1; i < len(results); i++ {
		if *results[i-1].Score < *results[i].Score {
			t.Error("recommendations not ordered by score")
		}
	}

	// The unrated watched show must rank below the loved ones.
	var watchedScore, lovedScore *float64
	for _, r := range results {
		switch r.Show.ID {
		case env.showIDs["m1"]:
			watchedScore = r.Score
		case env.showIDs["m2"]:
			lovedScore = r.Score
		}
	}
	if watchedScore != nil && lovedScore != nil && *watchedScore >= *lovedScore {
		t.Errorf("watched unrated show (%v) should score below loved show (%v)", *watchedScore, *lovedScore)
	}
}

func TestRecommendNotEnoughHistory(t *testing.T) {
	env := newTestEnv(t, nil)

	user, err := env.db.CreateUser(context.Background(), "newbie", "hash", "user")
	if err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}
	if _, err := env.engine.Recommend(context.Background(), user.ID, "", 5); !errors.Is(err, ErrNotEnoughHistory) {
		t.Errorf("error = %v, want ErrNotEnoughHistory", err)
	}
}

func TestEvaluate(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	if err := env.db.SetRelevantQueries(ctx, env.showIDs["m1"], []string{"space movie"}); err != nil {
		t.Fatalf("SetRelevantQueries() error: %v", err)
	}

	report, err := env.engine.Evaluate(ctx, 10, 5)
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	if report.Queries != 1 {
		t.Fatalf("Queries = %d, want 1", report.Queries)
	}
	if report.Hits != 1 || report.HitRate != 1 {
		t.Errorf("report = %+v, want full hit", report)
	}
	if report.MRR != 1 {
		t.Errorf("MRR = %v, want 1 (target ranks first)", report.MRR)
	}

	// The default CLI invocation evaluates everything: maxShows 0 means
	// no cap, not an empty run.
	report, err = env.engine.Evaluate(ctx, 0, 5)
	if err != nil {
		t.Fatalf("Evaluate(maxShows=0) error: %v", err)
	}
	if report.Queries != 1 {
		t.Errorf("Evaluate(maxShows=0) Queries = %d, want 1", report.Queries)
	}
}

func TestEvaluateNoJudgments(t *testing.T) {
	env := newTestEnv(t, nil)
	if _, err := env.engine.Evaluate(context.Background(), 10, 5); err == nil {
		t.Fatal("Evaluate() without judgment queries should fail")
	}
}

func TestTasteVector(t *testing.T) {
	interactions := []database.EmbeddedInteraction{
		{Interaction: models.Interaction{Rating: thumbs(models.ThumbsWayUp)}, Embedding: []float32{1, 0}},
		{Interaction: models.Interaction{Rating: thumbs(models.ThumbsDown)}, Embedding: []float32{0, 1}},
	}

	vec := TasteVector(interactions)
	if vec == nil {
		t.Fatal("TasteVector() returned nil")
	}
	// Way-up (weight 3) must dominate down (weight 0.2).
	if vec[0] <= vec[1] {
		t.Errorf("taste vector %v should lean toward the loved show", vec)
	}

	if TasteVector(nil) != nil {
		t.Error("TasteVector(nil) should be nil")
	}
}

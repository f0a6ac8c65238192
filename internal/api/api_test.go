// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/jurrian/moviedb/internal/auth"
	"github.com/jurrian/moviedb/internal/config"
	"github.com/jurrian/moviedb/internal/database"
	"github.com/jurrian/moviedb/internal/embedding"
	"github.com/jurrian/moviedb/internal/importer"
	"github.com/jurrian/moviedb/internal/models"
	"github.com/jurrian/moviedb/internal/search"
)

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			Host:        "127.0.0.1",
			Port:        8080,
			Environment: "development",
		},
		Security: config.SecurityConfig{
			AuthMode:        "jwt",
			JWTSecret:       "0123456789abcdef0123456789abcdef",
			SessionTimeout:  time.Hour,
			RateLimitReqs:   1000,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Search: config.SearchConfig{
			TopK:            10,
			CandidatePool:   50,
			Alpha:           0.5,
			MinInteractions: 3,
		},
		API: config.APIConfig{DefaultPageSize: 20, MaxPageSize: 100},
	}
}

type testAPI struct {
	server *Server
	db     *database.DB
	admin  string // admin bearer token
	user   string // plain user bearer token
	userID int64
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	cfg := testConfig(t)

	db, err := database.New(&config.DatabaseConfig{
		Path:      t.TempDir() + "/api_test.db",
		MaxMemory: "256MB",
		Threads:   2,
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()

	adminHash, _ := auth.HashPassword("admin-secret")
	admin, err := db.EnsureUser(ctx, "admin", adminHash, "admin")
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	userHash, _ := auth.HashPassword("user-secret")
	user, err := db.EnsureUser(ctx, "alice", userHash, "user")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	year := 1999
	rating := 8.5
	shows := []*models.Show{
		{
			MotnID:     "tt0133093",
			Title:      "The Matrix",
			ShowType:   "movie",
			Year:       &year,
			Overview:   "A hacker discovers reality is a simulation.",
			Genres:     []string{"Science Fiction", "Action"},
			ImdbRating: &rating,
		},
		{
			MotnID:   "tt0120338",
			Title:    "Titanic",
			ShowType: "movie",
			Genres:   []string{"Romance", "Drama"},
		},
	}
	if _, err := db.UpsertShows(ctx, shows); err != nil {
		t.Fatalf("seed shows: %v", err)
	}
	vectors := [][]float32{{1, 0, 0}, {0, 1, 0}}
	for i, s := range shows {
		stored, err := db.GetShowByMotnID(ctx, s.MotnID)
		if err != nil {
			t.Fatalf("lookup %s: %v", s.MotnID, err)
		}
		if err := db.UpdateEmbeddings(ctx, []int64{stored.ID}, vectors[i:i+1]); err != nil {
			t.Fatalf("seed embedding: %v", err)
		}
	}

	index := search.NewIndex()
	if err := index.Refresh(ctx, db); err != nil {
		t.Fatalf("refresh index: %v", err)
	}
	engine := search.NewEngine(db, fakeEmbedder{}, index, nil, &cfg.Search, 0)

	jwt, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("jwt manager: %v", err)
	}

	srv := NewServer(cfg, db, engine, jwt,
		importer.NewImdbImporter(&config.ImdbConfig{DataDir: t.TempDir(), BatchSize: 100}, db),
		importer.NewMotnImporter(db, 100),
		importer.NewRemoteImporter(&config.MotnConfig{BatchSize: 100}, db),
		embedding.NewBuilder(db, fakeEmbedder{}, 100),
	)

	adminToken, err := jwt.GenerateToken(admin.ID, admin.Username, admin.Role)
	if err != nil {
		t.Fatalf("admin token: %v", err)
	}
	userToken, err := jwt.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		t.Fatalf("user token: %v", err)
	}

	return &testAPI{server: srv, db: db, admin: adminToken, user: userToken, userID: user.ID}
}

func (ta *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ta.server.Router().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) *models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return &resp
}

func TestHealthLive(t *testing.T) {
	ta := newTestAPI(t)

	rec := ta.do(t, http.MethodGet, "/api/v1/health/live", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp := decodeResponse(t, rec); resp.Status != "success" {
		t.Fatalf("status field = %q", resp.Status)
	}
}

func TestLogin(t *testing.T) {
	ta := newTestAPI(t)

	rec := ta.do(t, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"username": "alice", "password": "user-secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	data := decodeResponse(t, rec).Data.(map[string]any)
	if token, ok := data["token"].(string); !ok || token == "" {
		t.Fatal("login response missing token")
	}
	var gotCookie bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session" && c.Value != "" {
			gotCookie = true
		}
	}
	if !gotCookie {
		t.Fatal("login did not set session cookie")
	}
}

func TestLoginBadPassword(t *testing.T) {
	ta := newTestAPI(t)

	for _, body := range []map[string]string{
		{"username": "alice", "password": "wrong"},
		{"username": "nobody", "password": "user-secret"},
	} {
		rec := ta.do(t, http.MethodPost, "/api/v1/auth/login", "", body)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
		if resp := decodeResponse(t, rec); resp.Error.Code != "AUTHENTICATION_ERROR" {
			t.Fatalf("error code = %q", resp.Error.Code)
		}
	}
}

func TestShowsRequireAuth(t *testing.T) {
	ta := newTestAPI(t)

	if rec := ta.do(t, http.MethodGet, "/api/v1/shows", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestListAndGetShows(t *testing.T) {
	ta := newTestAPI(t)

	rec := ta.do(t, http.MethodGet, "/api/v1/shows?type=movie&genre=Romance", ta.user, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, body %s", rec.Code, rec.Body.String())
	}
	shows := decodeResponse(t, rec).Data.([]any)
	if len(shows) != 1 {
		t.Fatalf("got %d shows, want 1", len(shows))
	}

	show, err := ta.db.GetShowByMotnID(context.Background(), "tt0133093")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	rec = ta.do(t, http.MethodGet, "/api/v1/shows/"+itoa(show.ID), ta.user, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	if rec := ta.do(t, http.MethodGet, "/api/v1/shows/999999", ta.user, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing show status = %d, want 404", rec.Code)
	}
	if rec := ta.do(t, http.MethodGet, "/api/v1/shows?type=documentary", ta.user, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad type status = %d, want 400", rec.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	ta := newTestAPI(t)

	rec := ta.do(t, http.MethodGet, "/api/v1/search?q=hacker+simulation&limit=5", ta.user, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	results := decodeResponse(t, rec).Data.([]any)
	if len(results) == 0 {
		t.Fatal("no search results")
	}
	first := results[0].(map[string]any)["show"].(map[string]any)
	if first["title"] != "The Matrix" {
		t.Fatalf("top result = %v, want The Matrix", first["title"])
	}

	if rec := ta.do(t, http.MethodGet, "/api/v1/search", ta.user, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing q status = %d, want 400", rec.Code)
	}
	if rec := ta.do(t, http.MethodGet, "/api/v1/search?q=x&alpha=2", ta.user, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad alpha status = %d, want 400", rec.Code)
	}
}

func TestInteractionsFlow(t *testing.T) {
	ta := newTestAPI(t)

	show, err := ta.db.GetShowByMotnID(context.Background(), "tt0133093")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	rating := 2
	rec := ta.do(t, http.MethodPost, "/api/v1/interactions", ta.user,
		map[string]any{"show_id": show.ID, "rating": rating})
	if rec.Code != http.StatusOK {
		t.Fatalf("post status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = ta.do(t, http.MethodGet, "/api/v1/interactions", ta.user, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if got := decodeResponse(t, rec).Data.([]any); len(got) != 1 {
		t.Fatalf("got %d interactions, want 1", len(got))
	}

	// Unknown show and invalid rating are rejected.
	if rec := ta.do(t, http.MethodPost, "/api/v1/interactions", ta.user,
		map[string]any{"show_id": 999999, "rating": 1}); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown show status = %d, want 404", rec.Code)
	}
	if rec := ta.do(t, http.MethodPost, "/api/v1/interactions", ta.user,
		map[string]any{"show_id": show.ID, "rating": 7}); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad rating status = %d, want 400", rec.Code)
	}

	rec = ta.do(t, http.MethodDelete, "/api/v1/interactions/"+itoa(show.ID), ta.user, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := ta.do(t, http.MethodDelete, "/api/v1/interactions/"+itoa(show.ID), ta.user, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("double delete status = %d, want 404", rec.Code)
	}
}

func TestRecommendationsNeedHistory(t *testing.T) {
	ta := newTestAPI(t)

	rec := ta.do(t, http.MethodGet, "/api/v1/recommendations", ta.user, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestAdminRequiresRole(t *testing.T) {
	ta := newTestAPI(t)

	if rec := ta.do(t, http.MethodGet, "/api/v1/admin/import/status", ta.user, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("user status = %d, want 403", rec.Code)
	}
	rec := ta.do(t, http.MethodGet, "/api/v1/admin/import/status", ta.admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin status = %d", rec.Code)
	}
}

func TestBuildEmbeddingsJob(t *testing.T) {
	ta := newTestAPI(t)

	rec := ta.do(t, http.MethodPost, "/api/v1/admin/embeddings/build", ta.admin, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	// The job runs in the background on an in-memory fake embedder; poll
	// the status endpoint until it settles.
	deadline := time.Now().Add(5 * time.Second)
	for {
		rec := ta.do(t, http.MethodGet, "/api/v1/admin/import/status", ta.admin, nil)
		body := rec.Body.String()
		if rec.Code == http.StatusOK && (contains(body, `"done"`) || contains(body, `"failed"`)) {
			if contains(body, `"failed"`) {
				t.Fatalf("job failed: %s", body)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job never finished: %s", body)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestStatsEndpoint(t *testing.T) {
	ta := newTestAPI(t)

	rec := ta.do(t, http.MethodGet, "/api/v1/stats", ta.user, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data := decodeResponse(t, rec).Data.(map[string]any)
	if data["total_shows"].(float64) != 2 {
		t.Fatalf("total_shows = %v, want 2", data["total_shows"])
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

func contains(s, sub string) bool {
	return strings.Contains(s, sub)
}

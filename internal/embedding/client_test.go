// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package embedding

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/jurrian/moviedb/internal/config"
)

func testClientConfig(baseURL string) *config.EmbeddingConfig {
	return &config.EmbeddingConfig{
		BaseURL:           baseURL,
		APIKey:            "test-key",
		Model:             "text-embedding-3-small",
		ChatModel:         "gpt-5-nano",
		Dimensions:        3,
		BatchSize:         100,
		RequestsPerSecond: 100,
		Timeout:           5 * time.Second,
	}
}

func TestEmbed(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var req embeddingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "text-embedding-3-small" {
			t.Errorf("model = %q", req.Model)
		}

		// Respond out of order; the client must reorder by index.
		resp := map[string]any{"data": []map[string]any{
			{"index": 1, "embedding": []float32{0, 1, 0}},
			{"index": 0, "embedding": []float32{1, 0, 0}},
		}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := NewClient(testClientConfig(srv.URL))
	vectors, err := client.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vectors))
	}
	if vectors[0][0] != 1 || vectors[1][1] != 1 {
		t.Errorf("vectors not reordered by index: %v", vectors)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestEmbedPadsDimension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := map[string]any{"data": []map[string]any{
			{"index": 0, "embedding": []float32{1, 2}}, // shorter than configured dim 3
		}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := NewClient(testClientConfig(srv.URL))
	vectors, err := client.Embed(context.Background(), []string{"short"})
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if len(vectors[0]) != 3 || vectors[0][2] != 0 {
		t.Errorf("vector = %v, want zero-padded to dim 3", vectors[0])
	}
}

func TestEmbedAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
	}))
	defer srv.Close()

	client := NewClient(testClientConfig(srv.URL))
	if _, err := client.Embed(context.Background(), []string{"x"}); err == nil {
		t.Fatal("Embed() should fail on API error")
	}
}

func TestEmbedNoAPIKey(t *testing.T) {
	cfg := testClientConfig("http://localhost:0")
	cfg.APIKey = ""
	client := NewClient(cfg)

	if _, err := client.Embed(context.Background(), []string{"x"}); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("error = %v, want ErrNoAPIKey", err)
	}
}

func TestEmbedEmptyInput(t *testing.T) {
	client := NewClient(testClientConfig("http://localhost:0"))
	vectors, err := client.Embed(context.Background(), nil)
	if err != nil || vectors != nil {
		t.Errorf("Embed(nil) = %v, %v; want nil, nil", vectors, err)
	}
}

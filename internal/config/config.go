// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

// Package config provides layered configuration for MovieDB using Koanf v2.
//
// Configuration is loaded in three layers, highest priority last:
//
//  1. Built-in defaults
//  2. Optional YAML config file (config.yaml, or CONFIG_PATH)
//  3. Environment variables
//
// The environment layer keeps the variable names from the original
// deployment docs: SECRET_KEY feeds JWT signing, OPENAI_API_KEY feeds the
// embedding client, STREAMING_AVAILABILITY_API_KEY feeds the remote
// streaming-availability import.
//
// Config is immutable after Load() and safe for concurrent reads.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Motn      MotnConfig      `koanf:"motn"`
	Imdb      ImdbConfig      `koanf:"imdb"`
	Search    SearchConfig    `koanf:"search"`
	Cache     CacheConfig     `koanf:"cache"`
	API       APIConfig       `koanf:"api"`
}

// ServerConfig holds HTTP server settings for the dashboard process.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// IsDevelopment reports whether the server runs in development mode.
func (c *ServerConfig) IsDevelopment() bool {
	return c.Environment != "production"
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file location.
	Path string `koanf:"path"`

	// MaxMemory limits DuckDB memory usage (e.g. "2GB").
	MaxMemory string `koanf:"max_memory"`

	// Threads sets DuckDB worker threads. 0 means runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// SecurityConfig holds authentication and request-limiting settings.
//
// AuthMode "jwt" requires JWTSecret (SECRET_KEY), AdminUsername, and
// AdminPassword. AuthMode "none" disables authentication and is meant for
// local development only.
type SecurityConfig struct {
	AuthMode        string        `koanf:"auth_mode"`
	JWTSecret       string        `koanf:"jwt_secret"`
	SessionTimeout  time.Duration `koanf:"session_timeout"`
	AdminUsername   string        `koanf:"admin_username"`
	AdminPassword   string        `koanf:"admin_password"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// EmbeddingConfig holds settings for the OpenAI-compatible embeddings API.
type EmbeddingConfig struct {
	// BaseURL is the embeddings API root. Any OpenAI-compatible server works.
	BaseURL string `koanf:"base_url"`

	// APIKey authenticates against the embeddings API (OPENAI_API_KEY).
	APIKey string `koanf:"api_key"`

	// Model is the embedding model name.
	Model string `koanf:"model"`

	// ChatModel is the chat completions model used to generate judgment
	// queries for the offline search evaluation.
	ChatModel string `koanf:"chat_model"`

	// Dimensions is the embedding vector size. Vectors shorter than this
	// (e.g. from local sentence-transformer servers) are zero-padded.
	Dimensions int `koanf:"dimensions"`

	// BatchSize is the number of texts per embeddings request.
	BatchSize int `koanf:"batch_size"`

	// RequestsPerSecond throttles API calls. 0 disables throttling.
	RequestsPerSecond float64 `koanf:"requests_per_second"`

	// Timeout bounds a single embeddings request.
	Timeout time.Duration `koanf:"timeout"`
}

// MotnConfig holds settings for the Movie-of-the-Night streaming
// availability API (https://docs.movieofthenight.com/).
type MotnConfig struct {
	// APIKey is the RapidAPI key (STREAMING_AVAILABILITY_API_KEY).
	APIKey string `koanf:"api_key"`

	// Host is the RapidAPI host header value.
	Host string `koanf:"host"`

	// BaseURL is the API root for the filtered shows search.
	BaseURL string `koanf:"base_url"`

	// Country filters availability by country code.
	Country string `koanf:"country"`

	// Catalog filters by streaming catalog (e.g. "netflix").
	Catalog string `koanf:"catalog"`

	// OrderBy is the API sort field for paginated fetches.
	OrderBy string `koanf:"order_by"`

	// OrderDirection is the API sort direction ("asc" or "desc").
	OrderDirection string `koanf:"order_direction"`

	// BatchSize is the number of shows per database write batch.
	BatchSize int `koanf:"batch_size"`

	// SnapshotDir is where raw API responses are written during remote
	// imports, for later offline re-import.
	SnapshotDir string `koanf:"snapshot_dir"`

	// RequestsPerSecond throttles RapidAPI calls.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// ImdbConfig holds settings for the IMDb dataset import.
type ImdbConfig struct {
	// DatasetURL is the title.basics download location.
	DatasetURL string `koanf:"dataset_url"`

	// DataDir is where downloaded datasets are cached.
	DataDir string `koanf:"data_dir"`

	// BatchSize is the number of rows per database write batch.
	BatchSize int `koanf:"batch_size"`
}

// SearchConfig holds retrieval and ranking settings.
type SearchConfig struct {
	// TopK is the default number of search results.
	TopK int `koanf:"top_k"`

	// CandidatePool is how many nearest neighbours are fetched before
	// reranking.
	CandidatePool int `koanf:"candidate_pool"`

	// Alpha blends query and user vectors: alpha*query + (1-alpha)*user.
	Alpha float64 `koanf:"alpha"`

	// MinInteractions is the minimum embedded interactions required before
	// a user taste vector is used.
	MinInteractions int `koanf:"min_interactions"`

	// IndexRefreshInterval is how often the in-memory vector index is
	// rebuilt from the database.
	IndexRefreshInterval time.Duration `koanf:"index_refresh_interval"`
}

// CacheConfig holds BadgerDB settings for progress tracking and the
// search response cache.
type CacheConfig struct {
	Path      string        `koanf:"path"`
	SearchTTL time.Duration `koanf:"search_ttl"`
}

// APIConfig holds pagination limits.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// Validate checks configuration consistency. It is called by Load after
// all layers are merged.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	switch c.Security.AuthMode {
	case "jwt":
		if len(c.Security.JWTSecret) < 32 {
			return fmt.Errorf("SECRET_KEY must be at least 32 characters when auth_mode is jwt")
		}
		if c.Security.AdminUsername == "" || c.Security.AdminPassword == "" {
			return fmt.Errorf("admin username and password are required when auth_mode is jwt")
		}
		if len(c.Security.AdminPassword) < 8 {
			return fmt.Errorf("admin password must be at least 8 characters")
		}
	case "none":
		// Development mode, nothing to check.
	default:
		return fmt.Errorf("unknown auth_mode %q (want jwt or none)", c.Security.AuthMode)
	}

	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if c.Embedding.BatchSize <= 0 {
		return fmt.Errorf("embedding batch_size must be positive, got %d", c.Embedding.BatchSize)
	}

	if c.Search.Alpha < 0 || c.Search.Alpha > 1 {
		return fmt.Errorf("search alpha must be in [0,1], got %g", c.Search.Alpha)
	}
	if c.Search.TopK <= 0 || c.Search.CandidatePool < c.Search.TopK {
		return fmt.Errorf("search candidate_pool (%d) must be >= top_k (%d) and top_k positive",
			c.Search.CandidatePool, c.Search.TopK)
	}

	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("api max_page_size (%d) must be >= default_page_size (%d)",
			c.API.MaxPageSize, c.API.DefaultPageSize)
	}

	return nil
}

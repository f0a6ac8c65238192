// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/moviedb/config.yaml",
	"/etc/moviedb/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8501,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Database: DatabaseConfig{
			Path:      "/data/moviedb.duckdb",
			MaxMemory: "2GB",
			Threads:   0, // 0 = runtime.NumCPU()
		},
		Security: SecurityConfig{
			AuthMode:        "jwt",
			JWTSecret:       "",
			SessionTimeout:  24 * time.Hour,
			AdminUsername:   "",
			AdminPassword:   "",
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Embedding: EmbeddingConfig{
			BaseURL:           "https://api.openai.com/v1",
			APIKey:            "",
			Model:             "text-embedding-3-small",
			ChatModel:         "gpt-5-nano",
			Dimensions:        1536,
			BatchSize:         1000,
			RequestsPerSecond: 2,
			Timeout:           60 * time.Second,
		},
		Motn: MotnConfig{
			APIKey:            "",
			Host:              "streaming-availability.p.rapidapi.com",
			BaseURL:           "https://streaming-availability.p.rapidapi.com",
			Country:           "nl",
			Catalog:           "netflix",
			OrderBy:           "release_date",
			OrderDirection:    "desc",
			BatchSize:         500,
			SnapshotDir:       "/data/motn",
			RequestsPerSecond: 1,
		},
		Imdb: ImdbConfig{
			DatasetURL: "https://datasets.imdbws.com/title.basics.tsv.gz",
			DataDir:    "/data/imdb",
			BatchSize:  5000,
		},
		Search: SearchConfig{
			TopK:                 20,
			CandidatePool:        200,
			Alpha:                0.5,
			MinInteractions:      3,
			IndexRefreshInterval: 15 * time.Minute,
		},
		Cache: CacheConfig{
			Path:      "/data/cache",
			SearchTTL: 5 * time.Minute,
		},
		API: APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
	}
}

// Load reads configuration from defaults, an optional YAML file, and
// environment variables (highest priority), then validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices
// when they arrive as env var strings.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated env strings into slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names onto koanf config
// paths. The flat names from the original deployment docs are preserved:
//
//   - SECRET_KEY                      -> security.jwt_secret
//   - OPENAI_API_KEY                  -> embedding.api_key
//   - STREAMING_AVAILABILITY_API_KEY  -> motn.api_key
//   - DUCKDB_PATH                     -> database.path
//   - HTTP_PORT                       -> server.port
//
// Anything else must use the SECTION_FIELD convention (e.g. SEARCH_TOP_K).
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Deployment doc variables
		"secret_key":                     "security.jwt_secret",
		"openai_api_key":                 "embedding.api_key",
		"openai_embedding_model":         "embedding.model",
		"openai_embedding_dim":           "embedding.dimensions",
		"openai_chat_model":              "embedding.chat_model",
		"streaming_availability_api_key": "motn.api_key",

		// Server
		"http_port":        "server.port",
		"http_host":        "server.host",
		"environment":      "server.environment",
		"shutdown_timeout": "server.shutdown_timeout",

		// Database
		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",

		// Security
		"auth_mode":         "security.auth_mode",
		"jwt_secret":        "security.jwt_secret",
		"session_timeout":   "security.session_timeout",
		"admin_username":    "security.admin_username",
		"admin_password":    "security.admin_password",
		"rate_limit_reqs":   "security.rate_limit_reqs",
		"rate_limit_window": "security.rate_limit_window",
		"cors_origins":      "security.cors_origins",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// SECTION_FIELD -> section.field for known sections.
	for _, section := range []string{"server", "database", "security", "logging",
		"embedding", "motn", "imdb", "search", "cache", "api"} {
		prefix := section + "_"
		if strings.HasPrefix(key, prefix) {
			return section + "." + strings.TrimPrefix(key, prefix)
		}
	}

	// Unknown variables are ignored rather than polluting the config tree.
	return ""
}

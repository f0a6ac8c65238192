// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/jurrian/moviedb/internal/logging"
	"github.com/jurrian/moviedb/internal/models"
)

type imdbImportRequest struct {
	// Source overrides the dataset file path; empty means download the
	// default IMDb basics dataset.
	Source string `json:"source,omitempty"`
}

type streamingImportRequest struct {
	// File is a local newline-delimited JSON export (gzip). Empty means
	// fetch from the Streaming Availability API.
	File string `json:"file,omitempty"`
}

type embeddingsBuildRequest struct {
	// Limit caps how many shows get embedded this run; 0 means all.
	Limit int `json:"limit,omitempty" validate:"omitempty,min=0"`
}

// startJob launches fn through the job runner and replies 202 or 409.
func (s *Server) startJob(w http.ResponseWriter, name string, fn func(ctx context.Context) (any, error)) {
	if err := s.jobs.Start(name, fn); err != nil {
		if errors.Is(err, ErrJobRunning) {
			respondError(w, http.StatusConflict, codeConflict, "another pipeline job is already running")
			return
		}
		logging.Error().Err(err).Str("job", name).Msg("job start failed")
		respondError(w, http.StatusInternalServerError, codeService, "could not start job")
		return
	}
	respondSuccess(w, http.StatusAccepted, map[string]string{"job": name, "state": "running"}, models.Metadata{})
}

// refreshAfterImport rebuilds the vector index and drops cached search
// responses after the catalog changed.
func (s *Server) refreshAfterImport(ctx context.Context) {
	if err := s.engine.Index().Refresh(ctx, s.db); err != nil {
		logging.Error().Err(err).Msg("index refresh after import failed")
	}
	s.engine.InvalidateCache()
}

func (s *Server) handleImportImdb(w http.ResponseWriter, r *http.Request) {
	var req imdbImportRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, codeValidation, "invalid request body")
			return
		}
	}

	s.startJob(w, "import_imdb", func(ctx context.Context) (any, error) {
		result, err := s.imdb.Run(ctx, req.Source)
		if err != nil {
			return nil, err
		}
		return result, nil
	})
}

func (s *Server) handleImportStreaming(w http.ResponseWriter, r *http.Request) {
	var req streamingImportRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, codeValidation, "invalid request body")
			return
		}
	}

	s.startJob(w, "import_streaming", func(ctx context.Context) (any, error) {
		var result any
		var err error
		if req.File != "" {
			result, err = s.motn.ImportFile(ctx, req.File)
		} else {
			result, err = s.remote.Run(ctx)
		}
		if err != nil {
			return nil, err
		}
		s.refreshAfterImport(ctx)
		return result, nil
	})
}

func (s *Server) handleBuildEmbeddings(w http.ResponseWriter, r *http.Request) {
	var req embeddingsBuildRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, codeValidation, "invalid request body")
			return
		}
		if err := s.validate.Struct(&req); err != nil {
			respondError(w, http.StatusBadRequest, codeValidation, "limit must be >= 0")
			return
		}
	}

	s.startJob(w, "build_embeddings", func(ctx context.Context) (any, error) {
		result, err := s.builder.Run(ctx, req.Limit, 0)
		if err != nil {
			return nil, err
		}
		s.refreshAfterImport(ctx)
		return result, nil
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, s.jobs.Statuses(), models.Metadata{})
}

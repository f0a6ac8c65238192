// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jurrian/moviedb/internal/logging"
)

// HTTPServer matches *api.Server's lifecycle methods.
type HTTPServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// HTTPService adapts the blocking HTTP server to suture's context-aware
// Serve contract.
type HTTPService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
}

func NewHTTPService(server HTTPServer, shutdownTimeout time.Duration) *HTTPService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve blocks until the server fails or ctx is canceled, then drains
// connections. http.ErrServerClosed counts as a clean stop.
func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("HTTP server shutdown failed")
		}
		return ctx.Err()
	}
}

func (s *HTTPService) String() string { return "http-server" }

// Refresher matches *search.Index's reload entry point via a closure.
type Refresher func(ctx context.Context) error

// RefreshService periodically rebuilds the in-memory vector index so
// rows embedded by background jobs become searchable without a restart.
type RefreshService struct {
	refresh  Refresher
	interval time.Duration
}

func NewRefreshService(refresh Refresher, interval time.Duration) *RefreshService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &RefreshService{refresh: refresh, interval: interval}
}

func (s *RefreshService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.refresh(ctx); err != nil {
				logging.Error().Err(err).Msg("index refresh failed")
			}
		}
	}
}

func (s *RefreshService) String() string { return "index-refresher" }

// GCService runs Badger value-log garbage collection on a fixed cadence.
type GCService struct {
	gc       func()
	interval time.Duration
}

func NewGCService(gc func(), interval time.Duration) *GCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &GCService{gc: gc, interval: interval}
}

func (s *GCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.gc()
		}
	}
}

func (s *GCService) String() string { return "cache-gc" }

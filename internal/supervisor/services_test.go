// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

type fakeServer struct {
	started  chan struct{}
	stop     chan struct{}
	shutdown atomic.Bool
}

func newFakeServer() *fakeServer {
	return &fakeServer{started: make(chan struct{}), stop: make(chan struct{})}
}

func (f *fakeServer) Start() error {
	close(f.started)
	<-f.stop
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(ctx context.Context) error {
	f.shutdown.Store(true)
	close(f.stop)
	return nil
}

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	srv := newFakeServer()
	svc := NewHTTPService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	<-srv.started
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	if !srv.shutdown.Load() {
		t.Fatal("Shutdown was not called")
	}
}

func TestHTTPServicePropagatesStartError(t *testing.T) {
	boom := errors.New("listen failed")
	svc := NewHTTPService(startFunc(func() error { return boom }), time.Second)

	if err := svc.Serve(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Serve returned %v, want %v", err, boom)
	}
}

type startFunc func() error

func (f startFunc) Start() error                      { return f() }
func (f startFunc) Shutdown(ctx context.Context) error { return nil }

func TestRefreshServiceTicks(t *testing.T) {
	var calls atomic.Int32
	svc := NewRefreshService(func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Serve returned %v, want deadline exceeded", err)
	}
	if calls.Load() == 0 {
		t.Fatal("refresh was never called")
	}
}

func TestGCServiceStopsOnCancel(t *testing.T) {
	svc := NewGCService(func() {}, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Serve returned %v, want context.Canceled", err)
	}
}

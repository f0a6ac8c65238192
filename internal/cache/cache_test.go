// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package cache

import (
	"errors"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open("")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSetGet(t *testing.T) {
	store := newTestStore(t)

	if err := store.Set("k1", []byte("v1"), 0); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	got, err := store.Get("k1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if string(got) != "v1" {
		t.Errorf("Get() = %q, want %q", got, "v1")
	}
}

func TestGetMiss(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Get("absent"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get() error = %v, want ErrMiss", err)
	}
}

func TestTTLExpiry(t *testing.T) {
	store := newTestStore(t)

	if err := store.Set("ephemeral", []byte("x"), 50*time.Millisecond); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	if _, err := store.Get("ephemeral"); !errors.Is(err, ErrMiss) {
		t.Errorf("expired Get() error = %v, want ErrMiss", err)
	}
}

func TestDeletePrefix(t *testing.T) {
	store := newTestStore(t)

	for _, key := range []string{"search:a", "search:b", "job:import"} {
		if err := store.Set(key, []byte("x"), 0); err != nil {
			t.Fatalf("Set(%q) error: %v", key, err)
		}
	}
	if err := store.DeletePrefix("search:"); err != nil {
		t.Fatalf("DeletePrefix() error: %v", err)
	}

	if _, err := store.Get("search:a"); !errors.Is(err, ErrMiss) {
		t.Errorf("prefixed key survived DeletePrefix")
	}
	if _, err := store.Get("job:import"); err != nil {
		t.Errorf("unrelated key deleted: %v", err)
	}
}

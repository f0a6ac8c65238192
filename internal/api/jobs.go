// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jurrian/moviedb/internal/logging"
)

// ErrJobRunning is returned when a pipeline job is triggered while a
// previous run is still in flight.
var ErrJobRunning = errors.New("job already running")

// JobStatus describes one admin pipeline job.
type JobStatus struct {
	Name       string     `json:"name"`
	State      string     `json:"state"` // idle | running | done | failed
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
	Result     any        `json:"result,omitempty"`
}

// jobRunner serializes the long-running import and embedding jobs and
// keeps their latest status for the admin status endpoint. Only one job
// runs at a time; imports and embedding builds contend for the same
// database writer.
type jobRunner struct {
	mu      sync.Mutex
	running bool
	jobs    map[string]*JobStatus
}

func newJobRunner() *jobRunner {
	return &jobRunner{jobs: make(map[string]*JobStatus)}
}

// Start launches fn in the background under name. Returns ErrJobRunning
// when any job is active.
func (jr *jobRunner) Start(name string, fn func(ctx context.Context) (any, error)) error {
	jr.mu.Lock()
	defer jr.mu.Unlock()

	if jr.running {
		return fmt.Errorf("%w", ErrJobRunning)
	}
	jr.running = true

	now := time.Now().UTC()
	status := &JobStatus{Name: name, State: "running", StartedAt: &now}
	jr.jobs[name] = status

	go func() {
		logging.Info().Str("job", name).Msg("Pipeline job started")
		result, err := fn(context.Background())

		jr.mu.Lock()
		defer jr.mu.Unlock()
		finished := time.Now().UTC()
		status.FinishedAt = &finished
		jr.running = false

		if err != nil {
			status.State = "failed"
			status.Error = err.Error()
			logging.Error().Err(err).Str("job", name).Msg("Pipeline job failed")
			return
		}
		status.State = "done"
		status.Result = result
		logging.Info().Str("job", name).Msg("Pipeline job finished")
	}()

	return nil
}

// Statuses returns a snapshot of all known jobs.
func (jr *jobRunner) Statuses() []JobStatus {
	jr.mu.Lock()
	defer jr.mu.Unlock()

	out := make([]JobStatus, 0, len(jr.jobs))
	for _, status := range jr.jobs {
		out = append(out, *status)
	}
	return out
}

// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package search

import (
	"context"
	"fmt"

	"github.com/jurrian/moviedb/internal/logging"
)

// Hit scoring for offline relevance evaluation: each show stores
// generated judgment queries; searching for such a query should surface
// that show.

// HitAt reports whether target appears anywhere in outputs.
func HitAt(outputs []int64, target int64) bool {
	for _, id := range outputs {
		if id == target {
			return true
		}
	}
	return false
}

// ReciprocalRank returns 1/rank of target in outputs, 0 when absent.
func ReciprocalRank(outputs []int64, target int64) float64 {
	for i, id := range outputs {
		if id == target {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

// RankScore maps the target's position to [0,1]: 1 when first, 0 when
// last. Returns an error when the target is missing or outputs is empty.
func RankScore(outputs []int64, target int64) (float64, error) {
	if len(outputs) == 0 {
		return 0, fmt.Errorf("rank score undefined for empty outputs")
	}
	for i, id := range outputs {
		if id == target {
			if len(outputs) == 1 {
				return 1, nil
			}
			return 1 - float64(i)/float64(len(outputs)-1), nil
		}
	}
	return 0, fmt.Errorf("target show %d not present in outputs", target)
}

// EvalReport aggregates scorer results over an evaluation run.
type EvalReport struct {
	Queries  int     `json:"queries"`
	Hits     int     `json:"hits"`
	HitRate  float64 `json:"hit_rate"`
	MRR      float64 `json:"mrr"`
	MeanRank float64 `json:"mean_rank_score"`
}

// Evaluate runs every stored judgment query of up to maxShows shows
// through Search and scores how well each show's own queries retrieve
// it. Mean rank score only covers queries that hit.
func (e *Engine) Evaluate(ctx context.Context, maxShows, topK int) (*EvalReport, error) {
	shows, err := e.db.ListShowsWithRelevantQueries(ctx, maxShows)
	if err != nil {
		return nil, err
	}
	if len(shows) == 0 {
		return nil, fmt.Errorf("no shows with judgment queries; run query generation first")
	}

	report := &EvalReport{}
	var rankSum float64

	for _, show := range shows {
		for _, query := range show.RelevantQueries {
			results, _, err := e.Search(ctx, query, 0, topK, -1)
			if err != nil {
				return nil, fmt.Errorf("evaluation query %q failed: %w", query, err)
			}

			outputs := make([]int64, len(results))
			for i, r := range results {
				outputs[i] = r.Show.ID
			}

			report.Queries++
			report.MRR += ReciprocalRank(outputs, show.ID)
			if HitAt(outputs, show.ID) {
				report.Hits++
				if score, err := RankScore(outputs, show.ID); err == nil {
					rankSum += score
				}
			}
		}
	}

	if report.Queries > 0 {
		report.HitRate = float64(report.Hits) / float64(report.Queries)
		report.MRR /= float64(report.Queries)
	}
	if report.Hits > 0 {
		report.MeanRank = rankSum / float64(report.Hits)
	}

	logging.Info().
		Int("queries", report.Queries).
		Float64("hit_rate", report.HitRate).
		Float64("mrr", report.MRR).
		Msg("Relevance evaluation finished")
	return report, nil
}

// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package search

import (
	"strings"

	"github.com/jurrian/moviedb/internal/models"
)

// ScoreInput carries everything the recommendation scorer looks at for
// one candidate show.
type ScoreInput struct {
	// SimUser is the cosine similarity to the user taste vector.
	SimUser float64

	// SimQuery is the cosine similarity to the query vector.
	SimQuery float64

	// Rating is the show's 0-10 rating, 0 when unknown.
	Rating float64

	// GenreOverlap is the fraction of the show's genres the user
	// favours, in [0,1].
	GenreOverlap float64

	// Watched marks shows already in the user's history.
	Watched bool

	// Thumbs is the user's rating for this show, nil when unrated.
	Thumbs *int
}

// ComputeScore ranks a candidate for personalized recommendations.
// Embedding similarity dominates; the rating prior and genre alignment
// nudge; history pushes watched shows down without removing them and
// lets explicit thumbs override.
func ComputeScore(in ScoreInput) float64 {
	score := 0.5*in.SimUser + 0.3*in.SimQuery
	score += 0.1 * (in.Rating / 10)
	score += 0.1 * in.GenreOverlap

	if in.Watched {
		score -= 0.5
	}
	if in.Thumbs != nil {
		switch *in.Thumbs {
		case models.ThumbsWayUp:
			score += 0.4
		case models.ThumbsUp:
			score += 0.2
		case models.ThumbsDown:
			score -= 0.7
		}
	}
	return score
}

// GenreOverlap returns the fraction of a show's genres found in the
// user's favoured set. Shows without genres score 0.
func GenreOverlap(showGenres []string, favoured map[string]struct{}) float64 {
	if len(showGenres) == 0 || len(favoured) == 0 {
		return 0
	}
	matched := 0
	for _, g := range showGenres {
		if _, ok := favoured[strings.ToLower(g)]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(showGenres))
}

// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package search

import (
	"context"

	"github.com/jurrian/moviedb/internal/database"
	"github.com/jurrian/moviedb/internal/embedding"
)

// TasteVector builds a unit-length user profile as the weighted average
// of the embeddings of watched shows. Thumbs-way-up views weigh 3x,
// thumbs-up 2x, thumbs-down 0.2x, unrated 1x. Returns nil when the
// result would collapse to zero.
func TasteVector(interactions []database.EmbeddedInteraction) []float32 {
	if len(interactions) == 0 {
		return nil
	}

	vectors := make([][]float32, 0, len(interactions))
	weights := make([]float64, 0, len(interactions))
	for i := range interactions {
		if len(interactions[i].Embedding) == 0 {
			continue
		}
		vectors = append(vectors, interactions[i].Embedding)
		weights = append(weights, interactions[i].Interaction.TasteWeight())
	}

	avg := embedding.WeightedAverage(vectors, weights)
	if avg == nil {
		return nil
	}
	return embedding.Normalize(avg)
}

// userVector loads a user's taste profile, or nil when the user has
// fewer than minInteractions embedded views.
func userVector(ctx context.Context, db *database.DB, userID int64, minInteractions int) ([]float32, error) {
	interactions, err := db.ListEmbeddedInteractions(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(interactions) < minInteractions {
		return nil, nil
	}
	return TasteVector(interactions), nil
}

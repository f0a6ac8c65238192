// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

// Package embedding turns show metadata into semantic vectors via an
// OpenAI-compatible embeddings endpoint and provides the vector math
// used by the search engine.
package embedding

import "math"

// Cosine returns the cosine similarity of two vectors, 0 when either has
// zero norm or the dimensions differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Norm returns the Euclidean norm of a vector.
func Norm(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// Normalize returns a unit-length copy of vec, or nil when vec has zero norm.
func Normalize(vec []float32) []float32 {
	norm := Norm(vec)
	if norm == 0 {
		return nil
	}
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

// WeightedAverage computes the weighted mean of vectors. Vectors whose
// dimension differs from the first are skipped; returns nil when no
// vector contributes or all weights are zero.
func WeightedAverage(vectors [][]float32, weights []float64) []float32 {
	if len(vectors) == 0 || len(vectors) != len(weights) {
		return nil
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil
	}

	acc := make([]float64, dim)
	var total float64
	for i, vec := range vectors {
		if len(vec) != dim || weights[i] == 0 {
			continue
		}
		for j, v := range vec {
			acc[j] += float64(v) * weights[i]
		}
		total += weights[i]
	}
	if total == 0 {
		return nil
	}

	out := make([]float32, dim)
	for i, v := range acc {
		out[i] = float32(v / total)
	}
	return out
}

// Blend mixes a query vector with a user taste vector:
// alpha*query + (1-alpha)*user, normalized to unit length. When the user
// vector is missing, mismatched, or the blend collapses to zero norm, the
// query vector wins unchanged.
func Blend(query, user []float32, alpha float64) []float32 {
	if len(user) != len(query) || len(query) == 0 {
		return query
	}

	mixed := make([]float32, len(query))
	for i := range query {
		mixed[i] = float32(alpha*float64(query[i]) + (1-alpha)*float64(user[i]))
	}

	if normalized := Normalize(mixed); normalized != nil {
		return normalized
	}
	return query
}

// Pad returns vec extended with zeros to dim, or truncated when longer.
// Used when a fallback embedding model emits a different dimension than
// the index expects.
func Pad(vec []float32, dim int) []float32 {
	if len(vec) == dim {
		return vec
	}
	out := make([]float32, dim)
	copy(out, vec)
	return out
}

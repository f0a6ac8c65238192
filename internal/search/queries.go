// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/jurrian/moviedb/internal/database"
	"github.com/jurrian/moviedb/internal/logging"
)

// queryGenPrompt instructs the chat model to produce search queries a
// user might type to find a show without knowing its title. The model
// must answer with a bare JSON array of strings.
const queryGenPrompt = `You are an expert in generating user search queries for a movie/series recommender system.

TASK
Given the description of a TV series or movie, generate 5 different natural search queries that
a user might type to find such a show WITHOUT knowing its title.

Each query MUST:
- be in English
- sound like a real user search query
- focus on key themes, setting, tone, genre, or main conflict
- be 6-20 words
- be at most 120 characters
- be meaningfully different from the others (not minor paraphrases)

STRICT PROHIBITIONS
- DO NOT include the show title, year, actor names, or character names.
- DO NOT include company names, franchises, or IP.
- DO NOT use numbers of any kind (no years, no seasons, no episode counts).
- DO NOT copy phrases from the input description.
- DO NOT overuse any single adjective.

STYLE
- Write in casual, natural language a typical user would type into a search box.
- You may start with phrases like "looking for", "want a", "tv show about", but vary these across queries.
- Avoid marketing language or review-style phrasing.

OUTPUT FORMAT
Return ONLY a JSON array of 5 strings, with no additional text.`

// Completer produces chat completions. Satisfied by *embedding.Client.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// QueryGenerator fills shows' judgment queries via a chat model, so the
// offline evaluation has relevance labels to score against.
type QueryGenerator struct {
	db     *database.DB
	client Completer
}

// NewQueryGenerator creates a generator over the given store and model.
func NewQueryGenerator(db *database.DB, client Completer) *QueryGenerator {
	return &QueryGenerator{db: db, client: client}
}

// GenerateResult summarizes one generation run.
type GenerateResult struct {
	Generated int           `json:"generated"`
	Failed    int           `json:"failed"`
	Existing  int64         `json:"existing"`
	Duration  time.Duration `json:"-"`
}

// Run generates judgment queries until target shows carry them. Shows
// already judged count toward the target; candidates are sampled at
// random from the unjudged shows that have an overview. target <= 0
// means every candidate.
func (g *QueryGenerator) Run(ctx context.Context, target int) (*GenerateResult, error) {
	start := time.Now()

	existing, err := g.db.CountShowsWithRelevantQueries(ctx)
	if err != nil {
		return nil, err
	}
	result := &GenerateResult{Existing: existing}

	needed := 0 // all candidates
	if target > 0 {
		needed = target - int(existing)
		if needed <= 0 {
			logging.Info().
				Int64("existing", existing).
				Int("target", target).
				Msg("Judgment query target already met")
			result.Duration = time.Since(start)
			return result, nil
		}
	}

	shows, err := g.db.ShowsNeedingQueries(ctx, needed)
	if err != nil {
		return nil, err
	}
	if len(shows) == 0 {
		logging.Info().Msg("No shows available for judgment query generation")
		result.Duration = time.Since(start)
		return result, nil
	}
	logging.Info().
		Int64("existing", existing).
		Int("candidates", len(shows)).
		Msg("Starting judgment query generation")

	for _, show := range shows {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		content, err := g.client.Complete(ctx, queryGenPrompt, show.EmbeddingText())
		if err != nil {
			return result, fmt.Errorf("query generation failed after %d shows: %w", result.Generated, err)
		}

		queries, err := parseQueryList(content)
		if err != nil {
			logging.Warn().Err(err).Int64("show_id", show.ID).Msg("Discarding malformed query list")
			result.Failed++
			continue
		}

		if err := g.db.SetRelevantQueries(ctx, show.ID, queries); err != nil {
			return result, err
		}
		result.Generated++
	}

	result.Duration = time.Since(start)
	logging.Info().
		Int("generated", result.Generated).
		Int("failed", result.Failed).
		Dur("duration", result.Duration).
		Msg("Judgment query generation finished")
	return result, nil
}

// parseQueryList decodes the model answer into a non-empty string list.
// Markdown code fences around the JSON are tolerated.
func parseQueryList(content string) ([]string, error) {
	content = strings.TrimSpace(content)
	if after, ok := strings.CutPrefix(content, "```json"); ok {
		content = after
	} else if after, ok := strings.CutPrefix(content, "```"); ok {
		content = after
	}
	content = strings.TrimSpace(strings.TrimSuffix(content, "```"))

	var queries []string
	if err := json.Unmarshal([]byte(content), &queries); err != nil {
		return nil, fmt.Errorf("not a JSON string array: %w", err)
	}

	cleaned := queries[:0]
	for _, q := range queries {
		if q = strings.TrimSpace(q); q != "" {
			cleaned = append(cleaned, q)
		}
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("query list is empty")
	}
	return cleaned, nil
}

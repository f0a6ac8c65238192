// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

// Package importer loads the show catalog from the Streaming Availability
// (Movie of the Night) API and the public IMDb datasets.
package importer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/jurrian/moviedb/internal/models"
)

var (
	netflixIDPattern = regexp.MustCompile(`https://www\.netflix\.com/(?:title|watch)/(\d+)/?`)
	digitsPattern    = regexp.MustCompile(`(\d+)`)
	unsafePattern    = regexp.MustCompile(`[^\w.-]+`)
)

// MapShow converts one raw Streaming Availability API object into a Show.
// Returns nil when the object carries no id.
func MapShow(raw map[string]any) *models.Show {
	motnID := stringField(raw, "id")
	if motnID == "" {
		return nil
	}

	show := &models.Show{
		MotnID:           motnID,
		Title:            stringField(raw, "title"),
		OriginalTitle:    stringField(raw, "originalTitle"),
		Overview:         stringField(raw, "overview"),
		ShowType:         stringField(raw, "showType"),
		ImdbID:           stringField(raw, "imdbId"),
		OriginalLanguage: stringField(raw, "originalLanguage"),
	}

	show.Year = parseInt(firstPresent(raw, "releaseYear", "firstAirYear", "year"))
	show.Runtime = parseInt(raw["runtime"])
	show.SeasonCount = parseInt(raw["seasonCount"])
	show.EpisodeCount = parseInt(raw["episodeCount"])
	show.AgeCertification = ageCertification(raw)

	show.ImdbRating = parseRating(firstPresent(raw, "imdbRating", "rating"))
	show.ImdbVoteCount = parseInt(raw["imdbVoteCount"])
	show.TmdbID = parseTmdbID(raw["tmdbId"])
	show.TmdbRating = parseRating(raw["tmdbRating"])

	show.Genres = genreNames(raw["genres"])
	show.Cast = stringList(raw["cast"])
	show.Directors = stringList(firstPresent(raw, "directors", "creators"))
	show.Countries = stringList(firstPresent(raw, "countries", "productionCountries"))
	show.Tags = stringList(firstPresent(raw, "keywords", "tags"))

	if imageSet, ok := raw["imageSet"].(map[string]any); ok {
		show.PosterURLs = stringMap(firstPresent(imageSet, "verticalPoster", "horizontalPoster"))
		show.BackdropURLs = stringMap(firstPresent(imageSet, "horizontalBackdrop", "verticalBackdrop"))
	}

	if options, ok := raw["streamingOptions"].(map[string]any); ok {
		show.StreamingOptions = options
		show.SourceID = netflixSourceID(options)
	}

	return show
}

// netflixSourceID digs the Netflix title number out of the streaming
// option URLs, when one is present.
func netflixSourceID(options map[string]any) *int64 {
	encoded, err := json.Marshal(options)
	if err != nil {
		return nil
	}
	m := netflixIDPattern.FindSubmatch(encoded)
	if m == nil {
		return nil
	}
	id, err := strconv.ParseInt(string(m[1]), 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

// ageCertification prefers the explicit certification, falling back to the
// advised minimum age. The IMDb null marker "\N" counts as absent.
func ageCertification(raw map[string]any) string {
	val := stringField(raw, "ageCertification")
	if val == "" || val == `\N` {
		if v, ok := raw["advisedMinimumAge"]; ok && v != nil {
			return anyToString(v)
		}
		return ""
	}
	return val
}

func genreNames(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var names []string
	for _, item := range items {
		var name string
		if m, ok := item.(map[string]any); ok {
			name = stringField(m, "name")
		} else {
			name = anyToString(item)
		}
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s := anyToString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func stringMap(v any) map[string]string {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		out[k] = anyToString(val)
	}
	return out
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func firstPresent(m map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := m[key]; ok && v != nil && v != "" {
			return v
		}
	}
	return nil
}

func anyToString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// parseInt accepts numbers and numeric strings; anything else is nil.
func parseInt(v any) *int {
	switch t := v.(type) {
	case float64:
		i := int(t)
		return &i
	case int:
		return &t
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return &i
		}
	case json.Number:
		if i, err := t.Int64(); err == nil {
			val := int(i)
			return &val
		}
	}
	return nil
}

// parseTmdbID extracts the numeric part of values like "movie/550".
func parseTmdbID(v any) *int {
	if v == nil {
		return nil
	}
	m := digitsPattern.FindString(anyToString(v))
	if m == "" {
		return nil
	}
	if id, err := strconv.Atoi(m); err == nil {
		return &id
	}
	return nil
}

// parseRating normalizes ratings to a 0-10 scale rounded to two decimals.
// Percent-scale values (>10) are divided by 10.
func parseRating(v any) *float64 {
	var rating float64
	switch t := v.(type) {
	case float64:
		rating = t
	case int:
		rating = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil
		}
		rating = parsed
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return nil
		}
		rating = parsed
	default:
		return nil
	}

	if rating > 10 {
		rating /= 10
	}
	rating = math.Round(rating*100) / 100
	return &rating
}

// safeFilename flattens a value into a filesystem-friendly snapshot name.
func safeFilename(value string) string {
	sanitized := unsafePattern.ReplaceAllString(value, " ")
	return strings.Join(strings.Fields(sanitized), " ")
}

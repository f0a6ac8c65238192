// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package models

import "time"

// Thumbs rating values stored on interactions.
const (
	ThumbsDown  = 0
	ThumbsUp    = 1
	ThumbsWayUp = 2
)

// User is a dashboard account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Interaction records a user's view history for one show. The (user, show)
// pair is unique; repeated views update the existing row.
type Interaction struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"user_id"`
	ShowID int64 `json:"show_id"`

	FirstDate *time.Time `json:"first_date,omitempty"`
	LastDate  *time.Time `json:"last_date,omitempty"`

	// ViewedAmount is the number of episodes (or views, for movies).
	ViewedAmount *int `json:"viewed_amount,omitempty"`

	// CompletionRatio is the watched fraction in [0,1].
	CompletionRatio *float64 `json:"completion_ratio,omitempty"`

	// Rating is a thumbs value (ThumbsDown, ThumbsUp, ThumbsWayUp) or nil
	// when the user has not rated the show.
	Rating *int `json:"rating,omitempty"`
}

// TasteWeight returns the weight this interaction contributes to the
// user taste vector. Way-up ratings dominate, down ratings nearly vanish,
// unrated views count once.
func (i *Interaction) TasteWeight() float64 {
	if i.Rating == nil {
		return 1.0
	}
	switch *i.Rating {
	case ThumbsWayUp:
		return 3.0
	case ThumbsUp:
		return 2.0
	case ThumbsDown:
		return 0.2
	default:
		return 1.0
	}
}

// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/jurrian/moviedb/internal/auth"
	"github.com/jurrian/moviedb/internal/database"
	"github.com/jurrian/moviedb/internal/logging"
	"github.com/jurrian/moviedb/internal/models"
)

type loginRequest struct {
	Username string `json:"username" validate:"required,min=2,max=64"`
	Password string `json:"password" validate:"required,min=1,max=256"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// handleLogin verifies credentials and issues a JWT. The token is also set
// as a session cookie so the dashboard works without an Authorization
// header.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.jwt == nil {
		respondError(w, http.StatusNotImplemented, codeService, "authentication is disabled")
		return
	}

	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "invalid request body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "username and password are required")
		return
	}

	user, err := s.db.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			logging.Error().Err(err).Msg("login lookup failed")
		}
		// Same response for unknown user and wrong password.
		respondError(w, http.StatusUnauthorized, codeAuthentication, "invalid credentials")
		return
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		logging.Warn().Str("username", user.Username).Msg("failed login attempt")
		respondError(w, http.StatusUnauthorized, codeAuthentication, "invalid credentials")
		return
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		logging.Error().Err(err).Msg("token generation failed")
		respondError(w, http.StatusInternalServerError, codeService, "could not create session")
		return
	}

	expires := time.Now().Add(s.cfg.Security.SessionTimeout)
	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   !s.cfg.Server.IsDevelopment(),
		SameSite: http.SameSiteLaxMode,
	})

	logging.Info().Str("username", user.Username).Str("role", user.Role).Msg("user logged in")
	respondSuccess(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expires,
		User:      user,
	}, models.Metadata{})
}

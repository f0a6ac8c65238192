// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const claimsKey contextKey = "auth_claims"

// ContextWithClaims stores validated session claims on the context.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the session claims, or nil outside an
// authenticated request.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey).(*Claims)
	return claims
}

// TokenFromRequest extracts the bearer token from the Authorization
// header, falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := r.Cookie("session"); err == nil {
		return cookie.Value
	}
	return ""
}

// Middleware validates the session token on every request and attaches
// the claims to the context. Requests without a valid token are
// rejected with 401. When disabled (auth_mode "none") all requests pass
// through unauthenticated.
type Middleware struct {
	jwt      *JWTManager
	disabled bool
}

// NewMiddleware creates the authentication middleware. jwt may be nil
// only when disabled is true.
func NewMiddleware(jwt *JWTManager, disabled bool) *Middleware {
	return &Middleware{jwt: jwt, disabled: disabled}
}

// Authenticate guards an endpoint for any signed-in user.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}

		token := TokenFromRequest(r)
		if token == "" {
			unauthorized(w, "missing credentials")
			return
		}
		claims, err := m.jwt.ValidateToken(token)
		if err != nil {
			unauthorized(w, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
	})
}

// RequireAdmin guards an endpoint for admin users; must run inside
// Authenticate.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}

		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			unauthorized(w, "missing credentials")
			return
		}
		if claims.Role != "admin" {
			forbidden(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"status":"error","error":{"code":"AUTHENTICATION_ERROR","message":"` + msg + `"}}`))
}

func forbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"status":"error","error":{"code":"AUTHORIZATION_ERROR","message":"admin role required"}}`))
}

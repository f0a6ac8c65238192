// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

// Package middleware holds the HTTP middleware shared by all routes.
package middleware

import (
	"net/http"

	"github.com/jurrian/moviedb/internal/logging"
)

// RequestID tags every request with a unique id, honouring one supplied
// by an upstream proxy, and exposes it in the response header and the
// logging context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = logging.GenerateRequestID()
		}

		w.Header().Set("X-Request-ID", requestID)
		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

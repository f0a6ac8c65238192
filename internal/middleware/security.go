// MovieDB - AI-powered movie and series recommendations
// Copyright 2026 Jurrian Tromp
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jurrian/moviedb

package middleware

import "net/http"

// SecurityHeaders adds the standard hardening headers to every response.
// CSP is omitted since the API only serves JSON; HSTS is set only when
// the request arrived over TLS (directly or via a terminating proxy).
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

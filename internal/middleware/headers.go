// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import "net/http"

// NoCache stops the browser from caching build output, so a reload after a
// rebuild always shows fresh assets.
func NoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Cache-Control", "no-store, max-age=0")
		h.Set("X-Content-Type-Options", "nosniff")

		// http.FileServer answers If-Modified-Since with 304 otherwise.
		r.Header.Del("If-Modified-Since")
		r.Header.Del("If-None-Match")

		next.ServeHTTP(w, r)
	})
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recoverer turns a panic in a downstream handler into a 500 response. The
// panic value is echoed in the body since the server only runs locally.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			slog.Error("panic recovered",
				"error", rec,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)
			http.Error(w, fmt.Sprintf("Internal Server Error: %v", rec), http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}

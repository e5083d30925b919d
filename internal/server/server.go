// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package server serves the build output for local development. Routes are
// few: a health check and the static tree, with extension-less URLs
// resolving to their .html page.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"sitebuild/internal/middleware"
)

// NotFoundPage is served with status 404 when present in the output root.
const NotFoundPage = "404.html"

// New creates the router for the output directory root.
func New(root string) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.NoCache)

	r.Get("/health", healthHandler)
	r.Handle("/*", &static{root: root, files: http.FileServer(http.Dir(root))})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

type static struct {
	root  string
	files http.Handler
}

func (s *static) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	p := path.Clean("/" + r.URL.Path)
	if s.exists(p) {
		s.files.ServeHTTP(w, r)
		return
	}

	// /about -> /about.html
	if path.Ext(p) == "" && s.exists(p+".html") {
		r2 := r.Clone(r.Context())
		r2.URL.Path = p + ".html"
		s.files.ServeHTTP(w, r2)
		return
	}

	s.notFound(w)
}

func (s *static) exists(p string) bool {
	_, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(p, "/"))))
	return err == nil
}

func (s *static) notFound(w http.ResponseWriter) {
	page, err := os.ReadFile(filepath.Join(s.root, NotFoundPage))
	if err != nil {
		http.NotFound(w, nil)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	w.Write(page)
}

// Serve runs handler on addr until ctx is canceled, then drains active
// requests for up to 10 seconds.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("server stopped gracefully")
	return nil
}

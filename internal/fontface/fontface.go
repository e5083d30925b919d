// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package fontface keeps the generated font-face style-sheet partial in sync
// with the font assets present in the output font directory. Each distinct
// family (file name before the first period) becomes one
// @include font-face(...) line in the partial.
package fontface

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultWeight is the weight argument passed to every declaration.
const DefaultWeight = 400

// lineBreak terminates every declaration line.
const lineBreak = "\r\n"

// Dedup selects how repeated families are coalesced.
type Dedup int

const (
	// DedupAdjacent only coalesces a family with the entry directly before it.
	// A family split by another family in the listing is declared again.
	DedupAdjacent Dedup = iota
	// DedupUnique declares every family exactly once, at first sight.
	DedupUnique
)

// ParseDedup maps a config value to a Dedup policy. Empty means adjacent.
func ParseDedup(s string) (Dedup, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "adjacent":
		return DedupAdjacent, nil
	case "unique":
		return DedupUnique, nil
	default:
		return DedupAdjacent, fmt.Errorf("fontface: unknown dedup policy %q", s)
	}
}

func (d Dedup) String() string {
	if d == DedupUnique {
		return "unique"
	}
	return "adjacent"
}

// Family returns the font family identifier of an asset name: everything
// before the first period, or the whole name when there is none.
func Family(name string) string {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}

// Declaration formats a single font-face line for family.
// The family is written verbatim; quotes in it are not escaped.
func Declaration(family string, weight int) string {
	return fmt.Sprintf("@include font-face(\"%s\", \"%s\", %d);%s", family, family, weight, lineBreak)
}

// Families returns the families that get a declaration, in output order.
func Families(names []string, dedup Dedup) []string {
	var (
		out  []string
		prev string
		seen = make(map[string]bool)
	)
	for i, name := range names {
		family := Family(name)
		switch dedup {
		case DedupUnique:
			if !seen[family] {
				out = append(out, family)
			}
			seen[family] = true
		default:
			if i == 0 || family != prev {
				out = append(out, family)
			}
		}
		prev = family
	}
	return out
}

// Render builds the full partial content for the given listing.
func Render(names []string, weight int, dedup Dedup) []byte {
	var buf bytes.Buffer
	for _, family := range Families(names, dedup) {
		buf.WriteString(Declaration(family, weight))
	}
	return buf.Bytes()
}

// ListNames returns the entry names of dir sorted by name. A missing
// directory yields no names and no error.
func ListNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// Options configures a Registrar.
type Options struct {
	FontDir string // directory holding the generated font assets
	Partial string // style-sheet partial that is fully rewritten
	Weight  int    // 0 means DefaultWeight
	Dedup   Dedup
}

// Result describes what a Regenerate call wrote.
type Result struct {
	Families []string
	Bytes    int
}

// Registrar regenerates the font-face partial. Calls to Regenerate on the
// same Registrar are serialized.
type Registrar struct {
	opts Options
	list func(dir string) ([]string, error)
	mu   sync.Mutex
}

// New creates a Registrar reading the real directory listing.
func New(opts Options) *Registrar {
	if opts.Weight == 0 {
		opts.Weight = DefaultWeight
	}
	return &Registrar{opts: opts, list: ListNames}
}

// WithLister replaces the directory scan, mainly for tests.
func (r *Registrar) WithLister(list func(dir string) ([]string, error)) *Registrar {
	r.list = list
	return r
}

// Regenerate truncates the partial and rewrites it from the current font
// directory listing. A listing that cannot be read leaves the partial empty
// and is not an error; failures writing the partial are. The truncate
// happens even when ctx is already canceled.
func (r *Registrar) Regenerate(ctx context.Context) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.opts.Partial), 0o755); err != nil {
		return Result{}, fmt.Errorf("fontface: create partial dir: %w", err)
	}
	if err := os.WriteFile(r.opts.Partial, nil, 0o644); err != nil {
		return Result{}, fmt.Errorf("fontface: truncate %s: %w", r.opts.Partial, err)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	names, err := r.list(r.opts.FontDir)
	if err != nil {
		slog.Warn("font directory unreadable, writing empty partial",
			"dir", r.opts.FontDir,
			"error", err,
		)
		return Result{}, nil
	}

	families := Families(names, r.opts.Dedup)
	content := Render(names, r.opts.Weight, r.opts.Dedup)
	if len(content) > 0 {
		if err := os.WriteFile(r.opts.Partial, content, 0o644); err != nil {
			return Result{}, fmt.Errorf("fontface: write %s: %w", r.opts.Partial, err)
		}
	}

	slog.Debug("font-face partial regenerated",
		"partial", r.opts.Partial,
		"families", len(families),
		"dedup", r.opts.Dedup.String(),
	)
	return Result{Families: families, Bytes: len(content)}, nil
}

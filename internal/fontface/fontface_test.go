// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package fontface

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
)

func TestFamily(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "woff", input: "Roboto.woff", want: "Roboto"},
		{name: "woff2", input: "Roboto.woff2", want: "Roboto"},
		{name: "multiple dots", input: "Open.Sans.woff", want: "Open"},
		{name: "no dot", input: "Roboto", want: "Roboto"},
		{name: "leading dot", input: ".DS_Store", want: ""},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Family(tt.input); got != tt.want {
				t.Errorf("Family(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDeclaration(t *testing.T) {
	got := Declaration("Roboto", 400)
	want := "@include font-face(\"Roboto\", \"Roboto\", 400);\r\n"
	if got != want {
		t.Errorf("Declaration = %q, want %q", got, want)
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		dedup Dedup
		want  []string
	}{
		{
			name:  "empty listing",
			names: nil,
			want:  nil,
		},
		{
			name:  "grouped families",
			names: []string{"Roboto.woff", "Roboto.woff2", "OpenSans.woff", "OpenSans.woff2"},
			want:  []string{"Roboto", "OpenSans"},
		},
		{
			name:  "split family declared twice with adjacent policy",
			names: []string{"Roboto.woff", "OpenSans.woff", "Roboto.woff2"},
			want:  []string{"Roboto", "OpenSans", "Roboto"},
		},
		{
			name:  "split family declared once with unique policy",
			names: []string{"Roboto.woff", "OpenSans.woff", "Roboto.woff2"},
			dedup: DedupUnique,
			want:  []string{"Roboto", "OpenSans"},
		},
		{
			name:  "name without extension",
			names: []string{"Roboto"},
			want:  []string{"Roboto"},
		},
		{
			name:  "empty family still declared",
			names: []string{".keep"},
			want:  []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(Render(tt.names, DefaultWeight, tt.dedup))
			var want strings.Builder
			for _, f := range tt.want {
				want.WriteString(Declaration(f, DefaultWeight))
			}
			if got != want.String() {
				t.Errorf("Render(%v) = %q, want %q", tt.names, got, want.String())
			}
			if fams := Families(tt.names, tt.dedup); !reflect.DeepEqual(fams, tt.want) {
				t.Errorf("Families(%v) = %v, want %v", tt.names, fams, tt.want)
			}
		})
	}
}

func TestParseDedup(t *testing.T) {
	for in, want := range map[string]Dedup{"": DedupAdjacent, "adjacent": DedupAdjacent, "Unique": DedupUnique} {
		got, err := ParseDedup(in)
		if err != nil {
			t.Fatalf("ParseDedup(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseDedup(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseDedup("sorted"); err == nil {
		t.Error("ParseDedup(sorted) should fail")
	}
}

// setup creates a font dir with the given files and returns a registrar
// writing to a partial inside a temp dir.
func setup(t *testing.T, files ...string) (*Registrar, string, string) {
	t.Helper()
	root := t.TempDir()
	fontDir := filepath.Join(root, "docs", "fonts")
	if err := os.MkdirAll(fontDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(fontDir, f), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	partial := filepath.Join(root, "src", "scss", "_fonts.scss")
	return New(Options{FontDir: fontDir, Partial: partial}), fontDir, partial
}

func readPartial(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read partial: %v", err)
	}
	return string(data)
}

func TestRegenerate_EmptyDirectory(t *testing.T) {
	r, _, partial := setup(t)

	res, err := r.Regenerate(context.Background())
	if err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	if got := readPartial(t, partial); got != "" {
		t.Errorf("partial = %q, want empty", got)
	}
	if len(res.Families) != 0 {
		t.Errorf("families = %v, want none", res.Families)
	}
}

func TestRegenerate_GroupedFamilies(t *testing.T) {
	r, _, partial := setup(t, "OpenSans.woff", "OpenSans.woff2", "Roboto.woff", "Roboto.woff2")

	if _, err := r.Regenerate(context.Background()); err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	want := Declaration("OpenSans", 400) + Declaration("Roboto", 400)
	if got := readPartial(t, partial); got != want {
		t.Errorf("partial = %q, want %q", got, want)
	}
}

func TestRegenerate_Idempotent(t *testing.T) {
	r, _, partial := setup(t, "Lato.woff", "Lato.woff2", "Roboto.woff2")

	if _, err := r.Regenerate(context.Background()); err != nil {
		t.Fatal(err)
	}
	first := readPartial(t, partial)
	if _, err := r.Regenerate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if second := readPartial(t, partial); second != first {
		t.Errorf("second run = %q, first run = %q", second, first)
	}
}

func TestRegenerate_DiscardsPriorContent(t *testing.T) {
	r, fontDir, partial := setup(t, "Roboto.woff")
	if err := os.MkdirAll(filepath.Dir(partial), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(partial, []byte("// hand edit\n@include font-face(\"Old\", \"Old\", 400);\r\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := r.Regenerate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got, want := readPartial(t, partial), Declaration("Roboto", 400); got != want {
		t.Errorf("partial = %q, want %q", got, want)
	}

	// Removing every font empties the partial on the next run.
	if err := os.Remove(filepath.Join(fontDir, "Roboto.woff")); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Regenerate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := readPartial(t, partial); got != "" {
		t.Errorf("partial = %q, want empty", got)
	}
}

func TestRegenerate_MissingDirectory(t *testing.T) {
	root := t.TempDir()
	partial := filepath.Join(root, "_fonts.scss")
	if err := os.WriteFile(partial, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := New(Options{FontDir: filepath.Join(root, "nope"), Partial: partial})

	if _, err := r.Regenerate(context.Background()); err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	if got := readPartial(t, partial); got != "" {
		t.Errorf("partial = %q, want empty", got)
	}
}

func TestRegenerate_ListingErrorTolerated(t *testing.T) {
	r, _, partial := setup(t, "Roboto.woff")
	r.WithLister(func(string) ([]string, error) { return nil, errors.New("permission denied") })

	if _, err := r.Regenerate(context.Background()); err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	if got := readPartial(t, partial); got != "" {
		t.Errorf("partial = %q, want empty", got)
	}
}

func TestRegenerate_InjectedListing(t *testing.T) {
	r, _, partial := setup(t)
	r.WithLister(func(string) ([]string, error) {
		return []string{"Roboto.woff", "OpenSans.woff", "Roboto.woff2"}, nil
	})

	res, err := r.Regenerate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"Roboto", "OpenSans", "Roboto"}; !reflect.DeepEqual(res.Families, want) {
		t.Errorf("families = %v, want %v", res.Families, want)
	}
	if got := strings.Count(readPartial(t, partial), "\r\n"); got != 3 {
		t.Errorf("lines = %d, want 3", got)
	}
}

func TestRegenerate_WriteFailure(t *testing.T) {
	root := t.TempDir()
	// A directory where the partial should be makes the truncate fail.
	partial := filepath.Join(root, "_fonts.scss")
	if err := os.Mkdir(partial, 0o755); err != nil {
		t.Fatal(err)
	}
	r := New(Options{FontDir: root, Partial: partial})

	if _, err := r.Regenerate(context.Background()); err == nil {
		t.Fatal("Regenerate should fail when the partial cannot be written")
	}
}

func TestRegenerate_Concurrent(t *testing.T) {
	r, _, partial := setup(t, "A.woff", "A.woff2", "B.woff", "C.ttf")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Regenerate(context.Background()); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	want := Declaration("A", 400) + Declaration("B", 400) + Declaration("C", 400)
	if got := readPartial(t, partial); got != want {
		t.Errorf("partial = %q, want %q", got, want)
	}
}

func TestRegenerate_CanceledContext(t *testing.T) {
	r, _, partial := setup(t, "Roboto.woff")
	if err := os.MkdirAll(filepath.Dir(partial), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(partial, []byte("stale\r\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Regenerate(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if got := readPartial(t, partial); got != "" {
		t.Errorf("partial = %q, want truncated", got)
	}
}

// Package fonts converts the TrueType sources in the font source directory
// into the web formats served from the output font directory. Conversion is
// delegated to external converters; this package only decides what to run.
package fonts

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"sitebuild/internal/fsutil"
	"sitebuild/internal/tool"
)

// Converter turns one input file into one output file.
type Converter interface {
	Convert(ctx context.Context, c tool.Command, in, out string) error
}

// Format pairs an output extension with the command producing it.
type Format struct {
	Ext     string // ".woff"
	Command tool.Command
}

// Options configures a conversion run.
type Options struct {
	SrcDir  string
	DistDir string
	Formats []Format
	// Workers bounds concurrent conversions; 0 means 4.
	Workers int
}

// NewFormats parses the woff and woff2 command templates. An empty template
// disables that format.
func NewFormats(woff, woff2 string) ([]Format, error) {
	var out []Format
	for _, f := range []struct{ ext, tmpl string }{{".woff", woff}, {".woff2", woff2}} {
		if f.tmpl == "" {
			continue
		}
		c, err := tool.Parse(f.tmpl)
		if err != nil {
			return nil, fmt.Errorf("fonts: %s command: %w", f.ext, err)
		}
		out = append(out, Format{Ext: f.ext, Command: c})
	}
	return out, nil
}

// Convert converts every .ttf directly inside SrcDir into each format.
// It returns the number of files written.
func Convert(ctx context.Context, conv Converter, opts Options) (int, error) {
	sources, err := fsutil.Find(opts.SrcDir, false, func(rel string) bool {
		return fsutil.HasExt(rel, ".ttf")
	})
	if err != nil {
		return 0, err
	}
	if len(sources) == 0 {
		slog.Debug("no fonts to convert", "dir", opts.SrcDir)
		return 0, nil
	}
	if err := os.MkdirAll(opts.DistDir, 0o755); err != nil {
		return 0, fmt.Errorf("fonts: mkdir %s: %w", opts.DistDir, err)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, rel := range sources {
		in := filepath.Join(opts.SrcDir, rel)
		for _, f := range opts.Formats {
			out := filepath.Join(opts.DistDir, fsutil.SwapExt(rel, f.Ext))
			g.Go(func() error {
				if err := conv.Convert(gctx, f.Command, in, out); err != nil {
					return fmt.Errorf("fonts: convert %s to %s: %w", rel, f.Ext, err)
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	written := len(sources) * len(opts.Formats)
	slog.Info("fonts converted", "sources", len(sources), "written", written)
	return written, nil
}

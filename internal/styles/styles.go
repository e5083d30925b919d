// Package styles compiles the SCSS sources into the minified style sheets
// served from the output css directory. Compilation and vendor prefixing are
// done by external commands; minification runs in-process.
package styles

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"

	"sitebuild/internal/fsutil"
	"sitebuild/internal/tool"
)

const mediaType = "text/css"

// m is the shared minifier; minify.M is safe for concurrent use.
var m = func() *minify.M {
	mm := minify.New()
	mm.AddFunc(mediaType, css.Minify)
	return mm
}()

// Runner executes the external style commands.
type Runner interface {
	Pipe(ctx context.Context, c tool.Command, input []byte) ([]byte, error)
	Run(ctx context.Context, c tool.Command) error
}

// Options configures a style build.
type Options struct {
	SrcDir       string
	DistDir      string
	Sass         tool.Command
	Autoprefixer tool.Command // zero Name disables prefixing
	LoadPaths    []string
	// SourceMaps makes sass write the final file with a linked map.
	// Prefixing and minification are skipped so the map stays accurate.
	SourceMaps bool
}

// IsPartial reports whether an scss file is a partial (leading underscore)
// that is only compiled through imports.
func IsPartial(rel string) bool {
	return strings.HasPrefix(path.Base(rel), "_")
}

// OutputName maps "pages/home.scss" to "pages/home.min.css".
func OutputName(rel string) string {
	return fsutil.SwapExt(rel, ".min.css")
}

// Minify minifies a style sheet.
func Minify(src []byte) ([]byte, error) {
	out, err := m.Bytes(mediaType, src)
	if err != nil {
		return nil, fmt.Errorf("styles: minify: %w", err)
	}
	return out, nil
}

// Build compiles every non-partial .scss under SrcDir. It returns the number
// of style sheets written.
func Build(ctx context.Context, r Runner, opts Options) (int, error) {
	sources, err := fsutil.Find(opts.SrcDir, true, func(rel string) bool {
		return fsutil.HasExt(rel, ".scss") && !IsPartial(rel)
	})
	if err != nil {
		return 0, err
	}

	for _, rel := range sources {
		in := filepath.Join(opts.SrcDir, filepath.FromSlash(rel))
		out := filepath.Join(opts.DistDir, filepath.FromSlash(OutputName(rel)))
		if err := buildOne(ctx, r, opts, in, out); err != nil {
			return 0, fmt.Errorf("styles: %s: %w", rel, err)
		}
		slog.Debug("style sheet compiled", "source", rel, "output", out)
	}
	return len(sources), nil
}

func buildOne(ctx context.Context, r Runner, opts Options, in, out string) error {
	args := []string{"--style=expanded"}
	for _, p := range opts.LoadPaths {
		args = append(args, "--load-path="+p)
	}

	if opts.SourceMaps {
		if err := fsutil.WriteFile(out, nil); err != nil {
			return err
		}
		args = append(args, "--source-map", in, out)
		return r.Run(ctx, opts.Sass.With(args...))
	}

	args = append(args, "--no-source-map", in)
	compiled, err := r.Pipe(ctx, opts.Sass.With(args...), nil)
	if err != nil {
		return err
	}
	if opts.Autoprefixer.Name != "" {
		if compiled, err = r.Pipe(ctx, opts.Autoprefixer, compiled); err != nil {
			return fmt.Errorf("autoprefix: %w", err)
		}
	}
	minified, err := Minify(compiled)
	if err != nil {
		return err
	}
	return fsutil.WriteFile(out, minified)
}

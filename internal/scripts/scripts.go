// Package scripts bundles the script entry point and its imports into a
// single minified file, transpiled down to the configured target.
package scripts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// Options configures a bundle.
type Options struct {
	Entry      string // entry file, e.g. src/js/main.js
	Outfile    string // e.g. docs/js/main.js
	Target     string // es2015, es2020, esnext
	Minify     bool
	SourceMaps bool
}

var targets = map[string]api.Target{
	"es5":    api.ES5,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

// ParseTarget maps a config value to an esbuild target. Empty means es2015.
func ParseTarget(s string) (api.Target, error) {
	if s == "" {
		return api.ES2015, nil
	}
	t, ok := targets[strings.ToLower(s)]
	if !ok {
		return api.DefaultTarget, fmt.Errorf("scripts: unknown target %q", s)
	}
	return t, nil
}

// Bundle builds Entry into Outfile. A missing entry is not an error; the
// stage is skipped.
func Bundle(ctx context.Context, opts Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(opts.Entry); errors.Is(err, os.ErrNotExist) {
		slog.Debug("no script entry, skipping bundle", "entry", opts.Entry)
		return nil
	}

	target, err := ParseTarget(opts.Target)
	if err != nil {
		return err
	}

	build := api.BuildOptions{
		EntryPoints:       []string{opts.Entry},
		Outfile:           opts.Outfile,
		Bundle:            true,
		Write:             true,
		Target:            target,
		MinifyWhitespace:  opts.Minify,
		MinifyIdentifiers: opts.Minify,
		MinifySyntax:      opts.Minify,
		LogLevel:          api.LogLevelSilent,
	}
	if opts.SourceMaps {
		build.Sourcemap = api.SourceMapLinked
	}

	result := api.Build(build)
	if len(result.Errors) > 0 {
		return fmt.Errorf("scripts: bundle %s: %s", opts.Entry, formatMessages(result.Errors))
	}
	for _, w := range result.Warnings {
		slog.Warn("script bundle warning", "message", formatMessages([]api.Message{w}))
	}

	slog.Debug("scripts bundled", "entry", opts.Entry, "outfile", opts.Outfile, "files", len(result.OutputFiles))
	return nil
}

func formatMessages(msgs []api.Message) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Location != nil {
			parts = append(parts, fmt.Sprintf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column, m.Text))
			continue
		}
		parts = append(parts, m.Text)
	}
	return strings.Join(parts, "; ")
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"log/slog"
	"path/filepath"

	"sitebuild/internal/config"
	"sitebuild/internal/fontface"
	"sitebuild/internal/fonts"
	"sitebuild/internal/fsutil"
	"sitebuild/internal/imaging"
	"sitebuild/internal/pages"
	"sitebuild/internal/pipeline"
	"sitebuild/internal/scripts"
	"sitebuild/internal/sprite"
	"sitebuild/internal/styles"
	"sitebuild/internal/tool"
)

// builder turns the configuration into pipeline tasks.
type builder struct {
	cfg    *config.Config
	dev    bool
	runner *tool.Runner
	vips   bool
}

func newBuilder(cfg *config.Config, dev bool) *builder {
	return &builder{
		cfg:    cfg,
		dev:    dev,
		runner: &tool.Runner{Dir: cfg.Tools.Dir, Env: cfg.Tools.Env},
	}
}

// close releases libvips if a stage started it.
func (b *builder) close() {
	if b.vips {
		imaging.Shutdown()
	}
}

// build is clean, then the independent stages in parallel, then the
// font-face partial and finally the style sheets that import it.
func (b *builder) build() pipeline.Task {
	return pipeline.Series("build",
		b.clean(),
		pipeline.Parallel("assets",
			b.pages(),
			b.scripts(),
			b.fonts(),
			b.resources(),
			b.images(),
			b.sprites(),
		),
		b.fontface(),
		b.styles(),
	)
}

// stage returns the single task with the given name.
func (b *builder) stage(name string) (pipeline.Task, bool) {
	stages := map[string]func() pipeline.Task{
		"clean":     b.clean,
		"pages":     b.pages,
		"scripts":   b.scripts,
		"fonts":     b.fonts,
		"fontface":  b.fontface,
		"styles":    b.styles,
		"sprites":   b.sprites,
		"images":    b.images,
		"resources": b.resources,
	}
	f, ok := stages[name]
	if !ok {
		return pipeline.Task{}, false
	}
	return f(), true
}

func (b *builder) clean() pipeline.Task {
	return pipeline.Func("clean", func(ctx context.Context) error {
		return fsutil.Clean(b.cfg.DistDir)
	})
}

func (b *builder) pages() pipeline.Task {
	return pipeline.Func("pages", func(ctx context.Context) error {
		n, err := pages.Build(pages.Options{
			SrcDir:  b.cfg.Src("pages"),
			DistDir: b.cfg.DistDir,
			Lang:    b.cfg.Pages.Lang,
		})
		slog.Debug("pages rendered", "count", n)
		return err
	})
}

func (b *builder) scripts() pipeline.Task {
	return pipeline.Func("scripts", func(ctx context.Context) error {
		entry := b.cfg.Src("js", b.cfg.Scripts.Entry)
		return scripts.Bundle(ctx, scripts.Options{
			Entry:      entry,
			Outfile:    b.cfg.Dist("js", filepath.Base(entry)),
			Target:     b.cfg.Scripts.Target,
			Minify:     true,
			SourceMaps: b.dev,
		})
	})
}

func (b *builder) fonts() pipeline.Task {
	return pipeline.Func("fonts", func(ctx context.Context) error {
		formats, err := fonts.NewFormats(b.cfg.Fonts.WOFF, b.cfg.Fonts.WOFF2)
		if err != nil {
			return err
		}
		n, err := fonts.Convert(ctx, b.runner, fonts.Options{
			SrcDir:  b.cfg.Src("fonts"),
			DistDir: b.cfg.Dist("fonts"),
			Formats: formats,
		})
		slog.Debug("fonts converted", "files", n)
		return err
	})
}

func (b *builder) fontface() pipeline.Task {
	return pipeline.Func("fontface", func(ctx context.Context) error {
		dedup, err := fontface.ParseDedup(b.cfg.Fonts.Dedup)
		if err != nil {
			return err
		}
		_, err = fontface.New(fontface.Options{
			FontDir: b.cfg.Dist("fonts"),
			Partial: b.cfg.FontsPartial(),
			Weight:  b.cfg.Fonts.Weight,
			Dedup:   dedup,
		}).Regenerate(ctx)
		return err
	})
}

func (b *builder) styles() pipeline.Task {
	return pipeline.Func("styles", func(ctx context.Context) error {
		sass, err := tool.Parse(b.cfg.Styles.Sass)
		if err != nil {
			return err
		}
		var prefixer tool.Command
		if b.cfg.Styles.Autoprefixer != "" {
			if prefixer, err = tool.Parse(b.cfg.Styles.Autoprefixer); err != nil {
				return err
			}
		}
		n, err := styles.Build(ctx, b.runner, styles.Options{
			SrcDir:       b.cfg.Src("scss"),
			DistDir:      b.cfg.Dist("css"),
			Sass:         sass,
			Autoprefixer: prefixer,
			LoadPaths:    b.cfg.Styles.LoadPaths,
			SourceMaps:   b.dev,
		})
		slog.Debug("style sheets compiled", "count", n)
		return err
	})
}

func (b *builder) sprites() pipeline.Task {
	return pipeline.Func("sprites", func(ctx context.Context) error {
		n, err := sprite.Build(b.cfg.Src("images", "svg"), b.cfg.Dist("images", "sprite.svg"))
		slog.Debug("sprite built", "icons", n)
		return err
	})
}

func (b *builder) images() pipeline.Task {
	img := b.cfg.Images
	optimize := img.Optimize && !b.dev
	variants := img.WebPVariants && !b.dev

	opts := imaging.BuildOptions{
		SrcDir:   b.cfg.Src("images"),
		DistDir:  b.cfg.Dist("images"),
		Optimize: optimize,
		Quality: imaging.Quality{
			JPEG:           img.JPEGQuality,
			PNGCompression: img.PNGCompression,
		},
		FaviconSizes: img.FaviconSizes,
		Workers:      img.Concurrency,
	}
	if variants {
		opts.Variants = func(data []byte) ([]imaging.ProcessedImage, error) {
			return imaging.GenerateVariants(data, imaging.DefaultVariants)
		}
	}

	return pipeline.Func("images", func(ctx context.Context) error {
		if optimize || variants {
			imaging.Startup(img.Concurrency)
			b.vips = true
		}
		_, err := imaging.Build(ctx, opts)
		return err
	})
}

func (b *builder) resources() pipeline.Task {
	return pipeline.Func("resources", func(ctx context.Context) error {
		n, err := fsutil.CopyTree(b.cfg.Src("resources"), b.cfg.DistDir, true, nil)
		slog.Debug("resources copied", "files", n)
		return err
	})
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package imaging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"sitebuild/internal/fsutil"
)

// verbatimDirs are copied as-is, never re-encoded.
var verbatimDirs = []string{"favicon", "icon"}

// spriteDir holds sprite sources, which never reach the output on their own.
const spriteDir = "svg"

// Encoder re-encodes one image. ext is the lower-case extension with dot.
type Encoder func(data []byte, ext string) ([]byte, error)

// VariantFunc produces responsive variants of one image.
type VariantFunc func(data []byte) ([]ProcessedImage, error)

// BuildOptions configures the image stage.
type BuildOptions struct {
	SrcDir  string
	DistDir string
	// Optimize re-encodes raster images; when false they are copied.
	Optimize bool
	// Encode defaults to Recompress with Quality.
	Encode  Encoder
	Quality Quality
	// Variants, when set, writes <name>-<variant>.webp next to each image.
	Variants VariantFunc
	// FaviconSizes, when set, derives square PNGs from favicon/favicon.png.
	FaviconSizes []int
	Workers      int
}

// Stats summarises an image stage run.
type Stats struct {
	Copied    int
	Optimized int
	Variants  int
	Favicons  int
	Saved     int64 // bytes saved by re-encoding
}

// IsRaster reports whether rel is a JPEG or PNG.
func IsRaster(rel string) bool {
	return fsutil.HasExt(rel, ".jpg", ".jpeg", ".png")
}

func topDir(rel string) string {
	if i := strings.IndexByte(rel, '/'); i >= 0 {
		return rel[:i]
	}
	return ""
}

func isVerbatim(rel string) bool {
	top := topDir(rel)
	for _, d := range verbatimDirs {
		if top == d {
			return true
		}
	}
	return false
}

// Build copies and optimizes the image tree from SrcDir into DistDir:
// favicon/ and icon/ verbatim, raster images anywhere else (optimized when
// requested), and top-level SVGs.
func Build(ctx context.Context, opts BuildOptions) (Stats, error) {
	var stats Stats

	verbatim, err := fsutil.Find(opts.SrcDir, true, isVerbatim)
	if err != nil {
		return stats, err
	}
	for _, rel := range verbatim {
		from := filepath.Join(opts.SrcDir, filepath.FromSlash(rel))
		if err := fsutil.CopyFile(from, filepath.Join(opts.DistDir, filepath.FromSlash(rel))); err != nil {
			return stats, err
		}
	}
	stats.Copied += len(verbatim)

	if len(opts.FaviconSizes) > 0 {
		if stats.Favicons, err = Favicons(opts.SrcDir, opts.DistDir, opts.FaviconSizes); err != nil {
			return stats, err
		}
	}

	svgs, err := fsutil.Find(opts.SrcDir, false, func(rel string) bool {
		return fsutil.HasExt(rel, ".svg")
	})
	if err != nil {
		return stats, err
	}
	for _, rel := range svgs {
		from := filepath.Join(opts.SrcDir, filepath.FromSlash(rel))
		if err := fsutil.CopyFile(from, filepath.Join(opts.DistDir, filepath.FromSlash(rel))); err != nil {
			return stats, err
		}
	}
	stats.Copied += len(svgs)

	raster, err := fsutil.Find(opts.SrcDir, true, func(rel string) bool {
		return IsRaster(rel) && !isVerbatim(rel) && topDir(rel) != spriteDir
	})
	if err != nil {
		return stats, err
	}

	encode := opts.Encode
	if encode == nil {
		q := opts.Quality
		encode = func(data []byte, ext string) ([]byte, error) { return Recompress(data, ext, q) }
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}

	var copied, optimized, variants, saved atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, rel := range raster {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := processOne(opts, encode, rel)
			if err != nil {
				return fmt.Errorf("imaging: %s: %w", rel, err)
			}
			if res.optimized {
				optimized.Add(1)
				saved.Add(res.saved)
			} else {
				copied.Add(1)
			}
			variants.Add(int64(res.variants))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	stats.Copied += int(copied.Load())
	stats.Optimized = int(optimized.Load())
	stats.Variants = int(variants.Load())
	stats.Saved = saved.Load()
	slog.Info("images processed",
		"copied", stats.Copied,
		"optimized", stats.Optimized,
		"variants", stats.Variants,
		"favicons", stats.Favicons,
		"saved_bytes", stats.Saved,
	)
	return stats, nil
}

type result struct {
	optimized bool
	saved     int64
	variants  int
}

func processOne(opts BuildOptions, encode Encoder, rel string) (result, error) {
	var res result
	src := filepath.Join(opts.SrcDir, filepath.FromSlash(rel))
	dst := filepath.Join(opts.DistDir, filepath.FromSlash(rel))

	data, err := os.ReadFile(src)
	if err != nil {
		return res, err
	}

	out := data
	if opts.Optimize {
		encoded, err := encode(data, strings.ToLower(path.Ext(rel)))
		if err != nil {
			return res, err
		}
		if len(encoded) < len(data) {
			out = encoded
			res.optimized = true
			res.saved = int64(len(data) - len(encoded))
		}
	}
	if err := fsutil.WriteFile(dst, out); err != nil {
		return res, err
	}

	if opts.Variants != nil {
		imgs, err := opts.Variants(data)
		if err != nil {
			return res, err
		}
		base := fsutil.SwapExt(dst, "")
		for _, img := range imgs {
			if err := fsutil.WriteFile(base+"-"+img.Name+".webp", img.Data); err != nil {
				return res, err
			}
		}
		res.variants = len(imgs)
	}
	return res, nil
}

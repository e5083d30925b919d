// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging optimizes the site's raster images using libvips. JPEG and
// PNG files are re-encoded with metadata stripped and the result is kept only
// when it is smaller than the source. Optionally, responsive WebP variants
// are generated next to each image. Variants wider than the source are
// skipped to avoid upscaling.
package imaging

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
)

// Variant describes a single responsive image size.
type Variant struct {
	Name    string // e.g., "sm", "md", "lg"; appended to the file name
	Width   int    // Target width in pixels
	Quality int    // WebP quality 1-100
}

// DefaultVariants defines the standard breakpoints for responsive web images.
var DefaultVariants = []Variant{
	{Name: "sm", Width: 640, Quality: 80},
	{Name: "md", Width: 1024, Quality: 80},
	{Name: "lg", Width: 1920, Quality: 80},
}

// ProcessedImage holds one generated variant ready to be written.
type ProcessedImage struct {
	Name   string // Variant name (e.g., "sm")
	Width  int    // Actual output width
	Height int    // Actual output height
	Data   []byte // WebP-encoded image bytes
}

// Quality holds the re-encoding settings.
type Quality struct {
	JPEG           int // 1-100
	PNGCompression int // 0-9
}

var startOnce sync.Once

// Startup initialises the libvips library. Safe to call more than once;
// only the first call has an effect. concurrency controls the number of
// libvips worker threads (0 = auto).
func Startup(concurrency int) {
	startOnce.Do(func() {
		cfg := &vips.Config{
			ConcurrencyLevel: concurrency,
			MaxCacheSize:     100,
			MaxCacheMem:      50 * 1024 * 1024, // 50 MB
		}
		vips.LoggingSettings(nil, vips.LogLevelWarning)
		vips.Startup(cfg)
		slog.Info("libvips started", "version", vips.Version)
	})
}

// Shutdown releases libvips resources. Call at process exit.
func Shutdown() {
	vips.Shutdown()
}

// Recompress re-encodes a JPEG or PNG with metadata stripped. ext selects the
// encoder (".jpg", ".jpeg", ".png"). Startup must have been called.
func Recompress(data []byte, ext string, q Quality) ([]byte, error) {
	img, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return nil, fmt.Errorf("imaging: decode: %w", err)
	}
	defer img.Close()

	switch ext {
	case ".jpg", ".jpeg":
		params := vips.NewJpegExportParams()
		params.Quality = q.JPEG
		params.StripMetadata = true
		params.Interlace = true
		params.OptimizeCoding = true
		buf, _, err := img.ExportJpeg(params)
		if err != nil {
			return nil, fmt.Errorf("imaging: export jpeg: %w", err)
		}
		return buf, nil
	case ".png":
		params := vips.NewPngExportParams()
		params.Compression = q.PNGCompression
		params.StripMetadata = true
		buf, _, err := img.ExportPng(params)
		if err != nil {
			return nil, fmt.Errorf("imaging: export png: %w", err)
		}
		return buf, nil
	default:
		return nil, fmt.Errorf("imaging: unsupported format %q", ext)
	}
}

// GenerateVariants creates WebP variants of the source image for each
// configured breakpoint. It skips variants wider than the original to
// avoid upscaling. Returns at least one variant (the smallest that fits).
func GenerateVariants(original []byte, variants []Variant) ([]ProcessedImage, error) {
	if len(variants) == 0 {
		variants = DefaultVariants
	}

	// Probe original dimensions without fully decoding.
	probe, err := vips.NewImageFromBuffer(original)
	if err != nil {
		return nil, fmt.Errorf("imaging: probe failed: %w", err)
	}
	origWidth := probe.Width()
	probe.Close()

	var results []ProcessedImage

	for _, v := range variants {
		targetWidth := v.Width

		// Cap at original width to avoid upscaling.
		if origWidth <= targetWidth {
			targetWidth = origWidth
		}

		img, err := vips.NewThumbnailFromBuffer(original, targetWidth, 0, vips.InterestingNone)
		if err != nil {
			return nil, fmt.Errorf("imaging: thumbnail %s (%dpx): %w", v.Name, targetWidth, err)
		}

		// Auto-rotate based on EXIF orientation, then strip metadata.
		if err := img.AutoRotate(); err != nil {
			img.Close()
			return nil, fmt.Errorf("imaging: autorotate %s: %w", v.Name, err)
		}

		params := vips.NewWebpExportParams()
		params.Quality = v.Quality
		params.Lossless = false
		params.StripMetadata = true

		buf, meta, err := img.ExportWebp(params)
		img.Close()
		if err != nil {
			return nil, fmt.Errorf("imaging: export %s: %w", v.Name, err)
		}

		results = append(results, ProcessedImage{
			Name:   v.Name,
			Width:  meta.Width,
			Height: meta.Height,
			Data:   buf,
		})

		// The original width has been reached; larger variants would be identical.
		if origWidth <= v.Width {
			break
		}
	}

	return results, nil
}

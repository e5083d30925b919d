// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strconv"

	_ "golang.org/x/image/webp" // register WebP decoder
	"golang.org/x/image/draw"

	"sitebuild/internal/fsutil"
)

// FaviconSource is the master icon, relative to the image source dir.
const FaviconSource = "favicon/favicon.png"

// DefaultFaviconSizes are the square PNG sizes derived from the master icon.
var DefaultFaviconSizes = []int{16, 32, 180}

// maxFaviconPixels rejects absurdly large master icons before a full decode.
const maxFaviconPixels = 4096 * 4096

// ScaleSquare decodes an image and resizes it to size x size pixels as PNG.
func ScaleSquare(data []byte, size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid favicon size %d", size)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxFaviconPixels {
		return nil, fmt.Errorf("image too large: %dx%d", cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode favicon: %w", err)
	}
	return buf.Bytes(), nil
}

// Favicons writes favicon-<size>.png next to the master icon in distDir.
// It returns the number of files written; a missing master icon writes none.
func Favicons(srcDir, distDir string, sizes []int) (int, error) {
	data, err := os.ReadFile(filepath.Join(srcDir, filepath.FromSlash(FaviconSource)))
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	outDir := filepath.Join(distDir, filepath.Dir(filepath.FromSlash(FaviconSource)))
	for _, size := range sizes {
		out, err := ScaleSquare(data, size)
		if err != nil {
			return 0, fmt.Errorf("imaging: favicon %d: %w", size, err)
		}
		name := "favicon-" + strconv.Itoa(size) + ".png"
		if err := fsutil.WriteFile(filepath.Join(outDir, name), out); err != nil {
			return 0, err
		}
	}
	return len(sizes), nil
}

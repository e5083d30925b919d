// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func pngFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestScaleSquare(t *testing.T) {
	out, err := ScaleSquare(pngFixture(t, 64, 64), 16)
	if err != nil {
		t.Fatalf("ScaleSquare: %v", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if format != "png" || cfg.Width != 16 || cfg.Height != 16 {
		t.Errorf("got %s %dx%d, want png 16x16", format, cfg.Width, cfg.Height)
	}
}

func TestScaleSquare_Invalid(t *testing.T) {
	if _, err := ScaleSquare([]byte("not an image"), 16); err == nil {
		t.Error("expected error for garbage input")
	}
	if _, err := ScaleSquare(pngFixture(t, 4, 4), 0); err == nil {
		t.Error("expected error for zero size")
	}
}

func TestFavicons(t *testing.T) {
	src := t.TempDir()
	dist := t.TempDir()
	if err := os.MkdirAll(filepath.Join(src, "favicon"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "favicon", "favicon.png"), pngFixture(t, 64, 64), 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := Favicons(src, dist, []int{16, 32})
	if err != nil {
		t.Fatalf("Favicons: %v", err)
	}
	if n != 2 {
		t.Errorf("wrote %d favicons, want 2", n)
	}
	for _, name := range []string{"favicon-16.png", "favicon-32.png"} {
		if _, err := os.Stat(filepath.Join(dist, "favicon", name)); err != nil {
			t.Errorf("%s missing: %v", name, err)
		}
	}
}

func TestFavicons_NoMaster(t *testing.T) {
	n, err := Favicons(t.TempDir(), t.TempDir(), DefaultFaviconSizes)
	if err != nil || n != 0 {
		t.Errorf("Favicons without master = %d, %v; want 0, nil", n, err)
	}
}

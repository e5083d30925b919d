// Package sprite combines individual SVG icons into one "stack" sprite.
// Every icon becomes a nested <svg> with an id derived from its file name;
// only the icon addressed by the URL fragment (sprite.svg#id) is displayed.
package sprite

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"sitebuild/internal/fsutil"
	"sitebuild/internal/slug"
)

const stackStyle = `:root>svg{display:none}:root>svg:target{display:block}`

// Icon is one parsed source SVG.
type Icon struct {
	ID      string
	ViewBox string
	Width   string
	Height  string
	Inner   string // raw inner markup of the root element
}

// svgRoot captures the root attributes and inner markup of an SVG file.
type svgRoot struct {
	XMLName xml.Name   `xml:"svg"`
	Attrs   []xml.Attr `xml:",any,attr"`
	Inner   string     `xml:",innerxml"`
}

// Parse reads an icon from SVG source. id is used verbatim.
func Parse(id string, data []byte) (Icon, error) {
	var root svgRoot
	if err := xml.Unmarshal(data, &root); err != nil {
		return Icon{}, fmt.Errorf("sprite: parse %s: %w", id, err)
	}
	icon := Icon{ID: id, Inner: root.Inner}
	for _, a := range root.Attrs {
		switch a.Name.Local {
		case "viewBox":
			icon.ViewBox = a.Value
		case "width":
			icon.Width = a.Value
		case "height":
			icon.Height = a.Value
		}
	}
	if icon.ViewBox == "" && icon.Width != "" && icon.Height != "" {
		icon.ViewBox = fmt.Sprintf("0 0 %s %s", icon.Width, icon.Height)
	}
	return icon, nil
}

// Render writes the stack sprite for icons in the given order.
func Render(icons []Icon) []byte {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	buf.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink">`)
	buf.WriteString(`<style>` + stackStyle + `</style>`)
	for _, icon := range icons {
		buf.WriteString(`<svg id="`)
		xml.EscapeText(&buf, []byte(icon.ID))
		buf.WriteString(`"`)
		if icon.ViewBox != "" {
			buf.WriteString(` viewBox="`)
			xml.EscapeText(&buf, []byte(icon.ViewBox))
			buf.WriteString(`"`)
		}
		buf.WriteString(`>`)
		buf.WriteString(icon.Inner)
		buf.WriteString(`</svg>`)
	}
	buf.WriteString(`</svg>`)
	return buf.Bytes()
}

// Build reads every .svg directly inside srcDir and writes the sprite to out.
// No sprite is written when there are no icons. Duplicate ids are rejected.
func Build(srcDir, out string) (int, error) {
	files, err := fsutil.Find(srcDir, false, func(rel string) bool {
		return fsutil.HasExt(rel, ".svg")
	})
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, nil
	}

	icons := make([]Icon, 0, len(files))
	seen := make(map[string]string, len(files))
	for _, rel := range files {
		id := slug.FromFilename(rel)
		if prev, dup := seen[id]; dup {
			return 0, fmt.Errorf("sprite: %s and %s both map to id %q", prev, rel, id)
		}
		seen[id] = rel

		data, err := os.ReadFile(filepath.Join(srcDir, rel))
		if err != nil {
			return 0, fmt.Errorf("sprite: read %s: %w", rel, err)
		}
		icon, err := Parse(id, data)
		if err != nil {
			return 0, err
		}
		icons = append(icons, icon)
	}

	if err := fsutil.WriteFile(out, Render(icons)); err != nil {
		return 0, err
	}
	slog.Debug("sprite written", "icons", len(icons), "path", out)
	return len(icons), nil
}

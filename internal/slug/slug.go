// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug turns asset file names into identifiers safe for use as
// element ids and URL fragments (sprite symbols are addressed as
// sprite.svg#<slug>).
package slug

import (
	"path"
	"regexp"
	"strings"
)

var (
	// nonAlphanumeric matches anything that isn't a letter, digit, space or hyphen.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// separators are turned into hyphens before stripping.
	separators = regexp.MustCompile(`[\s_.]+`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// Generate creates an identifier from an arbitrary string.
// Example: "Arrow Left_small" → "arrow-left-small"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = separators.ReplaceAllString(result, "-")
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = multipleHyphens.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// FromFilename drops the directory and the last extension before slugging.
// Example: "icons/Arrow Left.svg" → "arrow-left"
func FromFilename(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	return Generate(strings.TrimSuffix(base, path.Ext(base)))
}

// Package web provides the embedded default page layout. Sites override it by
// placing their own _layout.html next to their pages.
package web

import "embed"

// TemplatesFS embeds the web/templates/ directory.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// DefaultLayout is the path of the default layout inside TemplatesFS.
const DefaultLayout = "templates/layout.html"

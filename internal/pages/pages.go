// Package pages renders the site pages into the output directory. Markdown
// pages are converted and wrapped in the layout; HTML pages are executed as
// templates together with the shared partials.
package pages

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"sitebuild/internal/fsutil"
	"sitebuild/internal/markdown"
	"sitebuild/web"
)

// LayoutFile is the site-provided layout, looked up in the pages directory.
const LayoutFile = "_layout.html"

// PartialsDir holds templates shared by HTML pages.
const PartialsDir = "partials"

// Data is passed to layouts and HTML page templates.
type Data struct {
	Name  string // output base name without extension
	Title string
	Lang  string
	Body  template.HTML
	Year  int
}

// Options configures a page build.
type Options struct {
	SrcDir  string // e.g. src/pages
	DistDir string // e.g. docs
	Lang    string // empty means "en"
}

// Build renders every .md and .html page directly inside SrcDir. Files
// starting with an underscore are skipped. It returns the number of pages
// written.
func Build(opts Options) (int, error) {
	files, err := fsutil.Find(opts.SrcDir, false, func(rel string) bool {
		return !strings.HasPrefix(rel, "_") && fsutil.HasExt(rel, ".md", ".html")
	})
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, nil
	}

	layout, err := loadLayout(opts.SrcDir)
	if err != nil {
		return 0, err
	}
	partials, err := fsutil.Find(filepath.Join(opts.SrcDir, PartialsDir), true, func(rel string) bool {
		return fsutil.HasExt(rel, ".html")
	})
	if err != nil {
		return 0, err
	}
	for i, rel := range partials {
		partials[i] = filepath.Join(opts.SrcDir, PartialsDir, filepath.FromSlash(rel))
	}

	lang := opts.Lang
	if lang == "" {
		lang = "en"
	}

	for _, rel := range files {
		name := strings.TrimSuffix(rel, path.Ext(rel))
		data := Data{Name: name, Title: name, Lang: lang, Year: time.Now().Year()}
		src := filepath.Join(opts.SrcDir, rel)

		var out []byte
		if fsutil.HasExt(rel, ".md") {
			out, err = renderMarkdown(layout, src, data)
		} else {
			out, err = renderHTML(src, partials, data)
		}
		if err != nil {
			return 0, fmt.Errorf("pages: %s: %w", rel, err)
		}

		if err := fsutil.WriteFile(filepath.Join(opts.DistDir, name+".html"), out); err != nil {
			return 0, err
		}
		slog.Debug("page rendered", "page", rel)
	}
	return len(files), nil
}

// loadLayout parses the site layout, falling back to the embedded default.
func loadLayout(srcDir string) (*template.Template, error) {
	p := filepath.Join(srcDir, LayoutFile)
	if _, err := os.Stat(p); err == nil {
		t, err := template.ParseFiles(p)
		if err != nil {
			return nil, fmt.Errorf("pages: parse layout: %w", err)
		}
		return t, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("pages: stat layout: %w", err)
	}
	return template.ParseFS(web.TemplatesFS, web.DefaultLayout)
}

func renderMarkdown(layout *template.Template, src string, data Data) ([]byte, error) {
	source, err := os.ReadFile(src)
	if err != nil {
		return nil, err
	}
	doc, err := markdown.Convert(source)
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	if doc.Title != "" {
		data.Title = doc.Title
	}
	data.Body = template.HTML(doc.HTML)

	var buf bytes.Buffer
	if err := layout.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	return buf.Bytes(), nil
}

func renderHTML(src string, partials []string, data Data) ([]byte, error) {
	t, err := template.ParseFiles(append([]string{src}, partials...)...)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, filepath.Base(src), data); err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	return buf.Bytes(), nil
}

package markdown

import (
	"strings"
	"testing"
)

func TestConvert(t *testing.T) {
	src := "# About *us*\n\nSome text.\n\n## Team\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"
	doc, err := Convert([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "About us" {
		t.Errorf("Title = %q, want %q", doc.Title, "About us")
	}
	for _, want := range []string{`<h1 id="about-us">`, `<h2 id="team">`, "<table>", "<p>Some text.</p>"} {
		if !strings.Contains(doc.HTML, want) {
			t.Errorf("HTML missing %q:\n%s", want, doc.HTML)
		}
	}
}

func TestConvert_NoTitle(t *testing.T) {
	doc, err := Convert([]byte("just a paragraph\n"))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "" {
		t.Errorf("Title = %q, want empty", doc.Title)
	}
}

func TestConvert_RawHTMLPassThrough(t *testing.T) {
	doc, err := Convert([]byte(`<svg class="icon"><use href="images/sprite.svg#menu"></use></svg>`))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(doc.HTML, `<use href="images/sprite.svg#menu">`) {
		t.Errorf("raw HTML was escaped: %s", doc.HTML)
	}
}

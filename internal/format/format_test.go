package format

import (
	"testing"

	"github.com/jherman/bibflow/internal/document"
)

func TestDocExpansion(t *testing.T) {
	doc := document.New()
	doc.Set("author", "Schroedinger, Erwin")
	doc.Set("year", float64(1926))

	got := Doc("{doc[author]}{doc[year]}", doc)
	if got != "Schroedinger, Erwin1926" {
		t.Errorf("Doc = %q", got)
	}
}

func TestDocAbsentFieldExpandsEmpty(t *testing.T) {
	doc := document.New()
	doc.Set("title", "On Heat")

	if got := Doc("{doc[author]}-{doc[title]}", doc); got != "-On Heat" {
		t.Errorf("Doc = %q, want -On Heat", got)
	}
}

func TestDocTruncation(t *testing.T) {
	doc := document.New()
	doc.Set("title", "A Very Long Title Indeed")

	if got := Doc("{doc[title]:.6}", doc); got != "A Very" {
		t.Errorf("truncated = %q, want A Very", got)
	}
	doc.Set("title", "ok")
	if got := Doc("{doc[title]:.6}", doc); got != "ok" {
		t.Errorf("short value truncated to %q", got)
	}
}

func TestAuthorExpansion(t *testing.T) {
	au := document.Author{Given: "Erwin", Family: "Schroedinger"}
	if got := Author("{au[family]}, {au[given]}", au); got != "Schroedinger, Erwin" {
		t.Errorf("Author = %q", got)
	}
}

func TestAuthorLeavesDocPlaceholders(t *testing.T) {
	au := document.Author{Family: "Doe"}
	got := Author("{au[family]} {doc[year]}", au)
	if got != "Doe {doc[year]}" {
		t.Errorf("Author = %q, doc placeholders must survive", got)
	}
}

func TestStripWhitespace(t *testing.T) {
	cases := map[string]string{
		"Doe, Jane 2020": "Doe,Jane2020",
		"  a\tb\nc ":     "abc",
		"nospace":        "nospace",
		"":               "",
	}
	for in, want := range cases {
		if got := StripWhitespace(in); got != want {
			t.Errorf("StripWhitespace(%q) = %q, want %q", in, got, want)
		}
	}
}

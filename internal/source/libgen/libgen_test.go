package libgen

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jherman/bibflow/internal/document"
	"github.com/jherman/bibflow/internal/normalize"
)

func TestSearchAndLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search.php":
			if r.URL.Query().Get("column") != ColumnTitle {
				t.Errorf("column = %q", r.URL.Query().Get("column"))
			}
			fmt.Fprint(w, `[{"id":"100"},{"id":"200"}]`)
		case "/json.php":
			if r.URL.Query().Get("ids") != "100,200" {
				t.Errorf("ids = %q", r.URL.Query().Get("ids"))
			}
			fmt.Fprint(w, `[{"id":"100","title":"Molecular Electronic-Structure Theory","md5":"abc123"}]`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))
	ids, err := c.Search(context.Background(), "electronic structure", ColumnTitle)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(ids) != 2 || ids[0] != "100" {
		t.Fatalf("ids = %v", ids)
	}

	records, err := c.Lookup(context.Background(), ids)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0]["type"] != "book" {
		t.Errorf("type = %v", records[0]["type"])
	}
	wantURL := server.URL + "/book/index.php?md5=abc123"
	if records[0]["download"] != wantURL {
		t.Errorf("download = %v, want %s", records[0]["download"], wantURL)
	}
}

func TestLookupEmptyIDs(t *testing.T) {
	c := NewClient()
	records, err := c.Lookup(context.Background(), nil)
	if err != nil || records != nil {
		t.Errorf("Lookup(nil) = %v, %v; want nil, nil", records, err)
	}
}

func TestNormalizeRecord(t *testing.T) {
	source := map[string]any{
		"title":      "Molecular Electronic-Structure Theory",
		"author":     "Helgaker, Trygve; Jorgensen, Poul; Olsen, Jeppe",
		"year":       "2000",
		"publisher":  "Wiley",
		"pages":      "908",
		"identifier": "9780471967552, 0471967556",
		"extension":  "pdf",
		"download":   "https://libgen.rs/book/index.php?md5=abc",
		"type":       "book",
		"md5":        "abc",
	}

	n := normalize.New(Table(), normalize.DefaultOptions())
	doc, fieldErrs, err := n.Normalize(source)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(fieldErrs) != 0 {
		t.Fatalf("unexpected field errors: %v", fieldErrs)
	}

	want := "Helgaker, Trygve and Jorgensen, Poul and Olsen, Jeppe"
	if got := doc.String(document.KeyAuthor); got != want {
		t.Errorf("author = %q, want %q", got, want)
	}
	if got := doc.String("isbn"); got != "9780471967552" {
		t.Errorf("isbn = %q", got)
	}
	if got := doc.String(document.KeyURL); got != "https://libgen.rs/book/index.php?md5=abc" {
		t.Errorf("url = %q", got)
	}
	if doc.Has("md5") {
		t.Error("md5 must be dropped")
	}
}

func TestAuthorListSingleName(t *testing.T) {
	got, err := authorList("Knuth, Donald E.")
	if err != nil {
		t.Fatalf("authorList: %v", err)
	}
	authors := got.([]document.Author)
	if len(authors) != 1 || authors[0].Family != "Knuth" || authors[0].Given != "Donald E." {
		t.Errorf("authors = %+v", authors)
	}
}

package normalize

import (
	"errors"
	"testing"

	"github.com/jherman/bibflow/internal/document"
	"github.com/jherman/bibflow/internal/schema"
)

// testTable mimics a small external schema: rename, fan-out, and a
// transform that can fail.
func testTable() schema.Table {
	return schema.NewTable(map[string][]schema.Rule{
		"DOI":   schema.One(schema.Rule{TargetKey: "doi"}),
		"title": schema.One(schema.Rule{Transform: schema.First}),
		"published": {
			{TargetKey: "year", Transform: func(v any) (any, error) {
				parts, err := schema.AsSlice(v)
				if err != nil {
					return nil, err
				}
				return parts[0], nil
			}},
			{TargetKey: "month", Transform: func(v any) (any, error) {
				parts, err := schema.AsSlice(v)
				if err != nil {
					return nil, err
				}
				if len(parts) < 2 {
					return nil, errors.New("no month part")
				}
				return parts[1], nil
			}},
		},
		"author": schema.One(schema.Rule{TargetKey: "author_list", Transform: func(v any) (any, error) {
			entries, err := schema.AsSlice(v)
			if err != nil {
				return nil, err
			}
			out := make([]document.Author, 0, len(entries))
			for _, e := range entries {
				m, err := schema.AsMap(e)
				if err != nil {
					return nil, err
				}
				out = append(out, document.Author{
					Given:  document.Stringify(m["given"]),
					Family: document.Stringify(m["family"]),
				})
			}
			return out, nil
		}}),
	})
}

func TestNormalizeFullRecord(t *testing.T) {
	n := New(testTable(), Options{})
	source := map[string]any{
		"DOI":       "10.1000/xyz",
		"title":     []any{"What Is Life?"},
		"published": []any{float64(1944), float64(2)},
		"author": []any{
			map[string]any{"given": "Erwin", "family": "Schroedinger"},
		},
		"indexed": "should be dropped",
	}

	doc, fieldErrs, err := n.Normalize(source)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(fieldErrs) != 0 {
		t.Fatalf("unexpected field errors: %v", fieldErrs)
	}

	if got := doc.String(document.KeyDOI); got != "10.1000/xyz" {
		t.Errorf("doi = %q", got)
	}
	if got := doc.String(document.KeyTitle); got != "What Is Life?" {
		t.Errorf("title = %q", got)
	}
	if got := doc.String(document.KeyYear); got != "1944" {
		t.Errorf("year = %q", got)
	}
	if got := doc.String(document.KeyMonth); got != "2" {
		t.Errorf("month = %q", got)
	}
	if doc.Has("indexed") {
		t.Error("uncovered field must not appear in the document")
	}
	if got := doc.String(document.KeyAuthor); got != "Schroedinger, Erwin" {
		t.Errorf("author = %q", got)
	}
	if got := doc.Ref(); got != "Schroedinger,Erwin1944" {
		t.Errorf("ref = %q", got)
	}
}

func TestNormalizeEmptySource(t *testing.T) {
	n := New(testTable(), Options{})

	if _, _, err := n.Normalize(nil); !errors.Is(err, ErrInvalidSource) {
		t.Errorf("nil source: err = %v, want ErrInvalidSource", err)
	}
	if _, _, err := n.Normalize(map[string]any{}); !errors.Is(err, ErrInvalidSource) {
		t.Errorf("empty source: err = %v, want ErrInvalidSource", err)
	}
}

func TestNormalizeFieldFailureDegradesOnlyThatField(t *testing.T) {
	n := New(testTable(), Options{})
	source := map[string]any{
		"DOI":       "10.1/ok",
		"published": []any{float64(2001)}, // year present, month part missing
	}

	doc, fieldErrs, err := n.Normalize(source)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(fieldErrs) != 1 {
		t.Fatalf("expected 1 field error, got %v", fieldErrs)
	}
	if fieldErrs[0].TargetKey != "month" {
		t.Errorf("error targets %q, want month", fieldErrs[0].TargetKey)
	}
	if doc.String(document.KeyYear) != "2001" {
		t.Errorf("year lost: %q", doc.String(document.KeyYear))
	}
	if doc.Has(document.KeyMonth) {
		t.Error("failed field must be absent, not nil")
	}
}

func TestNormalizeMultipleAuthors(t *testing.T) {
	n := New(testTable(), Options{
		AuthorSeparator: " and ",
		AuthorFormat:    "{au[family]}, {au[given]}",
	})
	source := map[string]any{
		"author": []any{
			map[string]any{"given": "Max", "family": "Born"},
			map[string]any{"given": "Werner", "family": "Heisenberg"},
		},
	}

	doc, _, err := n.Normalize(source)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := "Born, Max and Heisenberg, Werner"
	if got := doc.String(document.KeyAuthor); got != want {
		t.Errorf("author = %q, want %q", got, want)
	}
}

func TestNormalizeRefHasNoWhitespace(t *testing.T) {
	n := New(testTable(), Options{RefFormat: "{doc[author]} {doc[year]}"})
	source := map[string]any{
		"author": []any{
			map[string]any{"given": "Paul", "family": "Dirac"},
		},
		"published": []any{float64(1928), float64(1)},
	}

	doc, _, err := n.Normalize(source)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	ref := doc.Ref()
	if ref == "" {
		t.Fatal("ref is empty")
	}
	for _, r := range ref {
		if r == ' ' || r == '\t' || r == '\n' {
			t.Fatalf("ref %q contains whitespace", ref)
		}
	}
}

func TestNormalizeRefStableOnRenormalization(t *testing.T) {
	n := New(testTable(), Options{})
	source := map[string]any{
		"DOI":       "10.1000/xyz",
		"title":     []any{"What Is Life?"},
		"published": []any{float64(1944), float64(2)},
		"author": []any{
			map[string]any{"given": "Erwin", "family": "Schroedinger"},
		},
	}

	doc, _, err := n.Normalize(source)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	ref := doc.Ref()
	if ref == "" {
		t.Fatal("ref is empty")
	}

	// Feed the canonical record back through an identity table; the
	// re-derived ref must come out unchanged.
	identity := make(map[string][]schema.Rule, doc.Len())
	for _, key := range doc.Keys() {
		identity[key] = schema.Same()
	}
	again := New(schema.NewTable(identity), Options{})

	redone, fieldErrs, err := again.Normalize(doc.ToMap())
	if err != nil {
		t.Fatalf("re-normalize: %v", err)
	}
	if len(fieldErrs) != 0 {
		t.Fatalf("unexpected field errors: %v", fieldErrs)
	}
	if redone.Ref() != ref {
		t.Errorf("ref changed on re-normalization: %q -> %q", ref, redone.Ref())
	}
}

func TestCompleteKeepsExistingRef(t *testing.T) {
	n := New(testTable(), Options{})
	doc := document.New()
	doc.Set(document.KeyRef, "myKey2020")
	doc.Set(document.KeyAuthorList, []document.Author{{Given: "A", Family: "B"}})

	n.Complete(doc)

	if doc.Ref() != "myKey2020" {
		t.Errorf("existing ref overwritten: %q", doc.Ref())
	}
	if doc.String(document.KeyAuthor) != "B, A" {
		t.Errorf("author not derived: %q", doc.String(document.KeyAuthor))
	}
}

func TestCompleteDerivesMissingRef(t *testing.T) {
	n := New(testTable(), Options{})
	doc := document.New()
	doc.Set(document.KeyAuthor, "Curie, Marie")
	doc.Set(document.KeyYear, 1903)

	n.Complete(doc)

	if doc.Ref() != "Curie,Marie1903" {
		t.Errorf("ref = %q", doc.Ref())
	}
}

func TestFlattenAuthorsKeepsExistingAuthor(t *testing.T) {
	n := New(testTable(), Options{})
	doc := document.New()
	doc.Set(document.KeyAuthor, "Preformatted Name")
	doc.Set(document.KeyAuthorList, []document.Author{{Given: "X", Family: "Y"}})

	n.Complete(doc)

	if doc.String(document.KeyAuthor) != "Preformatted Name" {
		t.Errorf("author overwritten: %q", doc.String(document.KeyAuthor))
	}
}

// Package normalize turns raw source records into canonical documents by
// applying a conversion table, flattening the author list, and deriving
// the citation ref key.
package normalize

import (
	"errors"
	"strings"

	"github.com/jherman/bibflow/internal/document"
	"github.com/jherman/bibflow/internal/format"
	"github.com/jherman/bibflow/internal/schema"
)

// ErrInvalidSource indicates the source record could not be processed at
// all (nil or empty input). Callers treat the item as contributing zero
// records.
var ErrInvalidSource = errors.New("invalid source record")

// Default templates, matching the configuration defaults.
const (
	DefaultAuthorSeparator = " and "
	DefaultAuthorFormat    = "{au[family]}, {au[given]}"
	DefaultRefFormat       = "{doc[author]}{doc[year]}"
)

// Options configures composite-field post-processing.
type Options struct {
	// AuthorSeparator joins formatted author entries into the display
	// author string.
	AuthorSeparator string
	// AuthorFormat is the per-entry template ({au[...]} placeholders).
	AuthorFormat string
	// RefFormat is the citation-key template ({doc[...]} placeholders),
	// applied after all other fields are set.
	RefFormat string
}

// DefaultOptions returns the stock formatting options.
func DefaultOptions() Options {
	return Options{
		AuthorSeparator: DefaultAuthorSeparator,
		AuthorFormat:    DefaultAuthorFormat,
		RefFormat:       DefaultRefFormat,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.AuthorSeparator == "" {
		o.AuthorSeparator = d.AuthorSeparator
	}
	if o.AuthorFormat == "" {
		o.AuthorFormat = d.AuthorFormat
	}
	if o.RefFormat == "" {
		o.RefFormat = d.RefFormat
	}
	return o
}

// Normalizer converts source records of one external schema.
type Normalizer struct {
	table schema.Table
	opts  Options
}

// New creates a Normalizer for a conversion table.
func New(table schema.Table, opts Options) *Normalizer {
	return &Normalizer{table: table, opts: opts.withDefaults()}
}

// Normalize maps a raw source record into a canonical document. Per-field
// transform failures are returned alongside the document and degrade only
// the affected fields. A nil or empty source record yields
// ErrInvalidSource.
func (n *Normalizer) Normalize(source map[string]any) (*document.Document, []*schema.FieldError, error) {
	if len(source) == 0 {
		return nil, nil, ErrInvalidSource
	}

	frag, fieldErrs := schema.Apply(source, n.table)

	doc := document.New()
	for _, f := range frag {
		doc.Set(f.Key, f.Value)
	}

	n.flattenAuthors(doc)

	// The ref template may reference any canonical field, so this must
	// stay the last step.
	ref := format.StripWhitespace(format.Doc(n.opts.RefFormat, doc))
	doc.Set(document.KeyRef, ref)

	return doc, fieldErrs, nil
}

// Complete fills in the derived fields of a record that is already in the
// canonical schema (e.g. read back from a bibtex/yaml/json file): the
// display author string when an author_list is present without one, and
// the ref key when absent. An existing ref is kept so user-chosen citation
// keys survive round-trips.
func (n *Normalizer) Complete(doc *document.Document) {
	n.flattenAuthors(doc)
	if doc.Ref() == "" {
		ref := format.StripWhitespace(format.Doc(n.opts.RefFormat, doc))
		doc.Set(document.KeyRef, ref)
	}
}

// flattenAuthors derives the display author string from author_list.
// An existing author field (e.g. from a source whose schema already
// carries one) is left alone.
func (n *Normalizer) flattenAuthors(doc *document.Document) {
	if doc.Has(document.KeyAuthor) {
		return
	}
	authors := doc.AuthorList()
	if len(authors) == 0 {
		return
	}
	parts := make([]string, len(authors))
	for i, au := range authors {
		parts[i] = format.Author(n.opts.AuthorFormat, au)
	}
	doc.Set(document.KeyAuthor, strings.Join(parts, n.opts.AuthorSeparator))
}

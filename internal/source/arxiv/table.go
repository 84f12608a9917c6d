package arxiv

import (
	"fmt"
	"strings"
	"time"

	"github.com/jherman/bibflow/internal/document"
	"github.com/jherman/bibflow/internal/schema"
)

var table = schema.NewTable(map[string][]schema.Rule{
	// The Atom id doubles as the abstract page URL.
	"id": {
		{TargetKey: document.KeyURL},
		{TargetKey: "arxivid", Transform: arxivID},
	},
	"title":   schema.One(schema.Rule{TargetKey: document.KeyTitle, Transform: collapseWhitespace}),
	"summary": schema.One(schema.Rule{TargetKey: "abstract", Transform: collapseWhitespace}),
	"author": schema.One(schema.Rule{
		TargetKey: document.KeyAuthorList,
		Transform: authorList,
	}),
	"published": {
		{TargetKey: document.KeyYear, Transform: publishedPart(func(t time.Time) int { return t.Year() })},
		{TargetKey: document.KeyMonth, Transform: publishedPart(func(t time.Time) int { return int(t.Month()) })},
	},
	"doi":         schema.Same(),
	"journal_ref": schema.One(schema.Rule{TargetKey: document.KeyJournal}),
	"comment":     schema.Same(),
	"category":    schema.One(schema.Rule{TargetKey: "tags", Transform: joinTags}),
	"type":        schema.Same(),
})

// Table returns the arXiv conversion table.
func Table() schema.Table {
	return table
}

// arxivID strips the abs URL prefix, leaving the bare identifier.
func arxivID(v any) (any, error) {
	s, err := schema.AsString(v)
	if err != nil {
		return nil, err
	}
	for _, prefix := range []string{"http://arxiv.org/abs/", "https://arxiv.org/abs/"} {
		s = strings.TrimPrefix(s, prefix)
	}
	return s, nil
}

// collapseWhitespace flattens the newline-wrapped text arXiv returns.
func collapseWhitespace(v any) (any, error) {
	s, err := schema.AsString(v)
	if err != nil {
		return nil, err
	}
	return strings.Join(strings.Fields(s), " "), nil
}

// authorList splits full names into given/family pairs. The last token is
// the family name; everything before it is the given name.
func authorList(v any) (any, error) {
	raw, err := schema.AsSlice(v)
	if err != nil {
		return nil, err
	}
	authors := make([]document.Author, 0, len(raw))
	for _, e := range raw {
		m, err := schema.AsMap(e)
		if err != nil {
			return nil, err
		}
		name := strings.Fields(document.Stringify(m["name"]))
		var au document.Author
		switch len(name) {
		case 0:
		case 1:
			au.Family = name[0]
		default:
			au.Given = strings.Join(name[:len(name)-1], " ")
			au.Family = name[len(name)-1]
		}
		authors = append(authors, au)
	}
	return authors, nil
}

// publishedPart extracts one component of the RFC 3339 published stamp.
func publishedPart(pick func(time.Time) int) schema.Transform {
	return func(v any) (any, error) {
		s, err := schema.AsString(v)
		if err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("parsing published date: %w", err)
		}
		return pick(t), nil
	}
}

// joinTags flattens category terms into one space-separated field.
func joinTags(v any) (any, error) {
	raw, err := schema.AsSlice(v)
	if err != nil {
		return nil, err
	}
	terms := make([]string, 0, len(raw))
	for _, e := range raw {
		terms = append(terms, document.Stringify(e))
	}
	return strings.Join(terms, " "), nil
}

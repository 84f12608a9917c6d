package libgen

import (
	"strings"

	"github.com/jherman/bibflow/internal/document"
	"github.com/jherman/bibflow/internal/schema"
)

var table = schema.NewTable(map[string][]schema.Rule{
	"title": schema.Same(),
	"author": schema.One(schema.Rule{
		TargetKey: document.KeyAuthorList,
		Transform: authorList,
	}),
	"year":      schema.Same(),
	"publisher": schema.Same(),
	"pages":     schema.Same(),
	"identifier": schema.One(schema.Rule{
		TargetKey: "isbn",
		Transform: firstIdentifier,
	}),
	"extension": schema.Same(),
	"download":  schema.One(schema.Rule{TargetKey: document.KeyURL}),
	"type":      schema.Same(),
})

// Table returns the Library Genesis conversion table.
func Table() schema.Table {
	return table
}

// authorList parses the "Family, Given; Family, Given" author string.
func authorList(v any) (any, error) {
	s, err := schema.AsString(v)
	if err != nil {
		return nil, err
	}
	var authors []document.Author
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		au := document.Author{Family: part}
		if family, given, ok := strings.Cut(part, ","); ok {
			au.Family = strings.TrimSpace(family)
			au.Given = strings.TrimSpace(given)
		}
		authors = append(authors, au)
	}
	return authors, nil
}

// firstIdentifier keeps the first ISBN of the comma-separated list.
func firstIdentifier(v any) (any, error) {
	s, err := schema.AsString(v)
	if err != nil {
		return nil, err
	}
	first, _, _ := strings.Cut(s, ",")
	return strings.TrimSpace(first), nil
}

package isbn

import (
	"strings"

	"github.com/jherman/bibflow/internal/document"
	"github.com/jherman/bibflow/internal/schema"
)

var table = schema.NewTable(map[string][]schema.Rule{
	"title": schema.Same(),
	"author_name": schema.One(schema.Rule{
		TargetKey: document.KeyAuthorList,
		Transform: authorList,
	}),
	"first_publish_year": schema.One(schema.Rule{TargetKey: document.KeyYear}),
	"publisher":          schema.One(schema.Rule{Transform: schema.First}),
	"isbn":               schema.One(schema.Rule{Transform: schema.First}),
	"key": schema.One(schema.Rule{
		TargetKey: document.KeyURL,
		Transform: workURL,
	}),
	"type": schema.Same(),
})

// Table returns the Open Library conversion table.
func Table() schema.Table {
	return table
}

// authorList splits display names into given/family pairs.
func authorList(v any) (any, error) {
	raw, err := schema.AsSlice(v)
	if err != nil {
		return nil, err
	}
	authors := make([]document.Author, 0, len(raw))
	for _, e := range raw {
		name := strings.Fields(document.Stringify(e))
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

// workURL resolves a work key like /works/OL123W to its page URL.
func workURL(v any) (any, error) {
	key, err := schema.AsString(v)
	if err != nil {
		return nil, err
	}
	return BaseURL + key, nil
}

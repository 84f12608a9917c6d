package crossref

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jherman/bibflow/internal/document"
	"github.com/jherman/bibflow/internal/schema"
)

// typeConversion maps crossref work types onto bibliography entry types.
var typeConversion = map[string]string{
	"book":                "book",
	"book-chapter":        "inbook",
	"book-part":           "inbook",
	"book-section":        "inbook",
	"book-series":         "incollection",
	"book-set":            "incollection",
	"book-track":          "inbook",
	"dataset":             "misc",
	"dissertation":        "phdthesis",
	"edited-book":         "book",
	"journal-article":     "article",
	"journal-issue":       "misc",
	"journal-volume":      "article",
	"monograph":           "monograph",
	"other":               "misc",
	"peer-review":         "article",
	"posted-content":      "misc",
	"proceedings":         "inproceedings",
	"proceedings-article": "inproceedings",
	"proceedings-series":  "inproceedings",
	"reference-book":      "book",
	"report":              "report",
	"report-series":       "inproceedings",
	"standard":            "techreport",
	"standard-series":     "incollection",
}

// Single dash between page numbers becomes the typographic double dash.
var singleDashPattern = regexp.MustCompile(`(-[^-])`)

// table is built once and shared read-only by every normalization call.
var table = schema.NewTable(map[string][]schema.Rule{
	"DOI": schema.One(schema.Rule{TargetKey: document.KeyDOI}),
	"URL": schema.One(schema.Rule{TargetKey: document.KeyURL}),
	"author": schema.One(schema.Rule{
		TargetKey: document.KeyAuthorList,
		Transform: authorList,
	}),
	"container-title": schema.One(schema.Rule{
		TargetKey: document.KeyJournal,
		Transform: schema.First,
	}),
	"issue":    schema.Same(),
	"language": schema.Same(),
	"page": schema.One(schema.Rule{
		TargetKey: "pages",
		Transform: doubleDashes,
	}),
	// One source field fans out into two canonical fields.
	"published-print": {
		{TargetKey: document.KeyYear, Transform: datePart(0)},
		{TargetKey: document.KeyMonth, Transform: datePart(1)},
	},
	"publisher": schema.Same(),
	"reference": schema.One(schema.Rule{
		TargetKey: document.KeyCitations,
		Transform: citationList,
	}),
	"title": schema.One(schema.Rule{
		TargetKey: document.KeyTitle,
		Transform: joinTitle,
	}),
	"type": schema.One(schema.Rule{
		TargetKey: document.KeyType,
		Transform: workType,
	}),
	"volume": schema.Same(),
})

// Table returns the crossref conversion table.
func Table() schema.Table {
	return table
}

// authorList reduces crossref author objects to given/family pairs.
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
		authors = append(authors, document.Author{
			Given:  document.Stringify(m["given"]),
			Family: document.Stringify(m["family"]),
		})
	}
	return authors, nil
}

// doubleDashes converts "12-3" style page ranges to "12--3".
func doubleDashes(v any) (any, error) {
	p, err := schema.AsString(v)
	if err != nil {
		return nil, err
	}
	return singleDashPattern.ReplaceAllString(p, "-$1"), nil
}

// datePart extracts the i-th element of a crossref date field, e.g.
// {"date-parts": [[2019, 4]]} yields year 2019 and month 4.
func datePart(i int) schema.Transform {
	return func(v any) (any, error) {
		m, err := schema.AsMap(v)
		if err != nil {
			return nil, err
		}
		first, err := schema.First(m["date-parts"])
		if err != nil {
			return nil, fmt.Errorf("date-parts: %w", err)
		}
		parts, err := schema.AsSlice(first)
		if err != nil {
			return nil, err
		}
		if i >= len(parts) {
			return nil, fmt.Errorf("date has no element %d", i)
		}
		return parts[i], nil
	}
}

// citationList lowercases citation keys, dropping crossref bookkeeping
// fields, so citation DOIs can be resolved later.
func citationList(v any) (any, error) {
	raw, err := schema.AsSlice(v)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(raw))
	for _, e := range raw {
		m, err := schema.AsMap(e)
		if err != nil {
			return nil, err
		}
		entry := make(map[string]any, len(m))
		for k, val := range m {
			lk := strings.ToLower(k)
			if lk == "key" || lk == "doi-asserted-by" {
				continue
			}
			entry[lk] = val
		}
		out = append(out, entry)
	}
	return out, nil
}

// joinTitle concatenates the title fragments crossref returns as a list.
func joinTitle(v any) (any, error) {
	raw, err := schema.AsSlice(v)
	if err != nil {
		return nil, err
	}
	parts := make([]string, 0, len(raw))
	for _, e := range raw {
		s, err := schema.AsString(e)
		if err != nil {
			return nil, err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " "), nil
}

// workType maps the crossref type vocabulary onto bibliography entry types.
func workType(v any) (any, error) {
	t, err := schema.AsString(v)
	if err != nil {
		return nil, err
	}
	mapped, ok := typeConversion[t]
	if !ok {
		return nil, fmt.Errorf("unknown work type %q", t)
	}
	return mapped, nil
}

// Package webpage scrapes bibliographic metadata (Highwire citation_* meta
// tags, with OpenGraph and Dublin Core fallbacks) from a single HTML page.
package webpage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jherman/bibflow/internal/document"
	"github.com/jherman/bibflow/internal/schema"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// ErrNoMetadata indicates the page carried no recognizable citation tags.
var ErrNoMetadata = errors.New("no citation metadata found in page")

// Fetch downloads a page and extracts its raw metadata record.
func Fetch(ctx context.Context, hc *http.Client, pageURL string) (map[string]any, error) {
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetching %s: status %d", pageURL, resp.StatusCode)
	}

	rec, err := Parse(resp.Body)
	if err != nil {
		return nil, err
	}
	if _, ok := rec["url"]; !ok {
		rec["url"] = pageURL
	}
	return rec, nil
}

// Parse extracts the raw metadata record from HTML.
func Parse(r io.Reader) (map[string]any, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	rec := make(map[string]any)
	var authors []any

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		if name == "" {
			name, _ = s.Attr("property")
		}
		content, _ := s.Attr("content")
		if name == "" || content == "" {
			return
		}

		switch strings.ToLower(name) {
		case "citation_title":
			rec["title"] = content
		case "citation_author":
			authors = append(authors, content)
		case "citation_doi":
			rec["doi"] = content
		case "citation_journal_title":
			rec["journal"] = content
		case "citation_publication_date", "citation_date":
			rec["date"] = content
		case "citation_abstract_html_url", "citation_fulltext_html_url":
			if _, ok := rec["url"]; !ok {
				rec["url"] = content
			}
		case "og:title":
			if _, ok := rec["title"]; !ok {
				rec["title"] = content
			}
		case "og:url":
			if _, ok := rec["url"]; !ok {
				rec["url"] = content
			}
		case "dc.title":
			if _, ok := rec["title"]; !ok {
				rec["title"] = content
			}
		case "dc.creator":
			authors = append(authors, content)
		}
	})

	if len(authors) > 0 {
		rec["citation_author"] = authors
	}

	if len(rec) == 0 {
		return nil, ErrNoMetadata
	}
	return rec, nil
}

var table = schema.NewTable(map[string][]schema.Rule{
	"title": schema.Same(),
	"citation_author": schema.One(schema.Rule{
		TargetKey: document.KeyAuthorList,
		Transform: authorList,
	}),
	"doi":     schema.Same(),
	"journal": schema.Same(),
	"url":     schema.Same(),
	"date": {
		{TargetKey: document.KeyYear, Transform: datePart(0)},
		{TargetKey: document.KeyMonth, Transform: datePart(1)},
	},
})

// Table returns the webpage conversion table.
func Table() schema.Table {
	return table
}

// authorList parses citation_author values, which come either as
// "Family, Given" or "Given Family".
func authorList(v any) (any, error) {
	raw, err := schema.AsSlice(v)
	if err != nil {
		return nil, err
	}
	authors := make([]document.Author, 0, len(raw))
	for _, e := range raw {
		name := strings.TrimSpace(document.Stringify(e))
		if name == "" {
			continue
		}
		var au document.Author
		if family, given, ok := strings.Cut(name, ","); ok {
			au.Family = strings.TrimSpace(family)
			au.Given = strings.TrimSpace(given)
		} else {
			fields := strings.Fields(name)
			if len(fields) == 1 {
				au.Family = fields[0]
			} else {
				au.Given = strings.Join(fields[:len(fields)-1], " ")
				au.Family = fields[len(fields)-1]
			}
		}
		authors = append(authors, au)
	}
	return authors, nil
}

// datePart extracts a component of a YYYY/MM/DD or YYYY-MM-DD date string.
func datePart(i int) schema.Transform {
	return func(v any) (any, error) {
		s, err := schema.AsString(v)
		if err != nil {
			return nil, err
		}
		parts := strings.FieldsFunc(s, func(r rune) bool { return r == '/' || r == '-' })
		if i >= len(parts) {
			return nil, fmt.Errorf("date %q has no element %d", s, i)
		}
		return parts[i], nil
	}
}

// Package export serializes document sets to the supported bibliography
// formats and reads them back.
package export

import (
	"fmt"
	"strings"

	"github.com/jherman/bibflow/internal/document"
)

// bibtexSkipFields are canonical fields that never appear as bibtex entry
// fields: structured values and the key/type themselves.
var bibtexSkipFields = map[string]bool{
	document.KeyRef:        true,
	document.KeyType:       true,
	document.KeyAuthorList: true,
	document.KeyCitations:  true,
}

// ToBibTeX converts one document to a BibTeX entry.
func ToBibTeX(doc *document.Document) string {
	entryType := doc.String(document.KeyType)
	if entryType == "" {
		entryType = "article"
	}
	ref := doc.Ref()
	if ref == "" {
		ref = "unknown"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s,\n", entryType, ref)

	for _, key := range doc.Keys() {
		if bibtexSkipFields[key] {
			continue
		}
		v, _ := doc.Get(key)
		if !isScalar(v) {
			continue
		}
		value := document.Stringify(v)
		if value == "" {
			continue
		}
		fmt.Fprintf(&b, "  %s = {%s},\n", key, escapeLatex(value))
	}

	b.WriteString("}\n")
	return b.String()
}

// ToBibTeXList converts multiple documents to BibTeX.
func ToBibTeXList(docs []*document.Document) string {
	entries := make([]string, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, ToBibTeX(doc))
	}
	return strings.Join(entries, "\n")
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, int, int64, float64, bool:
		return true
	default:
		return false
	}
}

// escapeLatex escapes special LaTeX characters.
func escapeLatex(s string) string {
	// Order matters: & must be first (before other escapes that might produce &)
	replacer := strings.NewReplacer(
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}

package export

import (
	"fmt"
	"strings"
	"unicode"
)

// ParseBibTeX reads BibTeX entries into raw records, one map per entry.
// The entry key lands in "ref" and the entry type in "type". Malformed
// entries are reported but don't stop the rest of the file from loading,
// mirroring the tolerant import behavior of the other file readers.
func ParseBibTeX(data string) ([]map[string]any, []error) {
	var records []map[string]any
	var errs []error

	rest := data
	for {
		at := strings.IndexByte(rest, '@')
		if at < 0 {
			break
		}
		rest = rest[at+1:]

		entry, remainder, err := parseEntry(rest)
		if err != nil {
			errs = append(errs, err)
			// Skip past this @ and try the next one.
			continue
		}
		rest = remainder
		if entry != nil {
			records = append(records, entry)
		}
	}

	return records, errs
}

// parseEntry parses one entry starting just after its '@'.
func parseEntry(s string) (map[string]any, string, error) {
	brace := strings.IndexByte(s, '{')
	if brace < 0 {
		return nil, "", fmt.Errorf("bibtex: entry without opening brace")
	}
	entryType := strings.ToLower(strings.TrimSpace(s[:brace]))
	if entryType == "" {
		return nil, s[brace:], fmt.Errorf("bibtex: entry without type")
	}
	for _, r := range entryType {
		if !unicode.IsLetter(r) {
			return nil, "", fmt.Errorf("bibtex: invalid entry type %q", entryType)
		}
	}

	body, rest, err := matchBraces(s[brace:])
	if err != nil {
		return nil, "", fmt.Errorf("bibtex: @%s: %w", entryType, err)
	}

	// Comments and preambles aren't records.
	if entryType == "comment" || entryType == "preamble" || entryType == "string" {
		return nil, rest, nil
	}

	comma := strings.IndexByte(body, ',')
	if comma < 0 {
		return nil, rest, fmt.Errorf("bibtex: @%s: entry without citation key", entryType)
	}

	rec := map[string]any{
		"type": entryType,
		"ref":  strings.TrimSpace(body[:comma]),
	}

	for _, field := range splitFields(body[comma+1:]) {
		name, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		rec[name] = trimFieldValue(value)
	}

	return rec, rest, nil
}

// matchBraces returns the contents of a balanced {...} block and whatever
// follows it.
func matchBraces(s string) (string, string, error) {
	depth := 0
	for i, r := range s {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[1:i], s[i+1:], nil
			}
		}
	}
	return "", "", fmt.Errorf("unbalanced braces")
}

// splitFields splits an entry body on commas at brace depth zero.
func splitFields(body string) []string {
	var fields []string
	depth := 0
	start := 0
	inQuote := false

	for i, r := range body {
		switch r {
		case '{':
			if !inQuote {
				depth++
			}
		case '}':
			if !inQuote {
				depth--
			}
		case '"':
			inQuote = !inQuote
		case ',':
			if depth == 0 && !inQuote {
				fields = append(fields, body[start:i])
				start = i + 1
			}
		}
	}
	fields = append(fields, body[start:])

	out := fields[:0]
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			out = append(out, f)
		}
	}
	return out
}

// trimFieldValue strips whitespace and one layer of braces or quotes.
func trimFieldValue(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 2 {
		if v[0] == '{' && v[len(v)-1] == '}' {
			v = v[1 : len(v)-1]
		} else if v[0] == '"' && v[len(v)-1] == '"' {
			v = v[1 : len(v)-1]
		}
	}
	return strings.TrimFunc(v, unicode.IsSpace)
}

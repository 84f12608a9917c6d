// Package format expands the small placeholder templates used for citation
// keys, author display strings, and per-document shell commands.
//
// Supported placeholders:
//
//	{doc[field]}     a document field
//	{doc[field]:.N}  the field truncated to N characters
//	{au[given]}, {au[family]}  author-entry fields
//
// Absent fields expand to the empty string.
package format

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/jherman/bibflow/internal/document"
)

var placeholderPattern = regexp.MustCompile(`\{(doc|au)\[([A-Za-z0-9_-]+)\](?::\.(\d+))?\}`)

// Doc expands {doc[...]} placeholders against a document.
func Doc(template string, doc *document.Document) string {
	return expand(template, func(scope, key string) (string, bool) {
		if scope != "doc" {
			return "", false
		}
		return doc.String(key), true
	})
}

// Author expands {au[...]} placeholders against one author entry.
func Author(template string, au document.Author) string {
	return expand(template, func(scope, key string) (string, bool) {
		if scope != "au" {
			return "", false
		}
		switch key {
		case "given":
			return au.Given, true
		case "family":
			return au.Family, true
		default:
			return "", true
		}
	})
}

// StripWhitespace removes all whitespace characters.
func StripWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func expand(template string, lookup func(scope, key string) (string, bool)) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		parts := placeholderPattern.FindStringSubmatch(match)
		value, ok := lookup(parts[1], parts[2])
		if !ok {
			return match // foreign scope, leave for a later pass
		}
		if parts[3] != "" {
			value = truncate(value, atoi(parts[3]))
		}
		return value
	})
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

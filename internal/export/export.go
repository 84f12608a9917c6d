package export

import (
	"fmt"
	"strings"

	"github.com/jherman/bibflow/internal/document"
)

// Recognized output formats.
const (
	FormatBibTeX = "bibtex"
	FormatYAML   = "yaml"
	FormatJSON   = "json"
)

// Formats lists the recognized format identifiers.
func Formats() []string {
	return []string{FormatBibTeX, FormatYAML, FormatJSON}
}

// Render serializes the document set in the given format. It is a pure
// function of the accumulator.
func Render(docs []*document.Document, format string) (string, error) {
	switch format {
	case FormatBibTeX:
		return ToBibTeXList(docs), nil
	case FormatYAML:
		return ToYAML(docs)
	case FormatJSON:
		return ToJSON(docs)
	default:
		return "", fmt.Errorf("unknown format %q (recognized: %s)", format, strings.Join(Formats(), ", "))
	}
}

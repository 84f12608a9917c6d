// Package pick reduces a document set to a single chosen record.
package pick

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jherman/bibflow/internal/document"
)

// Pick selects one document. A positive number selects the 1-based entry
// directly; number zero prompts interactively on in/out. The result is a
// zero- or one-element set: nothing to pick (or a cancelled prompt) yields
// an empty set, never an error.
func Pick(docs []*document.Document, number int, in io.Reader, out io.Writer) ([]*document.Document, error) {
	if len(docs) == 0 {
		return []*document.Document{}, nil
	}

	if number > 0 {
		if number > len(docs) {
			return nil, fmt.Errorf("pick: no document %d (have %d)", number, len(docs))
		}
		return []*document.Document{docs[number-1]}, nil
	}

	if len(docs) == 1 {
		return []*document.Document{docs[0]}, nil
	}

	for i, doc := range docs {
		fmt.Fprintf(out, "%3d. %s\n", i+1, Summary(doc))
	}
	fmt.Fprintf(out, "Pick a document (1-%d, empty to cancel): ", len(docs))

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		fmt.Fprintln(out)
		return []*document.Document{}, nil
	}

	answer := strings.TrimSpace(scanner.Text())
	if answer == "" {
		return []*document.Document{}, nil
	}

	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > len(docs) {
		return nil, fmt.Errorf("pick: invalid choice %q", answer)
	}

	return []*document.Document{docs[n-1]}, nil
}

// Summary renders a one-line description of a document for pick lists.
func Summary(doc *document.Document) string {
	title := doc.String(document.KeyTitle)
	if title == "" {
		title = "(untitled)"
	}

	var parts []string
	parts = append(parts, title)
	if author := doc.String(document.KeyAuthor); author != "" {
		parts = append(parts, author)
	}
	if year := doc.String(document.KeyYear); year != "" {
		parts = append(parts, year)
	}

	return strings.Join(parts, " - ")
}

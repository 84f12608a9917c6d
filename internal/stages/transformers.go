package stages

import (
	"context"
	"strings"

	"github.com/spf13/pflag"

	"github.com/jherman/bibflow/internal/document"
	"github.com/jherman/bibflow/internal/pick"
	"github.com/jherman/bibflow/internal/pipeline"
)

func transformerStages(d *Deps) []*pipeline.Stage {
	return []*pipeline.Stage{
		pickStage(d),
		filterStage(d),
		headStage(d),
	}
}

func pickStage(d *Deps) *pipeline.Stage {
	return &pipeline.Stage{
		Name:    "pick",
		Role:    pipeline.Transformer,
		Summary: "Pick one document from the accumulated set",
		Flags: func(fs *pflag.FlagSet) {
			fs.IntP("number", "n", 0, "Pick the n-th document without prompting")
		},
		Run: func(ctx context.Context, docs []*document.Document, fs *pflag.FlagSet) ([]*document.Document, error) {
			number, _ := fs.GetInt("number")
			return pick.Pick(docs, number, d.In, d.Out)
		},
	}
}

func filterStage(d *Deps) *pipeline.Stage {
	return &pipeline.Stage{
		Name:    "filter",
		Role:    pipeline.Transformer,
		Summary: "Keep documents matching a term (\"key:value\" or substring)",
		Run: func(ctx context.Context, docs []*document.Document, fs *pflag.FlagSet) ([]*document.Document, error) {
			term := strings.Join(fs.Args(), " ")
			if strings.TrimSpace(term) == "" {
				return docs, nil
			}

			kept := make([]*document.Document, 0, len(docs))
			for _, doc := range docs {
				if matches(doc, term) {
					kept = append(kept, doc)
				}
			}
			d.Log.Debug("filtered documents", "stage", "filter", "kept", len(kept), "of", len(docs))
			return kept, nil
		},
	}
}

// matches checks a "key:value" term against one field, or a bare term
// against title, author, and ref. Matching is a case-insensitive
// substring test.
func matches(doc *document.Document, term string) bool {
	if key, value, ok := strings.Cut(term, ":"); ok && key != "" {
		return containsFold(doc.String(key), value)
	}
	for _, key := range []string{document.KeyTitle, document.KeyAuthor, document.KeyRef} {
		if containsFold(doc.String(key), term) {
			return true
		}
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(strings.TrimSpace(needle)))
}

func headStage(d *Deps) *pipeline.Stage {
	return &pipeline.Stage{
		Name:    "head",
		Role:    pipeline.Transformer,
		Summary: "Keep only the first n documents",
		Flags: func(fs *pflag.FlagSet) {
			fs.IntP("number", "n", 1, "Number of documents to keep")
		},
		Run: func(ctx context.Context, docs []*document.Document, fs *pflag.FlagSet) ([]*document.Document, error) {
			n, _ := fs.GetInt("number")
			if n < 0 {
				n = 0
			}
			if n > len(docs) {
				n = len(docs)
			}
			return docs[:n], nil
		},
	}
}

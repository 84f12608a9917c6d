package stages

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/pflag"

	"github.com/jherman/bibflow/internal/document"
	"github.com/jherman/bibflow/internal/pipeline"
	"github.com/jherman/bibflow/internal/source/crossref"
)

// DefaultCitationWorkers bounds the concurrent DOI lookups inside one
// citations invocation. The concurrency never leaks past the stage: the
// whole batch completes before the stage returns.
const DefaultCitationWorkers = 4

func citationsStage(d *Deps) *pipeline.Stage {
	return &pipeline.Stage{
		Name:    "citations",
		Role:    pipeline.Producer,
		Summary: "Resolve the citations of a library document",
		Flags: func(fs *pflag.FlagSet) {
			fs.IntP("max", "m", 0, "Maximum number of citations to resolve (0 = all)")
			fs.Int("workers", DefaultCitationWorkers, "Concurrent DOI lookups")
		},
		Run: func(ctx context.Context, docs []*document.Document, fs *pflag.FlagSet) ([]*document.Document, error) {
			if fs.NArg() == 0 {
				return nil, fmt.Errorf("citations: a library query is required")
			}
			query := strings.Join(fs.Args(), " ")
			max, _ := fs.GetInt("max")
			workers, _ := fs.GetInt("workers")
			if workers < 1 {
				workers = 1
			}

			db, err := d.OpenLibrary()
			if err != nil {
				return nil, err
			}
			defer db.Close()

			matches, err := db.Query(query)
			if err != nil {
				return nil, err
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("citations: no library document matches %q", query)
			}
			doc := matches[0]

			dois := citationDOIs(doc)
			if len(dois) == 0 {
				d.Log.Warn("document has no citations", "stage", "citations", "ref", doc.Ref())
				return docs, nil
			}
			if max > 0 && len(dois) > max {
				dois = dois[:max]
			}
			d.Log.Info("resolving citations", "stage", "citations", "ref", doc.Ref(), "count", len(dois))

			// The batch is gathered completely before touching the
			// accumulator, so an interrupted run never commits a partial
			// producer invocation.
			found := d.resolveDOIs(ctx, db, dois, workers)
			return append(docs, found...), nil
		},
	}
}

// citationDOIs extracts the DOIs from a document's citations field.
func citationDOIs(doc *document.Document) []string {
	raw, ok := doc.Get(document.KeyCitations)
	if !ok {
		return nil
	}
	entries, ok := raw.([]any)
	if !ok {
		return nil
	}

	var dois []string
	for _, e := range entries {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		if doi := document.Stringify(m["doi"]); doi != "" {
			dois = append(dois, doi)
		}
	}
	return dois
}

// resolveDOIs looks up DOIs with a bounded worker pool, preferring library
// copies over network fetches. Failed lookups are logged and skipped; the
// returned documents keep the input DOI order.
func (d *Deps) resolveDOIs(ctx context.Context, db doiIndex, dois []string, workers int) []*document.Document {
	type job struct {
		index int
		doi   string
	}
	type result struct {
		index int
		doc   *document.Document
	}

	jobs := make(chan job, len(dois))
	results := make(chan result, len(dois))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if existing, err := db.GetByDOI(crossref.CleanDOI(j.doi)); err == nil && existing != nil {
					results <- result{index: j.index, doc: existing}
					continue
				}

				raw, err := d.Crossref.WorkByDOI(ctx, j.doi)
				if err != nil {
					d.Log.Warn("citation lookup failed", "stage", "citations", "doi", j.doi, "error", err)
					continue
				}
				converted := d.normalizeAll("citations", crossref.Table(), []map[string]any{raw})
				if len(converted) == 1 {
					results <- result{index: j.index, doc: converted[0]}
				}
			}
		}()
	}

	for i, doi := range dois {
		jobs <- job{index: i, doi: doi}
	}
	close(jobs)
	wg.Wait()
	close(results)

	ordered := make([]*document.Document, len(dois))
	for r := range results {
		ordered[r.index] = r.doc
	}

	docs := make([]*document.Document, 0, len(dois))
	for _, doc := range ordered {
		if doc != nil {
			docs = append(docs, doc)
		}
	}
	return docs
}

// doiIndex is the library lookup the citation resolver needs.
type doiIndex interface {
	GetByDOI(doi string) (*document.Document, error)
}

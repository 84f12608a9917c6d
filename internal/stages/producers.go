package stages

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/jherman/bibflow/internal/document"
	"github.com/jherman/bibflow/internal/export"
	"github.com/jherman/bibflow/internal/pipeline"
	"github.com/jherman/bibflow/internal/source/arxiv"
	"github.com/jherman/bibflow/internal/source/crossref"
	"github.com/jherman/bibflow/internal/source/isbn"
	"github.com/jherman/bibflow/internal/source/libgen"
	"github.com/jherman/bibflow/internal/source/pdffile"
	"github.com/jherman/bibflow/internal/source/webpage"
)

func producerStages(d *Deps) []*pipeline.Stage {
	return []*pipeline.Stage{
		crossrefStage(d),
		arxivStage(d),
		isbnStage(d),
		libgenStage(d),
		urlStage(d),
		pdfStage(d),
		fileStage(d, "bibtex", "Read records from a BibTeX file", readBibTeX),
		fileStage(d, "yaml", "Read records from a YAML file", readYAML),
		fileStage(d, "json", "Read records from a JSON file", readJSON),
		libStage(d),
		citationsStage(d),
	}
}

func crossrefStage(d *Deps) *pipeline.Stage {
	return &pipeline.Stage{
		Name:    "crossref",
		Role:    pipeline.Producer,
		Summary: "Look up works on crossref.org",
		Flags: func(fs *pflag.FlagSet) {
			fs.StringP("query", "q", "", "Free-text query")
			fs.StringP("author", "a", "", "Author query")
			fs.StringP("title", "t", "", "Title query")
			fs.String("doi", "", "Comma-separated DOIs to resolve")
			fs.IntP("max", "m", crossref.DefaultSearchLimit, "Maximum number of results")
		},
		Run: func(ctx context.Context, docs []*document.Document, fs *pflag.FlagSet) ([]*document.Document, error) {
			query, _ := fs.GetString("query")
			author, _ := fs.GetString("author")
			title, _ := fs.GetString("title")
			dois, _ := fs.GetString("doi")
			max, _ := fs.GetInt("max")

			var raws []map[string]any
			if dois != "" {
				// Resolve DOIs one by one so a single bad identifier
				// degrades to a missing record, not a failed stage.
				for _, doi := range strings.Split(dois, ",") {
					doi = strings.TrimSpace(doi)
					if doi == "" {
						continue
					}
					raw, err := d.Crossref.WorkByDOI(ctx, doi)
					if err != nil {
						d.Log.Warn("doi lookup failed", "stage", "crossref", "doi", doi, "error", err)
						continue
					}
					raws = append(raws, raw)
				}
			} else {
				var err error
				raws, err = d.Crossref.Works(ctx, crossref.Query{
					Query: query, Author: author, Title: title, Limit: max,
				})
				if err != nil {
					return nil, err
				}
			}

			found := d.normalizeAll("crossref", crossref.Table(), raws)
			d.Log.Info("documents found", "stage", "crossref", "count", len(found))
			return append(docs, found...), nil
		},
	}
}

func arxivStage(d *Deps) *pipeline.Stage {
	return &pipeline.Stage{
		Name:    "arxiv",
		Role:    pipeline.Producer,
		Summary: "Look up preprints on arXiv.org",
		Flags: func(fs *pflag.FlagSet) {
			fs.StringP("query", "q", "", "Free-text query")
			fs.StringP("author", "a", "", "Author query")
			fs.StringP("title", "t", "", "Title query")
			fs.String("abstract", "", "Abstract query")
			fs.String("category", "", "arXiv category, e.g. cond-mat.str-el")
			fs.String("id-list", "", "Comma-separated arXiv identifiers")
			fs.IntP("max", "m", arxiv.DefaultSearchLimit, "Maximum number of results")
		},
		Run: func(ctx context.Context, docs []*document.Document, fs *pflag.FlagSet) ([]*document.Document, error) {
			query, _ := fs.GetString("query")
			author, _ := fs.GetString("author")
			title, _ := fs.GetString("title")
			abstract, _ := fs.GetString("abstract")
			category, _ := fs.GetString("category")
			idList, _ := fs.GetString("id-list")
			max, _ := fs.GetInt("max")

			raws, err := d.Arxiv.Search(ctx, arxiv.Query{
				Query: query, Author: author, Title: title,
				Abstract: abstract, Category: category, IDList: idList, Limit: max,
			})
			if err != nil {
				return nil, err
			}

			found := d.normalizeAll("arxiv", arxiv.Table(), raws)
			d.Log.Info("documents found", "stage", "arxiv", "count", len(found))
			return append(docs, found...), nil
		},
	}
}

func isbnStage(d *Deps) *pipeline.Stage {
	return &pipeline.Stage{
		Name:    "isbn",
		Role:    pipeline.Producer,
		Summary: "Look up books on Open Library",
		Flags: func(fs *pflag.FlagSet) {
			fs.StringP("query", "q", "", "Free-text query")
			fs.StringP("author", "a", "", "Author query")
			fs.StringP("title", "t", "", "Title query")
			fs.StringP("isbn", "i", "", "ISBN to look up")
			fs.IntP("max", "m", isbn.DefaultSearchLimit, "Maximum number of results")
		},
		Run: func(ctx context.Context, docs []*document.Document, fs *pflag.FlagSet) ([]*document.Document, error) {
			query, _ := fs.GetString("query")
			author, _ := fs.GetString("author")
			title, _ := fs.GetString("title")
			number, _ := fs.GetString("isbn")
			max, _ := fs.GetInt("max")

			raws, err := d.ISBN.Search(ctx, isbn.Query{
				Query: query, Author: author, Title: title, ISBN: number, Limit: max,
			})
			if err != nil {
				return nil, err
			}

			found := d.normalizeAll("isbn", isbn.Table(), raws)
			d.Log.Info("documents found", "stage", "isbn", "count", len(found))
			return append(docs, found...), nil
		},
	}
}

func libgenStage(d *Deps) *pipeline.Stage {
	return &pipeline.Stage{
		Name:    "libgen",
		Role:    pipeline.Producer,
		Summary: "Look up books on Library Genesis",
		Flags: func(fs *pflag.FlagSet) {
			fs.StringP("author", "a", "", "Author query")
			fs.StringP("title", "t", "", "Title query")
			fs.StringP("isbn", "i", "", "ISBN query")
		},
		Run: func(ctx context.Context, docs []*document.Document, fs *pflag.FlagSet) ([]*document.Document, error) {
			author, _ := fs.GetString("author")
			title, _ := fs.GetString("title")
			number, _ := fs.GetString("isbn")

			var ids []string
			for _, q := range []struct{ term, column string }{
				{author, libgen.ColumnAuthor},
				{number, libgen.ColumnISBN},
				{title, libgen.ColumnTitle},
			} {
				if q.term == "" {
					continue
				}
				found, err := d.Libgen.Search(ctx, q.term, q.column)
				if err != nil {
					return nil, err
				}
				ids = append(ids, found...)
			}

			raws, err := d.Libgen.Lookup(ctx, ids)
			if err != nil {
				return nil, err
			}

			found := d.normalizeAll("libgen", libgen.Table(), raws)
			d.Log.Info("documents found", "stage", "libgen", "count", len(found))
			return append(docs, found...), nil
		},
	}
}

func urlStage(d *Deps) *pipeline.Stage {
	return &pipeline.Stage{
		Name:    "url",
		Role:    pipeline.Producer,
		Summary: "Scrape citation metadata from web pages",
		Run: func(ctx context.Context, docs []*document.Document, fs *pflag.FlagSet) ([]*document.Document, error) {
			if fs.NArg() == 0 {
				return nil, fmt.Errorf("url: at least one page URL is required")
			}

			var raws []map[string]any
			for _, pageURL := range fs.Args() {
				raw, err := webpage.Fetch(ctx, d.HTTP, pageURL)
				if err != nil {
					d.Log.Warn("page fetch failed", "stage", "url", "url", pageURL, "error", err)
					continue
				}
				raws = append(raws, raw)
			}

			found := d.normalizeAll("url", webpage.Table(), raws)
			d.Log.Info("documents found", "stage", "url", "count", len(found))
			return append(docs, found...), nil
		},
	}
}

func pdfStage(d *Deps) *pipeline.Stage {
	return &pipeline.Stage{
		Name:    "pdf",
		Role:    pipeline.Producer,
		Summary: "Resolve local PDF files through their DOI",
		Run: func(ctx context.Context, docs []*document.Document, fs *pflag.FlagSet) ([]*document.Document, error) {
			if fs.NArg() == 0 {
				return nil, fmt.Errorf("pdf: at least one file path is required")
			}

			var raws []map[string]any
			for _, path := range fs.Args() {
				doi, err := pdffile.ExtractDOI(path)
				if err != nil {
					d.Log.Warn("pdf scan failed", "stage", "pdf", "file", path, "error", err)
					continue
				}
				if doi == "" {
					d.Log.Warn("no doi found in pdf", "stage", "pdf", "file", path)
					continue
				}
				raw, err := d.Crossref.WorkByDOI(ctx, doi)
				if err != nil {
					d.Log.Warn("doi lookup failed", "stage", "pdf", "doi", doi, "error", err)
					continue
				}
				raw["file"] = path
				raws = append(raws, raw)
			}

			found := d.normalizeAll("pdf", crossref.Table(), raws)
			d.Log.Info("documents found", "stage", "pdf", "count", len(found))
			return append(docs, found...), nil
		},
	}
}

// fileStage builds a producer reading already-canonical records from a
// local file.
func fileStage(d *Deps, name, summary string, read func([]byte) ([]map[string]any, []error)) *pipeline.Stage {
	return &pipeline.Stage{
		Name:    name,
		Role:    pipeline.Producer,
		Summary: summary,
		Run: func(ctx context.Context, docs []*document.Document, fs *pflag.FlagSet) ([]*document.Document, error) {
			if fs.NArg() != 1 {
				return nil, fmt.Errorf("%s: exactly one file path is required", name)
			}
			path := fs.Arg(0)

			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}

			raws, readErrs := read(data)
			for _, re := range readErrs {
				d.Log.Warn("skipping malformed record", "stage", name, "file", path, "error", re)
			}

			found := d.completeAll(name, raws)
			d.Log.Info("documents found", "stage", name, "count", len(found))
			return append(docs, found...), nil
		},
	}
}

func readBibTeX(data []byte) ([]map[string]any, []error) {
	return export.ParseBibTeX(string(data))
}

func readYAML(data []byte) ([]map[string]any, []error) {
	raws, err := export.FromYAML(data)
	if err != nil {
		return nil, []error{err}
	}
	return raws, nil
}

func readJSON(data []byte) ([]map[string]any, []error) {
	raws, err := export.FromJSON(data)
	if err != nil {
		return nil, []error{err}
	}
	return raws, nil
}

func libStage(d *Deps) *pipeline.Stage {
	return &pipeline.Stage{
		Name:    "lib",
		Role:    pipeline.Producer,
		Summary: "Query the local document library",
		Run: func(ctx context.Context, docs []*document.Document, fs *pflag.FlagSet) ([]*document.Document, error) {
			query := "."
			if fs.NArg() > 0 {
				query = strings.Join(fs.Args(), " ")
			}

			db, err := d.OpenLibrary()
			if err != nil {
				return nil, err
			}
			defer db.Close()

			found, err := db.Query(query)
			if err != nil {
				return nil, err
			}

			d.Log.Info("documents found", "stage", "lib", "count", len(found))
			return append(docs, found...), nil
		},
	}
}

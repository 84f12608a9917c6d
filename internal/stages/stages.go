// Package stages registers the built-in pipeline stages: the producer
// adapters that pull records from external sources, the transformers that
// narrow the accumulated set, and the consumers that export or act on it.
package stages

import (
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/jherman/bibflow/internal/config"
	"github.com/jherman/bibflow/internal/document"
	"github.com/jherman/bibflow/internal/library"
	"github.com/jherman/bibflow/internal/normalize"
	"github.com/jherman/bibflow/internal/pipeline"
	"github.com/jherman/bibflow/internal/schema"
	"github.com/jherman/bibflow/internal/source/arxiv"
	"github.com/jherman/bibflow/internal/source/crossref"
	"github.com/jherman/bibflow/internal/source/isbn"
	"github.com/jherman/bibflow/internal/source/libgen"
)

// Deps carries the collaborators the stages run against. Tests substitute
// clients pointed at local servers and in-memory readers/writers.
type Deps struct {
	Config   *config.Config
	Crossref *crossref.Client
	Arxiv    *arxiv.Client
	ISBN     *isbn.Client
	Libgen   *libgen.Client
	// HTTP is used for plain page fetches (the url stage).
	HTTP *http.Client
	// OpenLibrary opens the local document library on first use.
	OpenLibrary func() (*library.DB, error)
	In          io.Reader
	Out         io.Writer
	Log         *slog.Logger
}

// defaults fills unset collaborators with production ones.
func (d *Deps) defaults() {
	if d.Config == nil {
		d.Config = config.Default()
	}
	if d.Crossref == nil {
		d.Crossref = crossref.NewClient(crossref.WithMailto(d.Config.CrossrefMailto))
	}
	if d.Arxiv == nil {
		d.Arxiv = arxiv.NewClient()
	}
	if d.ISBN == nil {
		d.ISBN = isbn.NewClient()
	}
	if d.Libgen == nil {
		d.Libgen = libgen.NewClient()
	}
	if d.HTTP == nil {
		d.HTTP = http.DefaultClient
	}
	if d.OpenLibrary == nil {
		path := d.Config.LibraryPath()
		d.OpenLibrary = func() (*library.DB, error) { return library.Open(path) }
	}
	if d.In == nil {
		d.In = os.Stdin
	}
	if d.Out == nil {
		d.Out = os.Stdout
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
}

// NewRegistry builds the stage registry with all built-in stages.
func NewRegistry(deps Deps) *pipeline.Registry {
	deps.defaults()

	reg := pipeline.NewRegistry()
	for _, s := range producerStages(&deps) {
		reg.Register(s)
	}
	for _, s := range transformerStages(&deps) {
		reg.Register(s)
	}
	for _, s := range consumerStages(&deps) {
		reg.Register(s)
	}
	return reg
}

// normalizeOptions derives formatting options from the configuration.
func (d *Deps) normalizeOptions() normalize.Options {
	return normalize.Options{
		AuthorSeparator: d.Config.AuthorSeparator,
		AuthorFormat:    d.Config.AuthorFormat,
		RefFormat:       d.Config.RefFormat,
	}
}

// normalizeAll converts raw source records through a conversion table,
// isolating per-record and per-field failures: a record that cannot be
// normalized contributes nothing, a field that cannot be converted is
// dropped, and everything else goes through.
func (d *Deps) normalizeAll(stage string, table schema.Table, raws []map[string]any) []*document.Document {
	n := normalize.New(table, d.normalizeOptions())

	docs := make([]*document.Document, 0, len(raws))
	for _, raw := range raws {
		doc, fieldErrs, err := n.Normalize(raw)
		if err != nil {
			d.Log.Warn("skipping unusable record", "stage", stage, "error", err)
			continue
		}
		for _, fe := range fieldErrs {
			d.Log.Warn("dropping field", "stage", stage, "field", fe.TargetKey, "error", fe.Err)
		}
		docs = append(docs, doc)
	}
	return docs
}

// completeAll turns already-canonical raw records (from local files) into
// documents, deriving author/ref when missing.
func (d *Deps) completeAll(stage string, raws []map[string]any) []*document.Document {
	n := normalize.New(schema.NewTable(nil), d.normalizeOptions())

	docs := make([]*document.Document, 0, len(raws))
	for _, raw := range raws {
		if len(raw) == 0 {
			d.Log.Warn("skipping empty record", "stage", stage)
			continue
		}
		doc := document.FromMap(raw)
		n.Complete(doc)
		docs = append(docs, doc)
	}
	return docs
}

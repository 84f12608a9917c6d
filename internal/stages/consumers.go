package stages

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/pflag"

	"github.com/jherman/bibflow/internal/document"
	"github.com/jherman/bibflow/internal/export"
	"github.com/jherman/bibflow/internal/format"
	"github.com/jherman/bibflow/internal/pipeline"
)

func consumerStages(d *Deps) []*pipeline.Stage {
	return []*pipeline.Stage{
		exportStage(d),
		saveStage(d),
		cmdStage(d),
	}
}

func exportStage(d *Deps) *pipeline.Stage {
	return &pipeline.Stage{
		Name:    "export",
		Role:    pipeline.Consumer,
		Summary: "Export the accumulated documents (bibtex, yaml, json)",
		Flags: func(fs *pflag.FlagSet) {
			fs.StringP("format", "f", export.FormatBibTeX, "Output format")
			fs.StringP("out", "o", "", "Append output to a file instead of stdout")
		},
		Run: func(ctx context.Context, docs []*document.Document, fs *pflag.FlagSet) ([]*document.Document, error) {
			formatName, _ := fs.GetString("format")
			out, _ := fs.GetString("out")

			rendered, err := export.Render(docs, formatName)
			if err != nil {
				return nil, err
			}

			if out == "" {
				fmt.Fprint(d.Out, rendered)
				return docs, nil
			}

			f, err := os.OpenFile(out, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
			if err != nil {
				return nil, fmt.Errorf("export: %w", err)
			}
			defer f.Close()

			if _, err := f.WriteString(rendered); err != nil {
				return nil, fmt.Errorf("export: writing %s: %w", out, err)
			}
			d.Log.Info("documents exported", "stage", "export", "format", formatName, "file", out, "count", len(docs))
			return docs, nil
		},
	}
}

func saveStage(d *Deps) *pipeline.Stage {
	return &pipeline.Stage{
		Name:    "save",
		Role:    pipeline.Consumer,
		Summary: "Save the accumulated documents to the local library",
		Run: func(ctx context.Context, docs []*document.Document, fs *pflag.FlagSet) ([]*document.Document, error) {
			if len(docs) == 0 {
				return docs, nil
			}

			db, err := d.OpenLibrary()
			if err != nil {
				return nil, err
			}
			defer db.Close()

			if err := db.SaveAll(docs); err != nil {
				return nil, err
			}
			d.Log.Info("documents saved", "stage", "save", "count", len(docs))
			return docs, nil
		},
	}
}

func cmdStage(d *Deps) *pipeline.Stage {
	return &pipeline.Stage{
		Name:    "cmd",
		Role:    pipeline.Consumer,
		Summary: "Run a templated shell command for each document",
		Run: func(ctx context.Context, docs []*document.Document, fs *pflag.FlagSet) ([]*document.Document, error) {
			if fs.NArg() != 1 {
				return nil, fmt.Errorf("cmd: exactly one command template is required")
			}
			template := fs.Arg(0)

			for _, doc := range docs {
				expanded := format.Doc(template, doc)
				fields := strings.Fields(expanded)
				if len(fields) == 0 {
					continue
				}

				d.Log.Info("running command", "stage", "cmd", "command", expanded)
				cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
				cmd.Stdout = d.Out
				cmd.Stderr = os.Stderr
				if err := cmd.Run(); err != nil {
					return nil, fmt.Errorf("cmd: running %q: %w", expanded, err)
				}
			}
			return docs, nil
		},
	}
}

package pipeline

import (
	"context"
	"log/slog"

	"github.com/jherman/bibflow/internal/document"
)

// Engine executes a parsed chain of stage invocations against one shared
// document accumulator.
type Engine struct {
	log *slog.Logger
}

// NewEngine creates an engine logging through the given logger (nil uses
// slog.Default).
func NewEngine(log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{log: log}
}

// Run executes the invocations strictly in declaration order, starting from
// an empty accumulator, and returns the final accumulator.
//
// Failure policy: a producer error is logged and contributes zero records
// (the pipeline continues); a transformer or consumer error aborts the
// remaining stages and is surfaced as a StageError carrying the stage
// index. Consumer return values are discarded so the accumulator always
// passes through them unchanged.
func (e *Engine) Run(ctx context.Context, invs []*Invocation) ([]*document.Document, error) {
	docs := []*document.Document{}

	for i, inv := range invs {
		if err := ctx.Err(); err != nil {
			return docs, &StageError{Index: i, Stage: inv.Stage.Name, Err: err}
		}

		result, err := inv.Stage.Run(ctx, docs, inv.Flags)

		switch inv.Stage.Role {
		case Producer:
			if err != nil {
				e.log.Warn("source failed, contributing zero records",
					"stage", inv.Stage.Name, "index", i+1, "error", err)
				continue
			}
			docs = result
			e.log.Debug("producer finished", "stage", inv.Stage.Name, "documents", len(docs))
		case Transformer:
			if err != nil {
				return docs, &StageError{Index: i, Stage: inv.Stage.Name, Err: err}
			}
			docs = result
			if docs == nil {
				docs = []*document.Document{}
			}
			e.log.Debug("transformer finished", "stage", inv.Stage.Name, "documents", len(docs))
		case Consumer:
			if err != nil {
				return docs, &StageError{Index: i, Stage: inv.Stage.Name, Err: err}
			}
			e.log.Debug("consumer finished", "stage", inv.Stage.Name, "documents", len(docs))
		}
	}

	return docs, nil
}

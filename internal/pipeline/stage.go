// Package pipeline chains independently-implemented source, transformer,
// and consumer stages into one ordered command sharing a single document
// accumulator.
package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/pflag"

	"github.com/jherman/bibflow/internal/document"
)

// Role classifies what a stage does to the accumulator.
type Role int

const (
	// Producer stages append new records fetched from an external source.
	Producer Role = iota
	// Transformer stages filter/reduce/map the accumulated records.
	Transformer
	// Consumer stages export or act on the records without altering them.
	Consumer
)

func (r Role) String() string {
	switch r {
	case Producer:
		return "producer"
	case Transformer:
		return "transformer"
	case Consumer:
		return "consumer"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// RunFunc is a stage's behavior: it receives the current accumulator and
// its resolved options and returns the next accumulator. Producers return
// the input with their records appended; transformers return a replacement;
// consumer return values are ignored by the engine.
type RunFunc func(ctx context.Context, docs []*document.Document, flags *pflag.FlagSet) ([]*document.Document, error)

// Stage describes one registered pipeline stage. Immutable after
// registration.
type Stage struct {
	Name    string
	Role    Role
	Summary string
	// Flags declares the stage's options on a fresh flag set. May be nil
	// for stages without options.
	Flags func(fs *pflag.FlagSet)
	Run   RunFunc
}

// newFlagSet builds the stage's flag set. Chained stages parse their own
// argument segment, so errors are returned rather than exiting.
func (s *Stage) newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(s.Name, pflag.ContinueOnError)
	if s.Flags != nil {
		s.Flags(fs)
	}
	return fs
}

// Registry resolves stage names to descriptors.
type Registry struct {
	stages map[string]*Stage
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{stages: make(map[string]*Stage)}
}

// Register adds a stage. Registering a duplicate or invalid descriptor is
// a programming error and panics at startup.
func (r *Registry) Register(s *Stage) {
	if s.Name == "" || s.Run == nil {
		panic("pipeline: stage must have a name and a run function")
	}
	if _, ok := r.stages[s.Name]; ok {
		panic(fmt.Sprintf("pipeline: stage %q registered twice", s.Name))
	}
	r.stages[s.Name] = s
}

// Lookup returns a stage by name.
func (r *Registry) Lookup(name string) (*Stage, bool) {
	s, ok := r.stages[name]
	return s, ok
}

// Names returns registered stage names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.stages))
	for name := range r.stages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stages returns all descriptors sorted by name.
func (r *Registry) Stages() []*Stage {
	out := make([]*Stage, 0, len(r.stages))
	for _, name := range r.Names() {
		out = append(out, r.stages[name])
	}
	return out
}

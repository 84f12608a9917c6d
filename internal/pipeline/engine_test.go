package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/pflag"

	"github.com/jherman/bibflow/internal/document"
)

func makeDoc(title string) *document.Document {
	d := document.New()
	d.Set(document.KeyTitle, title)
	return d
}

func producerOf(docs ...*document.Document) *Stage {
	return &Stage{
		Name: "src",
		Role: Producer,
		Run: func(ctx context.Context, acc []*document.Document, flags *pflag.FlagSet) ([]*document.Document, error) {
			return append(acc, docs...), nil
		},
	}
}

func invoke(s *Stage) *Invocation {
	return &Invocation{Stage: s, Flags: s.newFlagSet()}
}

func TestRunAccumulates(t *testing.T) {
	a := producerOf(makeDoc("one"), makeDoc("two"))
	b := &Stage{
		Name: "src2",
		Role: Producer,
		Run: func(ctx context.Context, acc []*document.Document, flags *pflag.FlagSet) ([]*document.Document, error) {
			return append(acc, makeDoc("three")), nil
		},
	}

	docs, err := NewEngine(nil).Run(context.Background(), []*Invocation{invoke(a), invoke(b)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("got %d documents, want 3", len(docs))
	}
	want := []string{"one", "two", "three"}
	for i, w := range want {
		if docs[i].String(document.KeyTitle) != w {
			t.Errorf("docs[%d] = %q, want %q", i, docs[i].String(document.KeyTitle), w)
		}
	}
}

func TestRunProducerFailureContinues(t *testing.T) {
	failing := &Stage{
		Name: "broken",
		Role: Producer,
		Run: func(ctx context.Context, acc []*document.Document, flags *pflag.FlagSet) ([]*document.Document, error) {
			return nil, errors.New("network down")
		},
	}
	good := producerOf(makeDoc("survivor"))

	var exported []*document.Document
	consumer := &Stage{
		Name: "sink",
		Role: Consumer,
		Run: func(ctx context.Context, acc []*document.Document, flags *pflag.FlagSet) ([]*document.Document, error) {
			exported = acc
			return nil, nil
		},
	}

	docs, err := NewEngine(nil).Run(context.Background(), []*Invocation{
		invoke(failing), invoke(good), invoke(consumer),
	})
	if err != nil {
		t.Fatalf("producer failure must not abort the pipeline: %v", err)
	}
	if len(docs) != 1 || docs[0].String(document.KeyTitle) != "survivor" {
		t.Errorf("accumulator = %v", docs)
	}
	if len(exported) != 1 {
		t.Errorf("consumer saw %d documents, want 1", len(exported))
	}
}

func TestRunTransformerFailureAborts(t *testing.T) {
	boom := errors.New("bad filter")
	transformer := &Stage{
		Name: "filter",
		Role: Transformer,
		Run: func(ctx context.Context, acc []*document.Document, flags *pflag.FlagSet) ([]*document.Document, error) {
			return nil, boom
		},
	}
	ran := false
	after := &Stage{
		Name: "sink",
		Role: Consumer,
		Run: func(ctx context.Context, acc []*document.Document, flags *pflag.FlagSet) ([]*document.Document, error) {
			ran = true
			return nil, nil
		},
	}

	_, err := NewEngine(nil).Run(context.Background(), []*Invocation{
		invoke(producerOf(makeDoc("d"))), invoke(transformer), invoke(after),
	})

	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StageError", err)
	}
	if se.Index != 1 || se.Stage != "filter" {
		t.Errorf("StageError = %+v, want index 1, stage filter", se)
	}
	if !errors.Is(err, boom) {
		t.Error("StageError should unwrap to the stage's error")
	}
	if ran {
		t.Error("stages after a failed transformer must not run")
	}
}

func TestRunConsumerResultDiscarded(t *testing.T) {
	sneaky := &Stage{
		Name: "sneaky",
		Role: Consumer,
		Run: func(ctx context.Context, acc []*document.Document, flags *pflag.FlagSet) ([]*document.Document, error) {
			return []*document.Document{makeDoc("injected")}, nil
		},
	}

	docs, err := NewEngine(nil).Run(context.Background(), []*Invocation{
		invoke(producerOf(makeDoc("kept"))), invoke(sneaky),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(docs) != 1 || docs[0].String(document.KeyTitle) != "kept" {
		t.Errorf("consumer altered the accumulator: %v", docs)
	}
}

func TestRunNilTransformerResultBecomesEmpty(t *testing.T) {
	dropAll := &Stage{
		Name: "drop",
		Role: Transformer,
		Run: func(ctx context.Context, acc []*document.Document, flags *pflag.FlagSet) ([]*document.Document, error) {
			return nil, nil
		},
	}

	docs, err := NewEngine(nil).Run(context.Background(), []*Invocation{
		invoke(producerOf(makeDoc("d"))), invoke(dropAll),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if docs == nil || len(docs) != 0 {
		t.Errorf("docs = %v, want empty non-nil slice", docs)
	}
}

func TestRunEmptyAccumulatorFlowsThrough(t *testing.T) {
	var transformerSaw, consumerSaw int
	transformer := &Stage{
		Name: "t",
		Role: Transformer,
		Run: func(ctx context.Context, acc []*document.Document, flags *pflag.FlagSet) ([]*document.Document, error) {
			transformerSaw = len(acc)
			return acc, nil
		},
	}
	consumer := &Stage{
		Name: "c",
		Role: Consumer,
		Run: func(ctx context.Context, acc []*document.Document, flags *pflag.FlagSet) ([]*document.Document, error) {
			consumerSaw = len(acc)
			return nil, nil
		},
	}

	docs, err := NewEngine(nil).Run(context.Background(), []*Invocation{
		invoke(transformer), invoke(consumer),
	})
	if err != nil {
		t.Fatalf("empty accumulator must not be an error: %v", err)
	}
	if len(docs) != 0 || transformerSaw != 0 || consumerSaw != 0 {
		t.Errorf("docs=%d transformer=%d consumer=%d, want all 0", len(docs), transformerSaw, consumerSaw)
	}
}

func TestRunContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(nil).Run(ctx, []*Invocation{invoke(producerOf(makeDoc("d")))})
	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StageError", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRunNoInvocations(t *testing.T) {
	docs, err := NewEngine(nil).Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("docs = %v, want empty", docs)
	}
}

package batch

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/karupanerura/calculator/internal/expression"
	"github.com/karupanerura/calculator/internal/types"
	"golang.org/x/sync/errgroup"
)

type Batch struct {
	Options Options
	Entries []*Entry
}

type Entry struct {
	Name string
	// Source is the display text. Entries given as tokens carry the rendered tokens here.
	Source string
	// Tokens is nil when the entry is tokenized from Source.
	Tokens []expression.Token
}

type Outcome struct {
	Name   string             `json:"name"`
	Input  string             `json:"input"`
	Result *expression.Result `json:"result,omitempty"`
	Error  any                `json:"error,omitempty"`
}

func (o *Outcome) Failed() bool {
	return o.Error != nil
}

// Run evaluates every entry and returns outcomes in entry order. Entry
// failures are recorded on their outcome; only cancellation fails the run.
func (b *Batch) Run(ctx context.Context) ([]*Outcome, error) {
	ev := &expression.Evaluator{Debug: b.Options.Debug}
	outcomes := make([]*Outcome, len(b.Entries))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(b.Options.Parallelism)
	for i, entry := range b.Entries {
		i := i
		entry := entry
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			outcomes[i] = entry.evaluate(ev)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return outcomes, nil
}

func (e *Entry) evaluate(ev *expression.Evaluator) *Outcome {
	o := &Outcome{Name: e.Name, Input: e.Source}

	var (
		ret *expression.Result
		err error
	)
	if e.Tokens == nil {
		ret, err = ev.EvaluateString(e.Source)
	} else {
		ret, err = ev.Evaluate(e.Tokens)
	}
	if err != nil {
		if ev.Debug {
			log.Printf("%s: %v", e.Name, err)
		}
		o.Error = renderError(err)
		return o
	}

	o.Result = ret
	return o
}

func renderError(err error) any {
	var exception types.Exception
	if errors.As(err, &exception) {
		return exception.Exception()
	}
	return fmt.Sprint(err)
}

package batch

import (
	"fmt"
	"runtime"

	"github.com/karupanerura/calculator/internal/expression"
	"github.com/karupanerura/calculator/internal/types"
	"github.com/mitchellh/mapstructure"
)

type batchDef struct {
	Options     map[string]any `json:"options"`
	Expressions []*entryDef    `json:"expressions"`
}

type entryDef struct {
	Name   string             `json:"name"`
	Source *string            `json:"source"`
	Tokens []expression.Token `json:"tokens"`
}

type Options struct {
	Parallelism int  `mapstructure:"parallelism"`
	Debug       bool `mapstructure:"debug"`
}

func (d *batchDef) compile() (*Batch, error) {
	if len(d.Expressions) == 0 {
		return nil, &types.Error{
			Tag: types.ValueErrorTag,
			Err: fmt.Errorf("empty expressions"),
		}
	}

	opts, err := decodeOptions(d.Options)
	if err != nil {
		return nil, fmt.Errorf("options: %w", err)
	}

	b := &Batch{
		Options: opts,
		Entries: make([]*Entry, len(d.Expressions)),
	}
	names := make(map[string]bool, len(d.Expressions))
	for i, def := range d.Expressions {
		entry, err := def.compile(i)
		if err != nil {
			return nil, fmt.Errorf("expressions[%d]: %w", i, err)
		}
		if names[entry.Name] {
			return nil, &types.Error{
				Tag: types.ValueErrorTag,
				Err: fmt.Errorf("expressions[%d]: %s: duplicated name", i, entry.Name),
			}
		}
		names[entry.Name] = true
		b.Entries[i] = entry
	}

	return b, nil
}

func (d *entryDef) compile(i int) (*Entry, error) {
	if d == nil {
		return nil, &types.Error{
			Tag: types.ValueErrorTag,
			Err: fmt.Errorf("null entry"),
		}
	}

	hasSource, hasTokens := d.Source != nil, d.Tokens != nil
	if hasSource == hasTokens {
		return nil, &types.Error{
			Tag: types.ValueErrorTag,
			Err: fmt.Errorf("exactly one of source or tokens is required"),
		}
	}

	entry := &Entry{Name: d.Name}
	if entry.Name == "" {
		entry.Name = fmt.Sprintf("expressions[%d]", i)
	}

	if hasSource {
		entry.Source = *d.Source
	} else {
		entry.Source = expression.RenderTokens(d.Tokens)
		entry.Tokens = d.Tokens
	}
	return entry, nil
}

func decodeOptions(raw map[string]any) (Options, error) {
	opts := Options{Parallelism: runtime.NumCPU()}
	if raw == nil {
		return opts, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &opts,
	})
	if err != nil {
		return opts, err
	}
	if err := decoder.Decode(raw); err != nil {
		return opts, &types.Error{
			Tag: types.ValueErrorTag,
			Err: err,
		}
	}

	if opts.Parallelism < 1 {
		return opts, &types.Error{
			Tag: types.ValueErrorTag,
			Err: fmt.Errorf("parallelism must be positive but got %d", opts.Parallelism),
		}
	}
	return opts, nil
}

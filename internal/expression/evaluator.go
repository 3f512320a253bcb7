package expression

import (
	"fmt"
	"log"
	"math"

	"github.com/goccy/go-json"
)

type Result struct {
	Value    float64
	Tree     string
	Consumed int
	// Ignored holds trailing tokens that the grammar did not consume.
	Ignored []Token
}

func (r *Result) Display() string {
	return FormatNumber(r.Value)
}

type resultJSON struct {
	Value    any     `json:"value"`
	Display  string  `json:"display"`
	Tree     string  `json:"tree,omitempty"`
	Consumed int     `json:"consumed"`
	Ignored  []Token `json:"ignored,omitempty"`
}

// MarshalJSON encodes non-finite values by their display text since JSON has
// no literal for them.
func (r *Result) MarshalJSON() ([]byte, error) {
	var value any = r.Value
	if math.IsInf(r.Value, 0) || math.IsNaN(r.Value) {
		value = FormatNumber(r.Value)
	}
	return json.Marshal(resultJSON{
		Value:    value,
		Display:  r.Display(),
		Tree:     r.Tree,
		Consumed: r.Consumed,
		Ignored:  r.Ignored,
	})
}

type Evaluator struct {
	Debug bool
}

func (e *Evaluator) newParser(tokens []Token) *Parser {
	if e.Debug {
		return NewParserWithDebugOutput(tokens)
	}
	return NewParser(tokens)
}

// Evaluate parses tokens and reduces the tree to a number.
func (e *Evaluator) Evaluate(tokens []Token) (*Result, error) {
	p := e.newParser(tokens)
	expr, err := p.Parse()
	if err != nil {
		return nil, err
	}

	v, err := expr.Evaluate()
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", expr.String(), err)
	}

	result := &Result{
		Value:    v,
		Tree:     expr.String(),
		Consumed: p.Pos(),
	}
	if rest := p.Remaining(); len(rest) != 0 {
		result.Ignored = append([]Token(nil), rest...)
		if e.Debug {
			log.Printf("ignored %d trailing tokens: %s", len(rest), RenderTokens(rest))
		}
	}
	return result, nil
}

func (e *Evaluator) EvaluateString(source string) (*Result, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}
	return e.Evaluate(tokens)
}

package expression

import (
	"fmt"
	"math"

	"github.com/karupanerura/calculator/internal/types"
)

type Operator int

const (
	UnknownOperator Operator = iota
	AddOperator
	SubtractOperator
	MultiplyOperator
	DivideOperator
	ModuloOperator
	PowerOperator
)

var binaryOperatorMap = map[TokenKind]Operator{
	PlusToken:     AddOperator,
	MinusToken:    SubtractOperator,
	MultiplyToken: MultiplyOperator,
	DivideToken:   DivideOperator,
	ModuloToken:   ModuloOperator,
	PowerToken:    PowerOperator,
}

func (o Operator) String() string {
	switch o {
	case AddOperator:
		return "+"
	case SubtractOperator:
		return "-"
	case MultiplyOperator:
		return "*"
	case DivideOperator:
		return "/"
	case ModuloOperator:
		return "%"
	case PowerOperator:
		return "^"
	default:
		return fmt.Sprintf("Operator(%d)", int(o))
	}
}

// apply follows IEEE-754: division by zero yields an infinity or NaN and
// the remainder takes the sign of the dividend.
func (o Operator) apply(left, right float64) (float64, error) {
	switch o {
	case AddOperator:
		return left + right, nil
	case SubtractOperator:
		return left - right, nil
	case MultiplyOperator:
		return left * right, nil
	case DivideOperator:
		return left / right, nil
	case ModuloOperator:
		return math.Mod(left, right), nil
	case PowerOperator:
		return math.Pow(left, right), nil
	default:
		return 0, &types.Error{
			Tag: types.UnknownOperatorErrorTag,
			Err: fmt.Errorf("unknown binary operator %s", o),
		}
	}
}

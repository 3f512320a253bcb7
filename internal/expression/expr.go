package expression

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Expr is a node of the expression tree. The set of implementations is closed:
// NumberExpr, BinaryExpr, GroupingExpr and NegationExpr.
type Expr interface {
	Evaluate() (float64, error)
	String() string

	expr()
}

var (
	_ Expr = (*NumberExpr)(nil)
	_ Expr = (*BinaryExpr)(nil)
	_ Expr = (*GroupingExpr)(nil)
	_ Expr = (*NegationExpr)(nil)
)

type NumberExpr struct {
	Value float64
}

type BinaryExpr struct {
	Left     Expr
	Operator Operator
	Right    Expr
}

// GroupingExpr is a parenthesized sub-expression.
type GroupingExpr struct {
	Inner Expr
}

// NegationExpr is unary minus.
type NegationExpr struct {
	Inner Expr
}

func (*NumberExpr) expr()   {}
func (*BinaryExpr) expr()   {}
func (*GroupingExpr) expr() {}
func (*NegationExpr) expr() {}

func (e *NumberExpr) Evaluate() (float64, error) {
	return e.Value, nil
}

func (e *BinaryExpr) Evaluate() (float64, error) {
	left, err := e.Left.Evaluate()
	if err != nil {
		return 0, fmt.Errorf("left of operator %q: %w", e.Operator, err)
	}

	right, err := e.Right.Evaluate()
	if err != nil {
		return 0, fmt.Errorf("right of operator %q: %w", e.Operator, err)
	}

	return e.Operator.apply(left, right)
}

func (e *GroupingExpr) Evaluate() (float64, error) {
	return e.Inner.Evaluate()
}

func (e *NegationExpr) Evaluate() (float64, error) {
	v, err := e.Inner.Evaluate()
	if err != nil {
		return 0, fmt.Errorf("value of unary operator %q: %w", "-", err)
	}
	return -v, nil
}

func (e *NumberExpr) String() string {
	return FormatNumber(e.Value)
}

func (e *BinaryExpr) String() string {
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(e.Left.String())
	b.WriteByte(' ')
	b.WriteString(e.Operator.String())
	b.WriteByte(' ')
	b.WriteString(e.Right.String())
	b.WriteByte(')')
	return b.String()
}

func (e *GroupingExpr) String() string {
	return "( " + e.Inner.String() + " )"
}

func (e *NegationExpr) String() string {
	return "- ( " + e.Inner.String() + " )"
}

// FormatNumber renders v the way the calculator display shows results.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}

	if v == 0 {
		return "0" // includes negative zero
	}
	if abs := math.Abs(v); 1e-6 <= abs && abs < 1e21 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return exponentPaddingReplacer.Replace(strconv.FormatFloat(v, 'g', -1, 64))
}

// strconv pads exponents to two digits ("1e-08"), displays do not.
var exponentPaddingReplacer = strings.NewReplacer("e-0", "e-", "e+0", "e+")

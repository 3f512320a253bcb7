package expression_test

import (
	"errors"
	"math"
	"testing"

	"github.com/karupanerura/calculator/internal/expression"
	"github.com/karupanerura/calculator/internal/types"
)

func TestExprString(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		expr     expression.Expr
		expected string
	}{
		{
			expr:     &expression.NumberExpr{Value: 1.5},
			expected: "1.5",
		},
		{
			expr: &expression.BinaryExpr{
				Left:     &expression.NumberExpr{Value: 2},
				Operator: expression.AddOperator,
				Right:    &expression.NumberExpr{Value: 3},
			},
			expected: "(2 + 3)",
		},
		{
			expr: &expression.GroupingExpr{
				Inner: &expression.NumberExpr{Value: 4},
			},
			expected: "( 4 )",
		},
		{
			expr: &expression.NegationExpr{
				Inner: &expression.BinaryExpr{
					Left:     &expression.NumberExpr{Value: 2},
					Operator: expression.PowerOperator,
					Right:    &expression.NumberExpr{Value: 3},
				},
			},
			expected: "- ( (2 ^ 3) )",
		},
		{
			expr: &expression.BinaryExpr{
				Left:     &expression.NumberExpr{Value: 7},
				Operator: expression.ModuloOperator,
				Right: &expression.BinaryExpr{
					Left:     &expression.NumberExpr{Value: 1},
					Operator: expression.DivideOperator,
					Right:    &expression.NumberExpr{Value: 4},
				},
			},
			expected: "(7 % (1 / 4))",
		},
		{
			expr:     &expression.NumberExpr{Value: 1000000},
			expected: "1000000",
		},
		{
			expr:     &expression.NumberExpr{Value: 123456789},
			expected: "123456789",
		},
		{
			expr:     &expression.NumberExpr{Value: 0.00001},
			expected: "0.00001",
		},
		{
			expr: &expression.BinaryExpr{
				Left:     &expression.NumberExpr{Value: 1e21},
				Operator: expression.MultiplyOperator,
				Right:    &expression.NumberExpr{Value: 1e-7},
			},
			expected: "(1e+21 * 1e-7)",
		},
	} {
		tt := tt
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()

			if s := tt.expr.String(); s != tt.expected {
				t.Errorf("expect to %q but got %q", tt.expected, s)
			}
		})
	}
}

func TestExprEvaluateIdempotent(t *testing.T) {
	t.Parallel()

	expr, err := expression.ParseTokens([]expression.Token{lparen, num("4"), plus, num("5"), rparen, mul, num("2")})
	if err != nil {
		t.Fatal(err)
	}

	first, err := expr.Evaluate()
	if err != nil {
		t.Fatal(err)
	}
	second, err := expr.Evaluate()
	if err != nil {
		t.Fatal(err)
	}
	if first != 18 || first != second {
		t.Errorf("expect to 18 twice but got %v and %v", first, second)
	}
}

func TestUnknownOperator(t *testing.T) {
	t.Parallel()

	expr := &expression.NegationExpr{
		Inner: &expression.BinaryExpr{
			Left:     &expression.NumberExpr{Value: 1},
			Operator: expression.UnknownOperator,
			Right:    &expression.NumberExpr{Value: 2},
		},
	}

	_, err := expr.Evaluate()
	if !errors.Is(err, types.ErrUnknownOperator) {
		t.Fatalf("expect to unknown operator error but got %v", err)
	}
	t.Logf("expected evaluate error: %v", err)
}

func TestFormatNumber(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		value    float64
		expected string
	}{
		{value: 0, expected: "0"},
		{value: math.Copysign(0, -1), expected: "0"},
		{value: 5, expected: "5"},
		{value: -2.5, expected: "-2.5"},
		{value: 0.1 + 0.2, expected: "0.30000000000000004"},
		{value: 1e20, expected: "100000000000000000000"},
		{value: 1e21, expected: "1e+21"},
		{value: 1e-6, expected: "0.000001"},
		{value: 1e-7, expected: "1e-7"},
		{value: 1e-8, expected: "1e-8"},
		{value: 1.5e300, expected: "1.5e+300"},
		{value: math.Inf(1), expected: "Infinity"},
		{value: math.Inf(-1), expected: "-Infinity"},
		{value: math.NaN(), expected: "NaN"},
	} {
		tt := tt
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()

			if s := expression.FormatNumber(tt.value); s != tt.expected {
				t.Errorf("expect to %q but got %q", tt.expected, s)
			}
		})
	}
}

package expression

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/k0kubun/pp"
	"github.com/karupanerura/calculator/internal/types"
)

// MaxNestingDepth bounds how deeply groupings, negations and exponent chains
// may nest before Parse gives up with a RecursionError.
const MaxNestingDepth = 1000

var parserDebugLog = false

func init() {
	if v, err := strconv.ParseBool(os.Getenv("CALCULATOR_EXPRESSION_DEBUG")); v && err == nil {
		parserDebugLog = true
	}
}

// Parser is a recursive descent parser over a token sequence:
//
//	expression     := additive
//	additive       := multiplicative ( (PLUS|MINUS) multiplicative )?
//	multiplicative := power ( (MULTIPLY|DIVIDE|MODULO) power )?
//	power          := leaf ( POWER power )?
//	leaf           := MINUS expression | NUMBER | LEFT_PAREN expression RIGHT_PAREN
//
// Each tier applies at most one operator, so "1+2+3" parses as "1+2" and
// leaves "+3" unconsumed. The top level does not require every token to be
// consumed; Remaining reports what was left over.
//
// A Parser is meant for a single Parse call.
type Parser struct {
	tokens  []Token
	current int
	depth   int
	debug   bool
}

func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens, debug: parserDebugLog}
}

func NewParserWithDebugOutput(tokens []Token) *Parser {
	return &Parser{tokens: tokens, debug: true}
}

// ParseTokens parses tokens into an expression tree.
func ParseTokens(tokens []Token) (Expr, error) {
	return NewParser(tokens).Parse()
}

// ParseString tokenizes source and parses it.
func ParseString(source string) (Expr, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}
	return ParseTokens(tokens)
}

func (p *Parser) Parse() (Expr, error) {
	if p.debug {
		pp.Println(p.tokens)
	}

	expr, err := p.expression()
	if err != nil {
		if p.debug {
			log.Println("parse error: ", err)
		}
		return nil, err
	}

	if p.debug {
		pp.Println(expr)
		log.Println(expr.String())
		if rest := p.Remaining(); len(rest) != 0 {
			log.Println("not consumed tokens: ", RenderTokens(rest))
		}
	}
	return expr, nil
}

// Pos returns the number of tokens consumed so far.
func (p *Parser) Pos() int {
	return p.current
}

// Remaining returns the tokens after the cursor.
func (p *Parser) Remaining() []Token {
	return p.tokens[p.current:]
}

func (p *Parser) expression() (Expr, error) {
	return p.additive()
}

func (p *Parser) additive() (Expr, error) {
	return p.parseBinary(p.multiplicative, p.multiplicative, PlusToken, MinusToken)
}

func (p *Parser) multiplicative() (Expr, error) {
	return p.parseBinary(p.power, p.power, MultiplyToken, DivideToken, ModuloToken)
}

// every nested expression and every right operand of ^ passes through here
func (p *Parser) power() (Expr, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > MaxNestingDepth {
		return nil, &types.Error{
			Tag:   types.RecursionErrorTag,
			Err:   fmt.Errorf("nesting deeper than %d at %d", MaxNestingDepth, p.current+1),
			Extra: map[string]any{"pos": p.current + 1},
		}
	}
	return p.parseBinary(p.leaf, p.power, PowerToken)
}

func (p *Parser) parseBinary(operand, rightOperand func() (Expr, error), kinds ...TokenKind) (Expr, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}

	opTok, ok := p.match(kinds...)
	if !ok {
		return left, nil
	}
	if p.debug {
		log.Println("operator token: ", opTok, " left: ", left.String())
	}

	if p.isEnd() {
		return nil, types.NewSyntaxError(types.MissingOperandErrorTag, p.current+1,
			"missing right-hand side of %s at %d: got end of input", opTok.Kind, p.current+1)
	}
	if next := p.peek(); !next.Kind.startsLeaf() {
		return nil, types.NewSyntaxError(types.MissingOperandErrorTag, p.current+1,
			"missing right-hand side of %s at %d: got %s", opTok.Kind, p.current+1, next)
	}

	right, err := rightOperand()
	if err != nil {
		return nil, err
	}

	return &BinaryExpr{
		Left:     left,
		Operator: binaryOperatorMap[opTok.Kind],
		Right:    right,
	}, nil
}

func (p *Parser) leaf() (Expr, error) {
	if _, ok := p.match(MinusToken); ok {
		inner, err := p.expression()
		if err != nil {
			return nil, err
		}
		return &NegationExpr{Inner: inner}, nil
	}

	if tok, ok := p.match(NumberToken); ok {
		v, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, &types.Error{
				Tag:   types.UnexpectedTokenErrorTag,
				Err:   fmt.Errorf("invalid number %s at %d: %w", tok.Text, p.current, err),
				Extra: map[string]any{"pos": p.current},
			}
		}
		return &NumberExpr{Value: v}, nil
	}

	if _, ok := p.match(LeftParenToken); ok {
		openPos := p.current
		inner, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, ok := p.match(RightParenToken); !ok {
			return nil, types.NewSyntaxError(types.UnmatchedParenthesisErrorTag, openPos,
				"%s opened at %d is not closed", LeftParenToken, openPos)
		}
		return &GroupingExpr{Inner: inner}, nil
	}

	if p.isEnd() {
		return nil, types.NewSyntaxError(types.UnexpectedTokenErrorTag, p.current+1,
			"number or parentheses expected at %d, but got end of input", p.current+1)
	}
	tok := p.peek()
	return nil, types.NewSyntaxError(types.UnexpectedTokenErrorTag, p.current+1,
		"number or parentheses expected at %d, but got %s", p.current+1, tok)
}

func (p *Parser) match(kinds ...TokenKind) (Token, bool) {
	for _, kind := range kinds {
		if p.check(kind) {
			return p.advance(), true
		}
	}
	return Token{}, false
}

func (p *Parser) check(kind TokenKind) bool {
	if p.isEnd() {
		return false
	}
	return p.peek().Kind == kind
}

func (p *Parser) isEnd() bool {
	return p.current >= len(p.tokens)
}

func (p *Parser) advance() Token {
	tok := p.tokens[p.current]
	p.current++
	return tok
}

func (p *Parser) peek() Token {
	return p.tokens[p.current]
}

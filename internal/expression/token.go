package expression

import (
	"fmt"

	"github.com/samber/lo"
)

type TokenKind int

const (
	UnknownToken TokenKind = iota
	NumberToken
	LeftParenToken
	RightParenToken
	PlusToken
	MinusToken
	MultiplyToken
	DivideToken
	ModuloToken
	PowerToken
)

var tokenKindNameMap = map[TokenKind]string{
	NumberToken:     "NUMBER",
	LeftParenToken:  "LEFT_PAREN",
	RightParenToken: "RIGHT_PAREN",
	PlusToken:       "PLUS",
	MinusToken:      "MINUS",
	MultiplyToken:   "MULTIPLY",
	DivideToken:     "DIVIDE",
	ModuloToken:     "MODULO",
	PowerToken:      "POWER",
}

var tokenKindByNameMap = lo.Invert(tokenKindNameMap)

// canonical text for tokens built without an explicit literal
var tokenKindTextMap = map[TokenKind]string{
	LeftParenToken:  "(",
	RightParenToken: ")",
	PlusToken:       "+",
	MinusToken:      "-",
	MultiplyToken:   "*",
	DivideToken:     "/",
	ModuloToken:     "%",
	PowerToken:      "^",
}

func (k TokenKind) String() string {
	if name, ok := tokenKindNameMap[k]; ok {
		return name
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

func (k TokenKind) MarshalText() ([]byte, error) {
	name, ok := tokenKindNameMap[k]
	if !ok {
		return nil, fmt.Errorf("unknown token kind: %d", int(k))
	}
	return []byte(name), nil
}

func (k *TokenKind) UnmarshalText(b []byte) error {
	kind, ok := tokenKindByNameMap[string(b)]
	if !ok {
		return fmt.Errorf("unknown token kind: %q", string(b))
	}
	*k = kind
	return nil
}

// startsLeaf reports whether a token of this kind can begin an operand.
func (k TokenKind) startsLeaf() bool {
	switch k {
	case MinusToken, NumberToken, LeftParenToken:
		return true
	default:
		return false
	}
}

// Token is a classified lexical unit. Tokens are values and are never
// modified by the parser.
type Token struct {
	Kind TokenKind `json:"kind"`
	Text string    `json:"text"`
}

func (t Token) String() string {
	return t.Kind.String() + "(" + t.Text + ")"
}

// Number builds a NUMBER token from its literal text.
func Number(text string) Token {
	return Token{Kind: NumberToken, Text: text}
}

// Symbol builds an operator or parenthesis token with its canonical text.
func Symbol(kind TokenKind) Token {
	return Token{Kind: kind, Text: tokenKindTextMap[kind]}
}

// RenderTokens joins the literal texts of tokens, as a calculator display shows them.
func RenderTokens(tokens []Token) string {
	return lo.Reduce(tokens, func(s string, t Token, _ int) string {
		return s + t.Text
	}, "")
}

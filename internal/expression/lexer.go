package expression

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/karupanerura/calculator/internal/types"
)

// keypad glyphs that show up in display text
var glyphTokenKindMap = map[string]TokenKind{
	"×": MultiplyToken,
	"÷": DivideToken,
}

var operatorTokenKindMap = map[byte]TokenKind{
	'(': LeftParenToken,
	')': RightParenToken,
	'+': PlusToken,
	'-': MinusToken,
	'*': MultiplyToken,
	'/': DivideToken,
	'%': ModuloToken,
	'^': PowerToken,
}

type lexer struct {
	source string
	index  int
	stack  []lexerContext
}

func newLexer(source string) *lexer {
	return &lexer{
		source: source,
		index:  0,
		stack: []lexerContext{
			{kind: defaultLexerContext},
		},
	}
}

type lexerContextKind int

const (
	defaultLexerContext lexerContextKind = iota
	numericLiteralLexerContext
)

type lexerContext struct {
	kind           lexerContextKind
	rangeBeginsIdx int
	dotFound       bool
}

func (l *lexer) consume() (Token, error) {
	for l.index != len(l.source) {
		context := &l.stack[len(l.stack)-1]
		switch context.kind {
		case defaultLexerContext:
			c := l.source[l.index]
			switch {
			case c == ' ' || c == '\t' || c == '\n' || c == '\r':
				l.index++ // just skip white spaces
			case '0' <= c && c <= '9':
				l.stack = append(l.stack, lexerContext{kind: numericLiteralLexerContext, rangeBeginsIdx: l.index})
				l.index++
			default:
				if kind, ok := operatorTokenKindMap[c]; ok {
					l.index++
					return Token{Kind: kind, Text: l.source[l.index-1 : l.index]}, nil
				}
				if kind, size, ok := l.matchGlyph(); ok {
					l.index += size
					return Token{Kind: kind, Text: l.source[l.index-size : l.index]}, nil
				}
				return Token{}, l.createInvalidCharacterError()
			}

		case numericLiteralLexerContext:
			if c := l.source[l.index]; c == '.' {
				if context.dotFound {
					return Token{}, l.createInvalidCharacterError()
				}
				context.dotFound = true
				l.index++
				continue
			} else if '0' <= c && c <= '9' {
				l.index++
				continue
			}
			return l.closeNumericLiteral()
		}
	}

	if len(l.stack) == 0 {
		panic(fmt.Sprintf("should not reach here: source=%s", l.source))
	}
	if l.stack[len(l.stack)-1].kind == numericLiteralLexerContext {
		return l.closeNumericLiteral()
	}
	return Token{}, io.EOF
}

func (l *lexer) closeNumericLiteral() (Token, error) {
	context := l.stack[len(l.stack)-1]
	l.stack = l.stack[:len(l.stack)-1]
	if l.source[l.index-1] == '.' {
		l.index--
		return Token{}, l.createInvalidCharacterError()
	}
	return Number(l.source[context.rangeBeginsIdx:l.index]), nil
}

func (l *lexer) matchGlyph() (TokenKind, int, bool) {
	for glyph, kind := range glyphTokenKindMap {
		if strings.HasPrefix(l.source[l.index:], glyph) {
			return kind, len(glyph), true
		}
	}
	return UnknownToken, 0, false
}

func (l *lexer) createInvalidCharacterError() error {
	r, _ := utf8.DecodeRuneInString(l.source[l.index:])
	pos := utf8.RuneCountInString(l.source[:l.index]) + 1
	return &types.Error{
		Tag:   types.LexErrorTag,
		Err:   fmt.Errorf("invalid character at %d: %q in %q", pos, r, l.source),
		Extra: map[string]any{"pos": pos},
	}
}

// Tokenize splits calculator display text into tokens.
func Tokenize(source string) ([]Token, error) {
	lex := newLexer(source)

	var tokens []Token
	for {
		tok, err := lex.consume()
		if errors.Is(err, io.EOF) {
			return tokens, nil
		} else if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
}

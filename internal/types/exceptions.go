package types

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

type ErrorTag string

const (
	// syntax errors raised while parsing a token sequence
	MissingOperandErrorTag       ErrorTag = "MissingOperandError"
	UnmatchedParenthesisErrorTag ErrorTag = "UnmatchedParenthesisError"
	UnexpectedTokenErrorTag      ErrorTag = "UnexpectedTokenError"

	// internal consistency errors
	UnknownOperatorErrorTag ErrorTag = "UnknownOperatorError"

	// resource limits
	RecursionErrorTag ErrorTag = "RecursionError"

	// input errors outside of the grammar
	LexErrorTag   ErrorTag = "LexError"
	ValueErrorTag ErrorTag = "ValueError"
)

// Sentinels for errors.Is. Any *Error with the same tag matches.
var (
	ErrMissingOperand       = &Error{Tag: MissingOperandErrorTag}
	ErrUnmatchedParenthesis = &Error{Tag: UnmatchedParenthesisErrorTag}
	ErrUnexpectedToken      = &Error{Tag: UnexpectedTokenErrorTag}
	ErrUnknownOperator      = &Error{Tag: UnknownOperatorErrorTag}
	ErrRecursion            = &Error{Tag: RecursionErrorTag}
	ErrLex                  = &Error{Tag: LexErrorTag}
	ErrValue                = &Error{Tag: ValueErrorTag}
)

type Exception interface {
	error
	Exception() any
}

type Error struct {
	Tag   ErrorTag
	Err   error
	Extra map[string]any
}

var _ Exception = (*Error)(nil)

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Tag)
	}

	var b strings.Builder
	b.WriteString(string(e.Tag))
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Tag == e.Tag
}

// IsSyntaxError reports whether the tag belongs to the grammar layer.
func (t ErrorTag) IsSyntaxError() bool {
	switch t {
	case MissingOperandErrorTag, UnmatchedParenthesisErrorTag, UnexpectedTokenErrorTag:
		return true
	default:
		return false
	}
}

func (e *Error) Exception() any {
	tags := []ErrorTag{e.Tag}
	for err := e.Err; err != nil; {
		if e, ok := err.(*Error); ok {
			tags = append(tags, e.Tag)
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}

	o := map[string]any{
		"tags":    lo.Uniq(tags),
		"message": e.Error(),
	}
	if len(e.Extra) != 0 {
		o = lo.Assign(o, e.Extra)
	}
	return o
}

func NewSyntaxError(tag ErrorTag, pos int, format string, args ...any) *Error {
	return &Error{
		Tag:   tag,
		Err:   fmt.Errorf(format, args...),
		Extra: map[string]any{"pos": pos},
	}
}

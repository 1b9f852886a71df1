package parser

import (
	"errors"
	"fmt"
)

// Pos is a location in the query text.
type Pos struct {
	Offset int // byte offset, 0-based
	Line   int // 1-based
	Column int // 1-based, in runes
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// SyntaxError reports malformed query text.
type SyntaxError struct {
	Pos     Pos
	Token   string // offending token text ("" at end of input)
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("syntax error at %s: %s (at end of input)", e.Pos, e.Message)
	}
	return fmt.Sprintf("syntax error at %s near %q: %s", e.Pos, e.Token, e.Message)
}

// IsSyntaxError returns true if err is or wraps a *SyntaxError.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}

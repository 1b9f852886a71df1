package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/jcrq/internal/ir"
	"github.com/roach88/jcrq/internal/queryir"
)

// Syntax selects a front end.
type Syntax string

// Supported surface syntaxes.
const (
	SyntaxSQL   Syntax = "sql"
	SyntaxXPath Syntax = "xpath"
)

// ValidSyntaxes lists the accepted Syntax values.
var ValidSyntaxes = []Syntax{SyntaxSQL, SyntaxXPath}

// DetectSyntax guesses the surface syntax from the query text: XPath
// queries start with "/" and SQL queries with SELECT.
func DetectSyntax(text string) (Syntax, error) {
	trimmed := strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(trimmed, "/"):
		return SyntaxXPath, nil
	case len(trimmed) >= 6 && strings.EqualFold(trimmed[:6], "select"):
		return SyntaxSQL, nil
	default:
		return "", &SyntaxError{
			Pos:     Pos{Line: 1, Column: 1},
			Token:   firstWord(trimmed),
			Message: "cannot detect query syntax: expected SELECT or an absolute path",
		}
	}
}

func firstWord(s string) string {
	if i := strings.IndexFunc(s, func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' }); i >= 0 {
		return s[:i]
	}
	return s
}

// Parse parses text with the front end for syntax.
func Parse(syntax Syntax, text string) (queryir.Query, error) {
	switch syntax {
	case SyntaxSQL:
		return ParseSQL(text)
	case SyntaxXPath:
		return ParseXPath(text)
	default:
		return queryir.Query{}, fmt.Errorf("unknown query syntax %q: must be one of %v", syntax, ValidSyntaxes)
	}
}

// ParseAuto detects the syntax and parses text.
func ParseAuto(text string) (queryir.Query, Syntax, error) {
	syntax, err := DetectSyntax(text)
	if err != nil {
		return queryir.Query{}, "", err
	}
	q, err := Parse(syntax, text)
	return q, syntax, err
}

// parser holds the token stream shared by both front ends.
type parser struct {
	toks []token
	i    int
}

func newParser(text string, doubleQuoteString bool) (*parser, error) {
	toks, err := tokenize(text, doubleQuoteString)
	if err != nil {
		return nil, err
	}
	return &parser{toks: toks}, nil
}

func (p *parser) peek() token {
	return p.toks[p.i]
}

func (p *parser) peekAt(n int) token {
	if p.i+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+n]
}

func (p *parser) next() token {
	tok := p.toks[p.i]
	if tok.kind != tokEOF {
		p.i++
	}
	return tok
}

// accept consumes the next token if it is s.
func (p *parser) accept(s string) bool {
	if p.peek().is(s) {
		p.i++
		return true
	}
	return false
}

// expect consumes the next token, which must be s.
func (p *parser) expect(s string) (token, error) {
	tok := p.peek()
	if !tok.is(s) {
		return tok, p.errorf(tok, "expected %q", s)
	}
	return p.next(), nil
}

func (p *parser) expectEOF() error {
	if tok := p.peek(); tok.kind != tokEOF {
		return p.errorf(tok, "unexpected trailing input")
	}
	return nil
}

func (p *parser) errorf(tok token, format string, args ...any) *SyntaxError {
	return &SyntaxError{Pos: tok.pos, Token: tok.raw, Message: fmt.Sprintf(format, args...)}
}

// literal parses a string, integer or boolean literal.
func (p *parser) literal() (ir.IRValue, error) {
	tok := p.peek()
	switch {
	case tok.kind == tokString:
		p.next()
		return ir.IRString(tok.val), nil
	case tok.kind == tokNumber:
		p.next()
		n, err := strconv.ParseInt(tok.val, 10, 64)
		if err != nil {
			return nil, p.errorf(tok, "integer out of range")
		}
		return ir.IRInt(n), nil
	case tok.is("true"), tok.is("false"):
		p.next()
		// XPath spells these true() and false()
		if p.peek().is("(") && p.peekAt(1).is(")") {
			p.next()
			p.next()
		}
		return ir.IRBool(strings.EqualFold(tok.val, "true")), nil
	default:
		return nil, p.errorf(tok, "expected literal, got %s", tok.kind)
	}
}

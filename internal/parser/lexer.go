package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

type tokenKind int

const (
	tokEOF    tokenKind = iota
	tokIdent            // rx:title, jcr:path, select
	tokString           // 'text'
	tokNumber           // 42, -7
	tokOp               // = != <> < <= > >= ( ) [ ] , / // @ * |
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIdent:
		return "identifier"
	case tokString:
		return "string"
	case tokNumber:
		return "number"
	default:
		return "operator"
	}
}

type token struct {
	kind tokenKind
	val  string // NFC normalized; unquoted for strings
	raw  string // source text
	pos  Pos
}

// is reports whether the token is the given operator or (case-insensitively)
// the given bare word.
func (t token) is(s string) bool {
	switch t.kind {
	case tokOp:
		return t.val == s
	case tokIdent:
		return strings.EqualFold(t.val, s)
	default:
		return false
	}
}

// operators, longest first so that "<=" wins over "<".
var operators = []string{
	"//", "!=", "<>", "<=", ">=",
	"=", "<", ">", "(", ")", "[", "]", ",", "/", "@", "*", "|",
}

type lexer struct {
	src  string
	off  int
	line int
	col  int

	// doubleQuoteString makes "..." a string literal (XPath). Otherwise
	// "..." is a quoted identifier (SQL).
	doubleQuoteString bool
}

// tokenize splits the whole input into tokens. The final token is tokEOF.
func tokenize(src string, doubleQuoteString bool) ([]token, error) {
	lx := &lexer{src: src, line: 1, col: 1, doubleQuoteString: doubleQuoteString}
	var toks []token
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			return toks, nil
		}
	}
}

func (lx *lexer) pos() Pos {
	return Pos{Offset: lx.off, Line: lx.line, Column: lx.col}
}

func (lx *lexer) peek() rune {
	if lx.off >= len(lx.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(lx.src[lx.off:])
	return r
}

func (lx *lexer) peekAt(n int) rune {
	off := lx.off
	for i := 0; i < n && off < len(lx.src); i++ {
		_, size := utf8.DecodeRuneInString(lx.src[off:])
		off += size
	}
	if off >= len(lx.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(lx.src[off:])
	return r
}

func (lx *lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(lx.src[lx.off:])
	lx.off += size
	if r == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	return r
}

func (lx *lexer) skipSpace() {
	for lx.off < len(lx.src) && unicode.IsSpace(lx.peek()) {
		lx.advance()
	}
}

func (lx *lexer) next() (token, error) {
	lx.skipSpace()
	start := lx.pos()
	if lx.off >= len(lx.src) {
		return token{kind: tokEOF, pos: start}, nil
	}

	r := lx.peek()
	switch {
	case r == '\'':
		return lx.quoted('\'', tokString, start)
	case r == '"' && lx.doubleQuoteString:
		return lx.quoted('"', tokString, start)
	case r == '"':
		return lx.quoted('"', tokIdent, start)
	case isDigit(r) || (r == '-' && isDigit(lx.peekAt(1))):
		return lx.number(start)
	case isIdentStart(r):
		return lx.ident(start), nil
	}

	for _, op := range operators {
		if strings.HasPrefix(lx.src[lx.off:], op) {
			for range op {
				lx.advance()
			}
			return token{kind: tokOp, val: op, raw: op, pos: start}, nil
		}
	}

	bad := string(r)
	return token{}, &SyntaxError{Pos: start, Token: bad, Message: "unexpected character"}
}

// quoted reads a literal delimited by q. A doubled delimiter stands for
// itself ('it''s').
func (lx *lexer) quoted(q rune, kind tokenKind, start Pos) (token, error) {
	lx.advance()
	var b strings.Builder
	for {
		if lx.off >= len(lx.src) {
			return token{}, &SyntaxError{Pos: start, Token: lx.src[start.Offset:], Message: "unterminated quoted literal"}
		}
		r := lx.advance()
		if r == q {
			if lx.peek() == q {
				lx.advance()
				b.WriteRune(q)
				continue
			}
			break
		}
		b.WriteRune(r)
	}
	return token{
		kind: kind,
		val:  norm.NFC.String(b.String()),
		raw:  lx.src[start.Offset:lx.off],
		pos:  start,
	}, nil
}

// number reads an integer literal. Numeric literals are int64 only.
func (lx *lexer) number(start Pos) (token, error) {
	if lx.peek() == '-' {
		lx.advance()
	}
	for isDigit(lx.peek()) {
		lx.advance()
	}
	if lx.peek() == '.' && isDigit(lx.peekAt(1)) {
		lx.advance()
		for isDigit(lx.peek()) {
			lx.advance()
		}
		return token{}, &SyntaxError{Pos: start, Token: lx.src[start.Offset:lx.off], Message: "decimal literals are not supported"}
	}
	raw := lx.src[start.Offset:lx.off]
	return token{kind: tokNumber, val: raw, raw: raw, pos: start}, nil
}

func (lx *lexer) ident(start Pos) token {
	for lx.off < len(lx.src) && isIdentPart(lx.peek()) {
		lx.advance()
	}
	raw := lx.src[start.Offset:lx.off]
	return token{kind: tokIdent, val: norm.NFC.String(raw), raw: raw, pos: start}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r) || r == ':' || r == '-' || r == '.'
}

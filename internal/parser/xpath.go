package parser

import (
	"strconv"
	"strings"

	"github.com/roach88/jcrq/internal/queryir"
)

// DefaultSourceType is the content type of element(*) and * node tests.
const DefaultSourceType = "nt:base"

// ParseXPath parses the XPath-like syntax:
//
//	/jcr:root/a/b//element(*, type)[predicate]/(@p | @q) order by @p descending
//
// The location path becomes a jcr:path comparison: a final "//" step
// matches the folder subtree (jcr:path like '/a/b/%'), a final "/" step the
// folder itself (jcr:path = '/a/b'). A query starting with "//" has no path
// restriction.
func ParseXPath(text string) (queryir.Query, error) {
	p, err := newParser(text, true)
	if err != nil {
		return queryir.Query{}, err
	}
	xp := &xpathParser{parser: p}
	return xp.query()
}

type xpathParser struct {
	*parser
}

func (p *xpathParser) query() (queryir.Query, error) {
	var q queryir.Query

	pathCmp, src, err := p.location()
	if err != nil {
		return q, err
	}
	q.SourceType = src

	var pred queryir.Node
	if p.accept("[") {
		pred, err = p.or()
		if err != nil {
			return q, err
		}
		if _, err := p.expect("]"); err != nil {
			return q, err
		}
	}
	switch {
	case pathCmp != nil && pred != nil:
		q.Predicate = queryir.AndOf(pathCmp, pred)
	case pathCmp != nil:
		q.Predicate = pathCmp
	default:
		q.Predicate = pred
	}

	if p.peek().is("/") && p.peekAt(1).is("(") {
		p.next()
		cols, err := p.columns()
		if err != nil {
			return q, err
		}
		q.Columns = cols
	}

	if p.accept("order") {
		if _, err := p.expect("by"); err != nil {
			return q, err
		}
		order, err := p.orderBy()
		if err != nil {
			return q, err
		}
		q.OrderBy = order
	}

	return q, p.expectEOF()
}

// location parses the path and node test. It returns the path comparison
// (nil for "//" queries) and the source type.
func (p *xpathParser) location() (queryir.Node, string, error) {
	first := p.peek()
	switch {
	case first.is("//"):
		p.next()
		src, err := p.nodeTest()
		return nil, src, err
	case first.is("/"):
		p.next()
	default:
		return nil, "", p.errorf(first, "expected absolute path")
	}

	if _, err := p.expect("jcr:root"); err != nil {
		return nil, "", err
	}

	var segs []string
	for {
		sep := p.peek()
		if !sep.is("/") && !sep.is("//") {
			return nil, "", p.errorf(sep, "expected node test")
		}
		p.next()

		if p.atNodeTest() {
			src, err := p.nodeTest()
			if err != nil {
				return nil, "", err
			}
			folder := "/" + strings.Join(segs, "/")
			if sep.is("//") {
				return queryir.Cmp(queryir.PathProperty, queryir.OpLike, queryir.Str(subtreePattern(folder))), src, nil
			}
			return queryir.Cmp(queryir.PathProperty, queryir.OpEq, queryir.Str(folder)), src, nil
		}

		if sep.is("//") {
			return nil, "", p.errorf(sep, "descendant step is only supported before the node test")
		}
		seg := p.peek()
		if seg.kind != tokIdent && seg.kind != tokString {
			return nil, "", p.errorf(seg, "expected path segment")
		}
		p.next()
		segs = append(segs, decodeName(seg.val))
	}
}

func subtreePattern(folder string) string {
	if folder == "/" {
		return "/%"
	}
	return queryir.EscapeLike(folder) + "/%"
}

func (p *xpathParser) atNodeTest() bool {
	tok := p.peek()
	return tok.is("*") || (tok.is("element") && p.peekAt(1).is("("))
}

// nodeTest parses element(*, type), element(*) or *.
func (p *xpathParser) nodeTest() (string, error) {
	if p.accept("*") {
		return DefaultSourceType, nil
	}
	if _, err := p.expect("element"); err != nil {
		return "", err
	}
	if _, err := p.expect("("); err != nil {
		return "", err
	}
	if _, err := p.expect("*"); err != nil {
		return "", err
	}
	src := DefaultSourceType
	if p.accept(",") {
		tok := p.peek()
		if tok.kind != tokIdent {
			return "", p.errorf(tok, "expected content type name")
		}
		src = p.next().val
	}
	if _, err := p.expect(")"); err != nil {
		return "", err
	}
	return src, nil
}

// decodeName undoes the _xHHHH_ escaping of path segment names.
func decodeName(s string) string {
	if !strings.Contains(s, "_x") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		if i+7 <= len(s) && s[i] == '_' && s[i+1] == 'x' && s[i+6] == '_' {
			if r, err := strconv.ParseUint(s[i+2:i+6], 16, 32); err == nil {
				b.WriteRune(rune(r))
				i += 7
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

func (p *xpathParser) attribute() (string, error) {
	if _, err := p.expect("@"); err != nil {
		return "", err
	}
	tok := p.peek()
	if tok.kind != tokIdent {
		return "", p.errorf(tok, "expected property name")
	}
	return p.next().val, nil
}

func (p *xpathParser) columns() ([]queryir.PropertyRef, error) {
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	var cols []queryir.PropertyRef
	for {
		name, err := p.attribute()
		if err != nil {
			return nil, err
		}
		cols = append(cols, queryir.Prop(name))
		if !p.accept("|") {
			break
		}
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	return cols, nil
}

func (p *xpathParser) orderBy() ([]queryir.OrderSpec, error) {
	var specs []queryir.OrderSpec
	for {
		name, err := p.attribute()
		if err != nil {
			return nil, err
		}
		dir := queryir.Ascending
		switch {
		case p.accept("ascending"):
		case p.accept("descending"):
			dir = queryir.Descending
		}
		specs = append(specs, queryir.OrderSpec{Property: queryir.Prop(name), Direction: dir})
		if !p.accept(",") {
			return specs, nil
		}
	}
}

func (p *xpathParser) or() (queryir.Node, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.accept("or") {
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = queryir.OrOf(left, right)
	}
	return left, nil
}

func (p *xpathParser) and() (queryir.Node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.accept("and") {
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = queryir.AndOf(left, right)
	}
	return left, nil
}

var xpathCompareOps = map[string]queryir.CompareOp{
	"=":  queryir.OpEq,
	"!=": queryir.OpNe,
	"<":  queryir.OpLt,
	"<=": queryir.OpLe,
	">":  queryir.OpGt,
	">=": queryir.OpGe,
	"eq": queryir.OpEq,
	"ne": queryir.OpNe,
	"lt": queryir.OpLt,
	"le": queryir.OpLe,
	"gt": queryir.OpGt,
	"ge": queryir.OpGe,
}

func (p *xpathParser) unary() (queryir.Node, error) {
	tok := p.peek()
	switch {
	case tok.is("("):
		p.next()
		n, err := p.or()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(")"); err != nil {
			return nil, err
		}
		return n, nil
	case tok.is("jcr:like"):
		return p.like(queryir.OpLike)
	case tok.is("fn:not"), tok.is("not"):
		p.next()
		return p.not()
	case (tok.is("true") || tok.is("false")) && p.peekAt(1).is("("):
		p.next()
		p.next()
		if _, err := p.expect(")"); err != nil {
			return nil, err
		}
		return queryir.BooleanLiteral{Value: tok.is("true")}, nil
	case tok.is("@"):
		return p.comparison()
	}
	return nil, p.errorf(tok, "expected predicate")
}

// not parses the argument of fn:not: an attribute (absence test) or a
// jcr:like call.
func (p *xpathParser) not() (queryir.Node, error) {
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	var n queryir.Node
	switch tok := p.peek(); {
	case tok.is("jcr:like"):
		like, err := p.like(queryir.OpNotLike)
		if err != nil {
			return nil, err
		}
		n = like
	case tok.is("@"):
		name, err := p.attribute()
		if err != nil {
			return nil, err
		}
		n = queryir.Cmp(name, queryir.OpIsNull, nil)
	default:
		return nil, p.errorf(tok, "fn:not supports an attribute or jcr:like")
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	return n, nil
}

// like parses jcr:like(@prop, 'pattern').
func (p *xpathParser) like(op queryir.CompareOp) (queryir.Node, error) {
	p.next()
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	name, err := p.attribute()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(","); err != nil {
		return nil, err
	}
	pat := p.peek()
	if pat.kind != tokString {
		return nil, p.errorf(pat, "jcr:like requires a string pattern")
	}
	p.next()
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	return queryir.Cmp(name, op, queryir.Str(pat.val)), nil
}

func (p *xpathParser) comparison() (queryir.Node, error) {
	name, err := p.attribute()
	if err != nil {
		return nil, err
	}
	tok := p.peek()
	if tok.kind == tokOp || tok.kind == tokIdent {
		if op, ok := xpathCompareOps[strings.ToLower(tok.val)]; ok {
			p.next()
			v, err := p.literal()
			if err != nil {
				return nil, err
			}
			return queryir.Cmp(name, op, queryir.Literal{Value: v}), nil
		}
	}
	// bare @prop tests for existence
	return queryir.Cmp(name, queryir.OpIsNotNull, nil), nil
}

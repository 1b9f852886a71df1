package parser

import (
	"github.com/roach88/jcrq/internal/ir"
	"github.com/roach88/jcrq/internal/queryir"
)

// ParseSQL parses the SQL-like syntax:
//
//	SELECT * | prop {, prop} FROM type
//	  [WHERE predicate]
//	  [ORDER BY prop [ASC|DESC] {, prop [ASC|DESC]}]
//
// AND binds tighter than OR; both associate to the left.
func ParseSQL(text string) (queryir.Query, error) {
	p, err := newParser(text, false)
	if err != nil {
		return queryir.Query{}, err
	}
	sp := &sqlParser{parser: p}
	return sp.query()
}

type sqlParser struct {
	*parser
}

func (p *sqlParser) query() (queryir.Query, error) {
	var q queryir.Query
	if _, err := p.expect("select"); err != nil {
		return q, err
	}

	cols, err := p.columns()
	if err != nil {
		return q, err
	}
	q.Columns = cols

	if _, err := p.expect("from"); err != nil {
		return q, err
	}
	src := p.peek()
	if src.kind != tokIdent {
		return q, p.errorf(src, "expected content type name")
	}
	q.SourceType = p.next().val

	if p.accept("where") {
		pred, err := p.or()
		if err != nil {
			return q, err
		}
		q.Predicate = pred
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

func (p *sqlParser) columns() ([]queryir.PropertyRef, error) {
	if p.accept("*") {
		return nil, nil
	}
	var cols []queryir.PropertyRef
	for {
		name, err := p.property()
		if err != nil {
			return nil, err
		}
		cols = append(cols, queryir.Prop(name))
		if !p.accept(",") {
			return cols, nil
		}
	}
}

func (p *sqlParser) orderBy() ([]queryir.OrderSpec, error) {
	var specs []queryir.OrderSpec
	for {
		name, err := p.property()
		if err != nil {
			return nil, err
		}
		dir := queryir.Ascending
		switch {
		case p.accept("asc"):
		case p.accept("desc"):
			dir = queryir.Descending
		}
		specs = append(specs, queryir.OrderSpec{Property: queryir.Prop(name), Direction: dir})
		if !p.accept(",") {
			return specs, nil
		}
	}
}

func (p *sqlParser) property() (string, error) {
	tok := p.peek()
	if tok.kind != tokIdent || isSQLKeyword(tok) {
		return "", p.errorf(tok, "expected property name")
	}
	return p.next().val, nil
}

func isSQLKeyword(tok token) bool {
	for _, kw := range []string{"select", "from", "where", "order", "by", "and", "or", "not", "like", "in", "is", "null", "asc", "desc"} {
		if tok.is(kw) {
			return true
		}
	}
	return false
}

func (p *sqlParser) or() (queryir.Node, error) {
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

func (p *sqlParser) and() (queryir.Node, error) {
	left, err := p.primary()
	if err != nil {
		return nil, err
	}
	for p.accept("and") {
		right, err := p.primary()
		if err != nil {
			return nil, err
		}
		left = queryir.AndOf(left, right)
	}
	return left, nil
}

func (p *sqlParser) primary() (queryir.Node, error) {
	if p.accept("(") {
		n, err := p.or()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(")"); err != nil {
			return nil, err
		}
		return n, nil
	}
	return p.comparison()
}

var sqlCompareOps = map[string]queryir.CompareOp{
	"=":  queryir.OpEq,
	"!=": queryir.OpNe,
	"<>": queryir.OpNe,
	"<":  queryir.OpLt,
	"<=": queryir.OpLe,
	">":  queryir.OpGt,
	">=": queryir.OpGe,
}

func (p *sqlParser) comparison() (queryir.Node, error) {
	name, err := p.property()
	if err != nil {
		return nil, err
	}

	tok := p.peek()
	if tok.kind == tokOp {
		if op, ok := sqlCompareOps[tok.val]; ok {
			p.next()
			v, err := p.literal()
			if err != nil {
				return nil, err
			}
			return queryir.Cmp(name, op, queryir.Literal{Value: v}), nil
		}
	}

	switch {
	case p.accept("is"):
		op := queryir.OpIsNull
		if p.accept("not") {
			op = queryir.OpIsNotNull
		}
		if _, err := p.expect("null"); err != nil {
			return nil, err
		}
		return queryir.Cmp(name, op, nil), nil
	case p.accept("not"):
		if !p.accept("like") {
			return nil, p.errorf(p.peek(), "expected LIKE after NOT")
		}
		return p.like(name, queryir.OpNotLike)
	case p.accept("like"):
		return p.like(name, queryir.OpLike)
	case p.accept("in"):
		list, err := p.list()
		if err != nil {
			return nil, err
		}
		return queryir.Cmp(name, queryir.OpIn, queryir.LiteralList{Values: list}), nil
	}
	return nil, p.errorf(tok, "expected comparison operator")
}

func (p *sqlParser) like(name string, op queryir.CompareOp) (queryir.Node, error) {
	tok := p.peek()
	if tok.kind != tokString {
		return nil, p.errorf(tok, "LIKE requires a string pattern")
	}
	p.next()
	return queryir.Cmp(name, op, queryir.Str(tok.val)), nil
}

func (p *sqlParser) list() ([]ir.IRValue, error) {
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	var values []ir.IRValue
	for {
		v, err := p.literal()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		if !p.accept(",") {
			break
		}
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	return values, nil
}

package compiler

import (
	"slices"

	"github.com/roach88/jcrq/internal/ir"
	"github.com/roach88/jcrq/internal/queryir"
	"github.com/roach88/jcrq/internal/typeconf"
)

// Resolve binds every symbolic property of q to its column.
//
// jcr:primaryType comparisons are rewritten against the content type id
// column with type names replaced by their ids. Path predicates are left
// symbolic for Transform. Conjunction structure is unchanged.
func Resolve(q queryir.Query, cfg typeconf.TypeConfiguration) (queryir.Query, error) {
	r := &resolver{cfg: cfg, sourceType: q.SourceType}

	out := queryir.Query{SourceType: q.SourceType}
	for _, col := range q.Columns {
		ref, err := r.ref(col)
		if err != nil {
			return queryir.Query{}, err
		}
		out.Columns = append(out.Columns, ref)
	}
	for _, o := range q.OrderBy {
		ref, err := r.ref(o.Property)
		if err != nil {
			return queryir.Query{}, err
		}
		out.OrderBy = append(out.OrderBy, queryir.OrderSpec{Property: ref, Direction: o.Direction})
	}

	if q.Predicate != nil {
		pred, err := r.node(q.Predicate)
		if err != nil {
			return queryir.Query{}, err
		}
		out.Predicate = pred
	}
	return out, nil
}

type resolver struct {
	cfg        typeconf.TypeConfiguration
	sourceType string
}

func (r *resolver) ref(p queryir.PropertyRef) (queryir.PropertyRef, error) {
	if p.Resolved() {
		return p, nil
	}
	col, ok := r.cfg.Resolve(p.Name)
	if !ok {
		return queryir.PropertyRef{}, &UnresolvedPropertyError{Property: p.Name, SourceType: r.sourceType}
	}
	return col.Ref(p.Name), nil
}

func (r *resolver) node(n queryir.Node) (queryir.Node, error) {
	switch node := n.(type) {
	case queryir.Conjunction:
		left, err := r.node(node.Left)
		if err != nil {
			return nil, err
		}
		right, err := r.node(node.Right)
		if err != nil {
			return nil, err
		}
		return queryir.Conjunction{Left: left, Op: node.Op, Right: right}, nil
	case queryir.Compare:
		return r.compare(node)
	default:
		return n, nil
	}
}

func (r *resolver) compare(c queryir.Compare) (queryir.Node, error) {
	switch {
	case c.IsPath():
		return c, nil
	case !c.Property.Resolved() && c.Property.Name == queryir.PrimaryTypeProperty:
		return r.primaryType(c)
	}
	ref, err := r.ref(c.Property)
	if err != nil {
		return nil, err
	}
	return queryir.Compare{Property: ref, Op: c.Op, Value: c.Value}, nil
}

// primaryType rewrites a type-name comparison into an id comparison.
func (r *resolver) primaryType(c queryir.Compare) (queryir.Node, error) {
	col, ok := r.cfg.Resolve(queryir.PrimaryTypeProperty)
	if !ok {
		return nil, &UnresolvedPropertyError{Property: queryir.PrimaryTypeProperty, SourceType: r.sourceType}
	}
	ref := col.Ref(queryir.PrimaryTypeProperty)

	// every item is an nt:base, which has no content type id of its own
	if isBaseType(c.Value) {
		switch c.Op {
		case queryir.OpEq, queryir.OpIn:
			return queryir.BooleanLiteral{Value: true}, nil
		case queryir.OpNe:
			return queryir.BooleanLiteral{Value: false}, nil
		}
	}

	switch c.Op {
	case queryir.OpEq, queryir.OpNe:
		lit, ok := c.Value.(queryir.Literal)
		if !ok {
			return nil, &UnsupportedError{Property: c.Property.Name, Op: c.Op, Reason: "expected a content type name"}
		}
		id, err := r.typeID(c, lit.Value)
		if err != nil {
			return nil, err
		}
		return queryir.Compare{Property: ref, Op: c.Op, Value: queryir.Int(id)}, nil
	case queryir.OpIn:
		list, ok := c.Value.(queryir.LiteralList)
		if !ok {
			return nil, &UnsupportedError{Property: c.Property.Name, Op: c.Op, Reason: "expected a list of content type names"}
		}
		ids := make([]int64, 0, len(list.Values))
		for _, v := range list.Values {
			id, err := r.typeID(c, v)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		slices.Sort(ids)
		return queryir.Compare{Property: ref, Op: c.Op, Value: queryir.IDList{IDs: slices.Compact(ids)}}, nil
	default:
		return nil, &UnsupportedError{Property: c.Property.Name, Op: c.Op, Reason: "content types support =, != and in"}
	}
}

func isBaseType(v queryir.Operand) bool {
	switch val := v.(type) {
	case queryir.Literal:
		return val.Value == ir.IRString(typeconf.BaseType)
	case queryir.LiteralList:
		return slices.Contains(val.Values, ir.IRValue(ir.IRString(typeconf.BaseType)))
	}
	return false
}

func (r *resolver) typeID(c queryir.Compare, v ir.IRValue) (int64, error) {
	name, ok := v.(ir.IRString)
	if !ok {
		return 0, &UnsupportedError{Property: c.Property.Name, Op: c.Op, Reason: "content type must be named by a string, got " + ir.Format(v)}
	}
	id, ok := r.cfg.ContentTypeID(string(name))
	if !ok {
		return 0, &UnresolvedTypeError{TypeName: string(name)}
	}
	return id, nil
}

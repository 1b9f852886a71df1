package compiler

import (
	"context"
	"slices"

	"github.com/roach88/jcrq/internal/ir"
	"github.com/roach88/jcrq/internal/queryir"
	"github.com/roach88/jcrq/internal/typeconf"
)

// FolderExpander resolves a path or path pattern to the ids of the folders
// whose items it designates. An empty result is an answer, not an error.
//
// Patterns ending in "/%" designate the folder and its whole subtree; a
// plain path designates that folder alone.
type FolderExpander interface {
	ExpandPath(ctx context.Context, path string) ([]int64, error)
}

// FolderExpanderFunc adapts a function to FolderExpander.
type FolderExpanderFunc func(ctx context.Context, path string) ([]int64, error)

// ExpandPath implements FolderExpander.
func (f FolderExpanderFunc) ExpandPath(ctx context.Context, path string) ([]int64, error) {
	return f(ctx, path)
}

// PropertyMapper renames physical columns before code generation.
type PropertyMapper interface {
	TranslateProperty(name string) string
}

// IdentityMapper leaves every name unchanged.
type IdentityMapper struct{}

// TranslateProperty implements PropertyMapper.
func (IdentityMapper) TranslateProperty(name string) string {
	return name
}

// MapMapper renames the columns it lists and leaves the others unchanged.
type MapMapper map[string]string

// TranslateProperty implements PropertyMapper.
func (m MapMapper) TranslateProperty(name string) string {
	if to, ok := m[name]; ok {
		return to
	}
	return name
}

// Transform replaces every path predicate of a resolved query with a
// folder membership test and applies mapper to every column.
//
// A path that designates no folder becomes BooleanLiteral(false); the
// enclosing conjunctions are left for code generation to fold. A nil
// mapper is the identity.
func Transform(ctx context.Context, q queryir.Query, cfg typeconf.TypeConfiguration, expander FolderExpander, mapper PropertyMapper) (queryir.Query, error) {
	if mapper == nil {
		mapper = IdentityMapper{}
	}
	folderCol, ok := cfg.Resolve(queryir.PathProperty)
	if !ok {
		return queryir.Query{}, &UnresolvedPropertyError{Property: queryir.PathProperty, SourceType: q.SourceType}
	}

	t := &transformer{
		expander:  expander,
		mapper:    mapper,
		folderRef: folderCol.Ref(queryir.PathProperty),
	}

	out := queryir.Query{SourceType: q.SourceType}
	for _, col := range q.Columns {
		out.Columns = append(out.Columns, t.mapRef(col))
	}
	for _, o := range q.OrderBy {
		out.OrderBy = append(out.OrderBy, queryir.OrderSpec{Property: t.mapRef(o.Property), Direction: o.Direction})
	}
	if q.Predicate != nil {
		pred, err := t.node(ctx, q.Predicate)
		if err != nil {
			return queryir.Query{}, err
		}
		out.Predicate = pred
	}
	return out, nil
}

type transformer struct {
	expander  FolderExpander
	mapper    PropertyMapper
	folderRef queryir.PropertyRef
}

func (t *transformer) mapRef(r queryir.PropertyRef) queryir.PropertyRef {
	if !r.Resolved() {
		return r
	}
	r.Column = t.mapper.TranslateProperty(r.Column)
	return r
}

func (t *transformer) node(ctx context.Context, n queryir.Node) (queryir.Node, error) {
	switch node := n.(type) {
	case queryir.Conjunction:
		left, err := t.node(ctx, node.Left)
		if err != nil {
			return nil, err
		}
		right, err := t.node(ctx, node.Right)
		if err != nil {
			return nil, err
		}
		return queryir.Conjunction{Left: left, Op: node.Op, Right: right}, nil
	case queryir.Compare:
		if node.IsPath() {
			return t.path(ctx, node)
		}
		return queryir.Compare{Property: t.mapRef(node.Property), Op: node.Op, Value: node.Value}, nil
	default:
		return n, nil
	}
}

func (t *transformer) path(ctx context.Context, c queryir.Compare) (queryir.Node, error) {
	if c.Op != queryir.OpEq && c.Op != queryir.OpLike {
		return nil, &UnsupportedError{Property: c.Property.Name, Op: c.Op, Reason: "paths support = and like"}
	}
	lit, ok := c.Value.(queryir.Literal)
	if !ok {
		return nil, &UnsupportedError{Property: c.Property.Name, Op: c.Op, Reason: "expected a path literal"}
	}
	path, ok := lit.Value.(ir.IRString)
	if !ok {
		return nil, &UnsupportedError{Property: c.Property.Name, Op: c.Op, Reason: "path must be a string, got " + ir.Format(lit.Value)}
	}
	if t.expander == nil {
		return nil, &ExpandError{Path: string(path), Err: ErrNoExpander}
	}

	// the expander takes LIKE patterns; an exact path matches only itself
	pattern := string(path)
	if c.Op == queryir.OpEq {
		pattern = queryir.EscapeLike(pattern)
	}

	ids, err := t.expander.ExpandPath(ctx, pattern)
	if err != nil {
		return nil, &ExpandError{Path: string(path), Err: err}
	}
	if len(ids) == 0 {
		return queryir.BooleanLiteral{Value: false}, nil
	}

	ids = slices.Clone(ids)
	slices.Sort(ids)
	return queryir.Compare{
		Property: t.mapRef(t.folderRef),
		Op:       queryir.OpIn,
		Value:    queryir.IDList{IDs: slices.Compact(ids)},
	}, nil
}

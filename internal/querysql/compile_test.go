package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jcrq/internal/ir"
	"github.com/roach88/jcrq/internal/queryir"
)

func col(alias, column, sqlType string) queryir.PropertyRef {
	return queryir.PropertyRef{Name: alias + "." + column, Alias: alias, Column: column, SQLType: sqlType}
}

func cmpRef(r queryir.PropertyRef, op queryir.CompareOp, v queryir.Operand) queryir.Compare {
	return queryir.Compare{Property: r, Op: op, Value: v}
}

var (
	folderCol = col("f", "owner_id", "INTEGER")
	typeCol   = col("cs", "m_contentTypeId", "INTEGER")
	colA      = col("c0", "A", "VARCHAR")
	colB      = col("c0", "B", "VARCHAR")
	colBody   = col("c0", "BODY", "CLOB")
)

// exampleTree is the transformed form of
// jcr:path like '/sites/x/%' and (jcr:primaryType = 'T' and A <> 'v' or B = 'w').
func exampleTree(folders queryir.Node) queryir.Node {
	return queryir.AndOf(
		folders,
		queryir.OrOf(
			queryir.AndOf(
				cmpRef(typeCol, queryir.OpEq, queryir.Int(311)),
				cmpRef(colA, queryir.OpNe, queryir.Str("v")),
			),
			cmpRef(colB, queryir.OpEq, queryir.Str("w")),
		),
	)
}

func TestGenerate_PathFound(t *testing.T) {
	q := queryir.Query{
		SourceType: "nt:base",
		Predicate:  exampleTree(cmpRef(folderCol, queryir.OpIn, queryir.IDList{IDs: []int64{301, 302}})),
	}

	res, err := NewSQLCompiler(false).Generate(q)
	require.NoError(t, err)

	assert.Equal(t, "(f.owner_id in (301,302) AND ((cs.m_contentTypeId = :p0 AND c0.A != :p1) OR c0.B = :p2))", res.Where)
	assert.Equal(t, []any{int64(311), "v", "w"}, res.Params)
	assert.False(t, res.NoMatch)
}

func TestGenerate_PathNotFound(t *testing.T) {
	q := queryir.Query{Predicate: exampleTree(queryir.BooleanLiteral{Value: false})}

	res, err := NewSQLCompiler(false).Generate(q)
	require.NoError(t, err)

	assert.Equal(t, "", res.Where)
	assert.Empty(t, res.Params)
	assert.True(t, res.NoMatch)
}

func TestGenerate_Folding(t *testing.T) {
	a := cmpRef(colA, queryir.OpEq, queryir.Str("a"))
	b := cmpRef(colB, queryir.OpEq, queryir.Str("b"))
	f := queryir.BooleanLiteral{Value: false}
	tr := queryir.BooleanLiteral{Value: true}

	testCases := []struct {
		name    string
		tree    queryir.Node
		where   string
		params  []any
		noMatch bool
	}{
		{"false under or", queryir.OrOf(f, a), "c0.A = :p0", []any{"a"}, false},
		{"false on right of or", queryir.OrOf(a, f), "c0.A = :p0", []any{"a"}, false},
		{"false under nested and", queryir.OrOf(queryir.AndOf(a, f), b), "c0.B = :p0", []any{"b"}, false},
		{"true under and", queryir.AndOf(tr, a), "c0.A = :p0", []any{"a"}, false},
		{"true under or", queryir.OrOf(a, tr), TrueClause, nil, false},
		{"false root", f, "", nil, true},
		{"both branches false", queryir.OrOf(queryir.AndOf(a, f), f), "", nil, true},
		{"empty id list", queryir.AndOf(a, cmpRef(folderCol, queryir.OpIn, queryir.IDList{})), "", nil, true},
		{"no predicate", nil, TrueClause, nil, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := NewSQLCompiler(false).Generate(queryir.Query{Predicate: tc.tree})
			require.NoError(t, err)
			assert.Equal(t, tc.where, res.Where)
			assert.Equal(t, tc.params, res.Params)
			assert.Equal(t, tc.noMatch, res.NoMatch)
		})
	}
}

func TestGenerate_Operators(t *testing.T) {
	intCol := col("c0", "WIDTH", "INTEGER")

	testCases := []struct {
		name   string
		node   queryir.Compare
		where  string
		params []any
	}{
		{"like", cmpRef(colA, queryir.OpLike, queryir.Str("foo%bar")), "upper(c0.A) like upper(:p0)", []any{"foo%bar"}},
		{"not like", cmpRef(colA, queryir.OpNotLike, queryir.Str("x%")), "upper(c0.A) not like upper(:p0)", []any{"x%"}},
		{"like on number", cmpRef(intCol, queryir.OpLike, queryir.Str("1%")), "c0.WIDTH like :p0", []any{"1%"}},
		{"less or equal", cmpRef(intCol, queryir.OpLe, queryir.Int(10)), "c0.WIDTH <= :p0", []any{int64(10)}},
		{"greater", cmpRef(intCol, queryir.OpGt, queryir.Int(-1)), "c0.WIDTH > :p0", []any{int64(-1)}},
		{"boolean", cmpRef(colA, queryir.OpEq, queryir.Literal{Value: ir.IRBool(true)}), "c0.A = :p0", []any{true}},
		{"literal list", cmpRef(colA, queryir.OpIn, queryir.LiteralList{Values: []ir.IRValue{ir.IRString("x"), ir.IRString("y")}}), "c0.A in (:p0, :p1)", []any{"x", "y"}},
		{"id list", cmpRef(typeCol, queryir.OpIn, queryir.IDList{IDs: []int64{311, 312}}), "cs.m_contentTypeId in (311,312)", nil},
		{"is null", cmpRef(colA, queryir.OpIsNull, nil), "c0.A is null", nil},
		{"is not null", cmpRef(colA, queryir.OpIsNotNull, nil), "c0.A is not null", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := NewSQLCompiler(false).Generate(queryir.Query{Predicate: tc.node})
			require.NoError(t, err)
			assert.Equal(t, tc.where, res.Where)
			assert.Equal(t, tc.params, res.Params)
		})
	}
}

func TestGenerate_Derby(t *testing.T) {
	testCases := []struct {
		name  string
		node  queryir.Compare
		where string
	}{
		{"like escape", cmpRef(colA, queryir.OpLike, queryir.Str("a%")), `upper(c0.A) like upper(:p0) escape '\'`},
		{"clob like", cmpRef(colBody, queryir.OpLike, queryir.Str("a%")), `upper(cast(c0.BODY as varchar(32672))) like upper(:p0) escape '\'`},
		{"clob equals", cmpRef(colBody, queryir.OpEq, queryir.Str("a")), "cast(c0.BODY as varchar(32672)) = :p0"},
		{"varchar equals", cmpRef(colA, queryir.OpEq, queryir.Str("a")), "c0.A = :p0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := NewSQLCompiler(true).Generate(queryir.Query{Predicate: tc.node})
			require.NoError(t, err)
			assert.Equal(t, tc.where, res.Where)
		})
	}

	res, err := NewSQLCompiler(false).Generate(queryir.Query{Predicate: cmpRef(colBody, queryir.OpLike, queryir.Str("a%"))})
	require.NoError(t, err)
	assert.Equal(t, "upper(c0.BODY) like upper(:p0)", res.Where)
}

func TestGenerate_NoStringInterpolation(t *testing.T) {
	dangerousValue := "'; DROP TABLE CONTENTSTATUS; --"

	res, err := NewSQLCompiler(false).Generate(queryir.Query{
		Predicate: cmpRef(colA, queryir.OpEq, queryir.Str(dangerousValue)),
	})
	require.NoError(t, err)

	assert.NotContains(t, res.Where, dangerousValue)
	assert.Contains(t, res.Params, dangerousValue)
}

func TestGenerate_ParameterOrder(t *testing.T) {
	// ((A = 1 OR B = 2) AND (A = 3 OR (B = 4 AND A = 5)))
	n := func(r queryir.PropertyRef, v int64) queryir.Compare { return cmpRef(r, queryir.OpEq, queryir.Int(v)) }
	tree := queryir.AndOf(
		queryir.OrOf(n(colA, 1), n(colB, 2)),
		queryir.OrOf(n(colA, 3), queryir.AndOf(n(colB, 4), n(colA, 5))),
	)

	res, err := NewSQLCompiler(false).Generate(queryir.Query{Predicate: tree})
	require.NoError(t, err)

	assert.Equal(t, "((c0.A = :p0 OR c0.B = :p1) AND (c0.A = :p2 OR (c0.B = :p3 AND c0.A = :p4)))", res.Where)
	assert.Equal(t, []any{int64(1), int64(2), int64(3), int64(4), int64(5)}, res.Params)
}

func TestGenerate_ColumnsAndOrder(t *testing.T) {
	q := queryir.Query{
		Columns:   []queryir.PropertyRef{colA, colB},
		Predicate: cmpRef(colA, queryir.OpEq, queryir.Str("x")),
		OrderBy: []queryir.OrderSpec{
			{Property: colB, Direction: queryir.Descending},
			{Property: colA, Direction: queryir.Ascending},
		},
	}

	res, err := NewSQLCompiler(false).Generate(q)
	require.NoError(t, err)

	assert.Equal(t, []string{"c0.A", "c0.B"}, res.Columns)
	assert.Equal(t, "c0.B DESC, c0.A ASC", res.OrderByClause())
}

func TestGenerate_RejectsUntransformedTree(t *testing.T) {
	testCases := []struct {
		name string
		tree queryir.Node
	}{
		{"symbolic property", queryir.Cmp("rx:title", queryir.OpEq, queryir.Str("x"))},
		{"path predicate", queryir.Cmp(queryir.PathProperty, queryir.OpLike, queryir.Str("/a/%"))},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := NewSQLCompiler(false).Generate(queryir.Query{Predicate: tc.tree})
			require.Error(t, err)
			assert.Empty(t, res.Where)
		})
	}
}

func TestFold_PreservesShape(t *testing.T) {
	a := cmpRef(colA, queryir.OpEq, queryir.Str("a"))
	b := cmpRef(colB, queryir.OpEq, queryir.Str("b"))
	tree := queryir.OrOf(queryir.AndOf(a, b), a)

	assert.Equal(t, queryir.Node(tree), Fold(tree))
	assert.Nil(t, Fold(nil))
}

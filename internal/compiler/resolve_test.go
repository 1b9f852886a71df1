package compiler

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jcrq/internal/ir"
	"github.com/roach88/jcrq/internal/queryir"
	"github.com/roach88/jcrq/internal/testutil"
	"github.com/roach88/jcrq/internal/typeconf"
)

func view(t *testing.T, name string) typeconf.TypeConfiguration {
	t.Helper()
	cfg, ok := testutil.Catalog().Lookup(name)
	require.True(t, ok, "fixture type %s", name)
	return cfg
}

func TestResolve(t *testing.T) {
	q := queryir.Query{
		Columns:    []queryir.PropertyRef{queryir.Prop("rx:title")},
		SourceType: "rx:page",
		Predicate: queryir.AndOf(
			queryir.Cmp(queryir.PathProperty, queryir.OpLike, queryir.Str("/sites/%")),
			queryir.OrOf(
				queryir.Cmp(queryir.PrimaryTypeProperty, queryir.OpEq, queryir.Str("rx:page")),
				queryir.Cmp("rx:title", queryir.OpLike, queryir.Str("a%")),
			),
		),
		OrderBy: []queryir.OrderSpec{{Property: queryir.Prop("rx:sys_title"), Direction: queryir.Descending}},
	}

	got, err := Resolve(q, view(t, "rx:page"))
	require.NoError(t, err)

	title := queryir.PropertyRef{Name: "rx:title", Alias: "c0", Column: "TITLE", SQLType: "VARCHAR"}
	want := queryir.Query{
		Columns:    []queryir.PropertyRef{title},
		SourceType: "rx:page",
		Predicate: queryir.AndOf(
			queryir.Cmp(queryir.PathProperty, queryir.OpLike, queryir.Str("/sites/%")),
			queryir.OrOf(
				queryir.Compare{
					Property: queryir.PropertyRef{Name: queryir.PrimaryTypeProperty, Alias: "cs", Column: "m_contentTypeId", SQLType: "INTEGER"},
					Op:       queryir.OpEq,
					Value:    queryir.Int(testutil.PageTypeID),
				},
				queryir.Compare{Property: title, Op: queryir.OpLike, Value: queryir.Str("a%")},
			),
		),
		OrderBy: []queryir.OrderSpec{{
			Property:  queryir.PropertyRef{Name: "rx:sys_title", Alias: "cs", Column: "TITLE", SQLType: "VARCHAR"},
			Direction: queryir.Descending,
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("resolved query mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, queryir.Validate(got, queryir.StageResolved).Valid)

	// input untouched
	assert.Equal(t, "rx:title", q.Columns[0].Name)
	assert.False(t, q.Columns[0].Resolved())
}

func TestResolvePrimaryTypeIn(t *testing.T) {
	q := queryir.Query{
		SourceType: "nt:base",
		Predicate: queryir.Cmp(queryir.PrimaryTypeProperty, queryir.OpIn, queryir.LiteralList{
			Values: []ir.IRValue{ir.IRString("rx:image"), ir.IRString("rx:page"), ir.IRString("rx:image")},
		}),
	}

	got, err := Resolve(q, view(t, "nt:base"))
	require.NoError(t, err)
	assert.Equal(t, "qn-compare(cs.m_contentTypeId,in,(311,312))", queryir.Format(got.Predicate))
}

func TestResolvePrimaryTypeBase(t *testing.T) {
	testCases := []struct {
		name  string
		op    queryir.CompareOp
		value queryir.Operand
		want  string
	}{
		{"equal", queryir.OpEq, queryir.Str("nt:base"), "qn-bool(true)"},
		{"not equal", queryir.OpNe, queryir.Str("nt:base"), "qn-bool(false)"},
		{"in list", queryir.OpIn, queryir.LiteralList{Values: []ir.IRValue{ir.IRString("rx:page"), ir.IRString("nt:base")}}, "qn-bool(true)"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q := queryir.Query{
				SourceType: "rx:page",
				Predicate:  queryir.Cmp(queryir.PrimaryTypeProperty, tc.op, tc.value),
			}
			got, err := Resolve(q, view(t, "rx:page"))
			require.NoError(t, err)
			assert.Equal(t, tc.want, queryir.Format(got.Predicate))
		})
	}
}

func TestResolveErrors(t *testing.T) {
	testCases := []struct {
		name  string
		query queryir.Query
		check func(error) bool
		text  string
	}{
		{
			name:  "unknown property",
			query: queryir.Query{SourceType: "rx:page", Predicate: queryir.Cmp("rx:nope", queryir.OpEq, queryir.Str("x"))},
			check: IsUnresolvedProperty,
			text:  `"rx:nope"`,
		},
		{
			name:  "unknown order by property",
			query: queryir.Query{SourceType: "rx:page", OrderBy: []queryir.OrderSpec{{Property: queryir.Prop("rx:nope"), Direction: queryir.Ascending}}},
			check: IsUnresolvedProperty,
			text:  `"rx:nope"`,
		},
		{
			name:  "property of another type",
			query: queryir.Query{SourceType: "rx:image", Predicate: queryir.Cmp("rx:title", queryir.OpEq, queryir.Str("x"))},
			check: IsUnresolvedProperty,
			text:  `"rx:image"`,
		},
		{
			name:  "unknown content type",
			query: queryir.Query{SourceType: "rx:page", Predicate: queryir.Cmp(queryir.PrimaryTypeProperty, queryir.OpEq, queryir.Str("rx:nope"))},
			check: IsUnresolvedType,
			text:  `"rx:nope"`,
		},
		{
			name:  "like on content type",
			query: queryir.Query{SourceType: "rx:page", Predicate: queryir.Cmp(queryir.PrimaryTypeProperty, queryir.OpLike, queryir.Str("rx:%"))},
			check: IsUnsupported,
			text:  "like",
		},
		{
			name:  "numeric content type",
			query: queryir.Query{SourceType: "rx:page", Predicate: queryir.Cmp(queryir.PrimaryTypeProperty, queryir.OpEq, queryir.Int(311))},
			check: IsUnsupported,
			text:  "311",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Resolve(tc.query, view(t, tc.query.SourceType))
			require.Error(t, err)
			assert.True(t, tc.check(err), "unexpected error type %T: %v", err, err)
			assert.Contains(t, err.Error(), tc.text)
			assert.Nil(t, got.Predicate)
		})
	}
}

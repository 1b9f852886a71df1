package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jcrq/internal/store"
)

func sampleOutcomes() []Outcome {
	return []Outcome{
		{
			Case: "sql", Syntax: "sql",
			Where: "(f.owner_id in (301,302) AND c0.A = :p0)", Params: []any{"v"},
			Fingerprint: "fp-1", Expanded: []string{"/sites/x/%"},
			Rows: []store.Row{{"TITLE": "Home", "CONTENTID": int64(1)}},
		},
		{
			Case: "xpath", Syntax: "xpath",
			Where: "(f.owner_id in (301,302) AND c0.A = :p0)", Params: []any{"v"},
			Fingerprint: "fp-1", Expanded: []string{"/sites/x/%"},
		},
		{
			Case: "other", Syntax: "sql",
			Where: "c0.B = :p0", Params: []any{"w"},
			Fingerprint: "fp-2", Expanded: []string{},
		},
		{
			Case: "broken", Syntax: "sql", Params: []any{}, Expanded: []string{},
			Error: KindSyntax, Message: "parse: syntax error",
		},
	}
}

func TestAssertSameSQL(t *testing.T) {
	outcomes := sampleOutcomes()

	assert.NoError(t, assertSameSQL(outcomes, Assertion{Type: AssertSameSQL, Cases: []string{"sql", "xpath"}}))

	err := assertSameSQL(outcomes, Assertion{Type: AssertSameSQL, Cases: []string{"sql", "other"}})
	require.Error(t, err)
	assertErr, ok := err.(*AssertionError)
	require.True(t, ok)
	assert.Equal(t, AssertSameSQL, assertErr.Type)
	assert.Contains(t, assertErr.Actual, "c0.B = :p0")

	err = assertSameSQL(outcomes, Assertion{Type: AssertSameSQL, Cases: []string{"sql", "broken"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "case broken to compile")
}

func TestAssertWhereContains(t *testing.T) {
	outcomes := sampleOutcomes()

	assert.NoError(t, assertWhereContains(outcomes, Assertion{Type: AssertWhereContains, Case: "sql", Text: "in (301,302)"}))

	err := assertWhereContains(outcomes, Assertion{Type: AssertWhereContains, Case: "other", Text: "owner_id"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected: where of other to contain")
}

func TestAssertExpanded(t *testing.T) {
	outcomes := sampleOutcomes()

	assert.NoError(t, assertExpanded(outcomes, Assertion{Type: AssertExpanded, Path: "/sites/x/%"}))
	assert.NoError(t, assertExpanded(outcomes, Assertion{Type: AssertExpanded, Case: "xpath", Path: "/sites/x/%"}))

	err := assertExpanded(outcomes, Assertion{Type: AssertExpanded, Case: "other", Path: "/sites/x/%"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "other to expand")

	err = assertExpanded(outcomes, Assertion{Type: AssertExpanded, Path: "/nowhere"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "any case to expand")
}

func TestAssertParamCount(t *testing.T) {
	outcomes := sampleOutcomes()

	assert.NoError(t, assertParamCount(outcomes, Assertion{Type: AssertParamCount, Case: "sql", Count: 1}))

	err := assertParamCount(outcomes, Assertion{Type: AssertParamCount, Case: "sql", Count: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Actual: 1 parameters")

	err = assertParamCount(outcomes, Assertion{Type: AssertParamCount, Case: "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown case "missing"`)
}

func TestAssertRows(t *testing.T) {
	outcomes := sampleOutcomes()

	testCases := []struct {
		name    string
		rows    []map[string]any
		wantErr string
	}{
		{"subset match", []map[string]any{{"TITLE": "Home"}}, ""},
		{"int matches int64", []map[string]any{{"CONTENTID": 1}}, ""},
		{"wrong count", []map[string]any{}, "0 rows from sql"},
		{"wrong value", []map[string]any{{"TITLE": "News"}}, `"TITLE" = News`},
		{"missing column", []map[string]any{{"BODY": "x"}}, `column "BODY" to exist`},
		{"wrong type", []map[string]any{{"CONTENTID": "1"}}, "type string"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := assertRows(outcomes, Assertion{Type: AssertRows, Case: "sql", Rows: tc.rows})
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}

	// cases without rows, e.g. no match, compare as empty
	assert.NoError(t, assertRows(outcomes, Assertion{Type: AssertRows, Case: "xpath", Rows: []map[string]any{}}))
}

func TestStateValuesEqual(t *testing.T) {
	testCases := []struct {
		expected any
		actual   any
		want     bool
	}{
		{nil, nil, true},
		{nil, "x", false},
		{"a", "a", true},
		{"a", "b", false},
		{1, int64(1), true},
		{1, 1, true},
		{int64(2), int64(2), true},
		{int64(2), 2, false},
		{true, int64(1), true},
		{false, int64(1), false},
		{true, true, true},
		{[]any{"a"}, []any{"a"}, true},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, stateValuesEqual(tc.expected, tc.actual), "%#v vs %#v", tc.expected, tc.actual)
	}
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertParamCount,
		Expected: "2 parameters in sql",
		Actual:   "1 parameters",
		Outcomes: sampleOutcomes(),
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: param_count")
	assert.Contains(t, msg, "[1] sql: (f.owner_id in (301,302) AND c0.A = :p0) [v]")
	assert.Contains(t, msg, "[4] broken: syntax error")
}

func TestEvaluateAssertions(t *testing.T) {
	result := NewResult()
	for _, o := range sampleOutcomes() {
		result.AddOutcome(o)
	}

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertSameSQL, Cases: []string{"sql", "xpath"}},
		{Type: AssertParamCount, Case: "other", Count: 3},
		{Type: "bogus"},
	})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "param_count")
	assert.Contains(t, errs[1], `unknown assertion type "bogus"`)
}

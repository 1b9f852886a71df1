package harness

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes the case outcomes for debugging context.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Outcomes []Outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Outcomes) > 0 {
		fmt.Fprintf(&buf, "\nOutcomes:\n")
		for i, o := range e.Outcomes {
			if o.Failed() {
				fmt.Fprintf(&buf, "  [%d] %s: %s error\n", i+1, o.Case, o.Error)
				continue
			}
			fmt.Fprintf(&buf, "  [%d] %s: %s %v\n", i+1, o.Case, o.Where, o.Params)
		}
	}
	return buf.String()
}

// assertSameSQL checks that every listed case compiled to the same
// fingerprint, the digest of WHERE clause, parameters and ordering.
func assertSameSQL(outcomes []Outcome, a Assertion) error {
	var first Outcome
	for i, name := range a.Cases {
		o, err := compiledOutcome(outcomes, a.Type, name)
		if err != nil {
			return err
		}
		if i == 0 {
			first = o
			continue
		}
		if o.Fingerprint != first.Fingerprint {
			return &AssertionError{
				Type:     AssertSameSQL,
				Expected: fmt.Sprintf("%s to compile like %s: %s %v", name, first.Case, first.Where, first.Params),
				Actual:   fmt.Sprintf("%s %v", o.Where, o.Params),
				Outcomes: outcomes,
			}
		}
	}
	return nil
}

// assertWhereContains checks that a case's WHERE clause contains text.
func assertWhereContains(outcomes []Outcome, a Assertion) error {
	o, err := compiledOutcome(outcomes, a.Type, a.Case)
	if err != nil {
		return err
	}
	if !strings.Contains(o.Where, a.Text) {
		return &AssertionError{
			Type:     AssertWhereContains,
			Expected: fmt.Sprintf("where of %s to contain %q", a.Case, a.Text),
			Actual:   o.Where,
			Outcomes: outcomes,
		}
	}
	return nil
}

// assertExpanded checks that the folder index was asked to expand a path,
// by one case or by any.
func assertExpanded(outcomes []Outcome, a Assertion) error {
	for _, o := range outcomes {
		if a.Case != "" && o.Case != a.Case {
			continue
		}
		if slices.Contains(o.Expanded, a.Path) {
			return nil
		}
	}

	scope := "any case"
	if a.Case != "" {
		scope = a.Case
	}
	return &AssertionError{
		Type:     AssertExpanded,
		Expected: fmt.Sprintf("%s to expand %q", scope, a.Path),
		Actual:   "path not expanded",
		Outcomes: outcomes,
	}
}

// assertParamCount checks the number of bind parameters of a case.
func assertParamCount(outcomes []Outcome, a Assertion) error {
	o, err := compiledOutcome(outcomes, a.Type, a.Case)
	if err != nil {
		return err
	}
	if len(o.Params) != a.Count {
		return &AssertionError{
			Type:     AssertParamCount,
			Expected: fmt.Sprintf("%d parameters in %s", a.Count, a.Case),
			Actual:   fmt.Sprintf("%d parameters", len(o.Params)),
			Outcomes: outcomes,
		}
	}
	return nil
}

// assertRows checks the rows returned by executing a case. Rows must
// match in number and order; each expected row is a subset of its
// actual row. A case with no match returns no rows.
func assertRows(outcomes []Outcome, a Assertion) error {
	o, err := compiledOutcome(outcomes, a.Type, a.Case)
	if err != nil {
		return err
	}
	if len(o.Rows) != len(a.Rows) {
		return &AssertionError{
			Type:     AssertRows,
			Expected: fmt.Sprintf("%d rows from %s", len(a.Rows), a.Case),
			Actual:   fmt.Sprintf("%d rows: %v", len(o.Rows), o.Rows),
			Outcomes: outcomes,
		}
	}

	for i, expected := range a.Rows {
		actual := o.Rows[i]
		for key, want := range expected {
			got, exists := actual[key]
			if !exists {
				return &AssertionError{
					Type:     AssertRows,
					Expected: fmt.Sprintf("row %d column %q to exist", i, key),
					Actual:   fmt.Sprintf("columns: %v", columnNames(actual)),
					Outcomes: outcomes,
				}
			}
			if !stateValuesEqual(want, got) {
				return &AssertionError{
					Type:     AssertRows,
					Expected: fmt.Sprintf("row %d %q = %v (type %T)", i, key, want, want),
					Actual:   fmt.Sprintf("row %d %q = %v (type %T)", i, key, got, got),
					Outcomes: outcomes,
				}
			}
		}
	}
	return nil
}

func compiledOutcome(outcomes []Outcome, assertion, name string) (Outcome, error) {
	for _, o := range outcomes {
		if o.Case != name {
			continue
		}
		if o.Failed() {
			return o, &AssertionError{
				Type:     assertion,
				Expected: fmt.Sprintf("case %s to compile", name),
				Actual:   fmt.Sprintf("%s error: %s", o.Error, o.Message),
				Outcomes: outcomes,
			}
		}
		return o, nil
	}
	return Outcome{}, fmt.Errorf("%s: unknown case %q", assertion, name)
}

func columnNames(row map[string]any) []string {
	names := make([]string, 0, len(row))
	for k := range row {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// stateValuesEqual compares a YAML-decoded expected value with a value
// scanned from SQLite, which returns integers as int64.
func stateValuesEqual(expected, actual any) bool {
	if expected == nil && actual == nil {
		return true
	}
	if expected == nil || actual == nil {
		return false
	}

	switch exp := expected.(type) {
	case string:
		if actualStr, ok := actual.(string); ok {
			return exp == actualStr
		}
		return false
	case int:
		if actualInt, ok := actual.(int64); ok {
			return int64(exp) == actualInt
		}
		if actualInt, ok := actual.(int); ok {
			return exp == actualInt
		}
		return false
	case int64:
		if actualInt, ok := actual.(int64); ok {
			return exp == actualInt
		}
		return false
	case bool:
		if actualBool, ok := actual.(bool); ok {
			return exp == actualBool
		}
		// SQLite stores booleans as integers
		if actualInt, ok := actual.(int64); ok {
			return exp == (actualInt != 0)
		}
		return false
	}

	return reflect.DeepEqual(expected, actual)
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertSameSQL:
			err = assertSameSQL(result.Outcomes, assertion)
		case AssertWhereContains:
			err = assertWhereContains(result.Outcomes, assertion)
		case AssertExpanded:
			err = assertExpanded(result.Outcomes, assertion)
		case AssertParamCount:
			err = assertParamCount(result.Outcomes, assertion)
		case AssertRows:
			err = assertRows(result.Outcomes, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/jcrq/internal/ir"
)

// Snapshot captures the outcomes of a scenario for golden comparison.
// Compile ids, fingerprints and error messages are left out so the
// snapshot only changes when the generated SQL does.
type Snapshot struct {
	ScenarioName string
	Outcomes     []Outcome
}

// toCanonicalMap converts a Snapshot to a map for canonical JSON.
func (s *Snapshot) toCanonicalMap() map[string]any {
	outcomes := make([]any, len(s.Outcomes))
	for i, o := range s.Outcomes {
		expanded := make([]any, len(o.Expanded))
		for j, path := range o.Expanded {
			expanded[j] = path
		}
		m := map[string]any{
			"case":     o.Case,
			"expanded": expanded,
		}
		if o.Syntax != "" {
			m["syntax"] = o.Syntax
		}
		if o.Failed() {
			m["error"] = o.Error
		} else {
			m["where"] = o.Where
			m["params"] = o.Params
			m["no_match"] = o.NoMatch
			if o.SQL != "" {
				m["sql"] = o.SQL
			}
		}
		outcomes[i] = m
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"outcomes":      outcomes,
	}
}

// Marshal renders the snapshot as canonical JSON.
func (s *Snapshot) Marshal() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its outcomes against
// testdata/golden/{scenario.Name}.golden. Expectation and assertion
// failures fail the test as well.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := Snapshot{
		ScenarioName: scenarioName,
		Outcomes:     result.Outcomes,
	}
	data, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}

package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/jcrq/internal/parser"
)

// Scenario defines a compile conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Types is the CUE type configuration file or directory.
	Types string `yaml:"types"`

	// Folders is a YAML folder fixture indexed before the cases run.
	Folders string `yaml:"folders,omitempty"`

	// Content is a SQL script creating and filling content tables.
	// Required by rows assertions.
	Content string `yaml:"content,omitempty"`

	// Cases are compiled in order.
	Cases []Case `yaml:"cases"`

	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Case is one query to compile.
type Case struct {
	Name string `yaml:"name"`

	// Syntax is sql or xpath. Empty detects it from the query.
	Syntax string `yaml:"syntax,omitempty"`

	Query string `yaml:"query"`

	// Expect validates the compilation. If nil, the case must compile.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected compilation.
type ExpectClause struct {
	// Where is the expected WHERE clause, empty for no match.
	Where *string `yaml:"where,omitempty"`

	// Params are the expected bind values. Checked when present, so
	// "params: []" asserts there are none.
	Params []any `yaml:"params,omitempty"`

	NoMatch bool `yaml:"no_match,omitempty"`

	// Error is the expected error kind; see ErrorKind.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates outcomes across cases.
type Assertion struct {
	Type string `yaml:"type"`

	// Case is the case name (where_contains, expanded, param_count, rows).
	// For expanded it may be empty to search every case.
	Case string `yaml:"case,omitempty"`

	// Cases are the case names compared by same_sql.
	Cases []string `yaml:"cases,omitempty"`

	// Text is the expected WHERE fragment (where_contains).
	Text string `yaml:"text,omitempty"`

	// Path is the expected folder lookup (expanded).
	Path string `yaml:"path,omitempty"`

	// Count is the expected number of parameters (param_count).
	Count int `yaml:"count,omitempty"`

	// Rows are the expected result rows (rows). Subset match per row.
	Rows []map[string]any `yaml:"rows,omitempty"`
}

// Assertion type constants.
const (
	AssertSameSQL       = "same_sql"
	AssertWhereContains = "where_contains"
	AssertExpanded      = "expanded"
	AssertParamCount    = "param_count"
	AssertRows          = "rows"
)

// LoadScenario reads and parses a scenario YAML file. Relative paths are
// resolved against the file's directory. Unknown fields are errors.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving relative paths against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	for _, p := range []*string{&scenario.Types, &scenario.Folders, &scenario.Content} {
		if *p != "" && !filepath.IsAbs(*p) && basePath != "" {
			*p = filepath.Join(basePath, *p)
		}
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario decodes scenario YAML without validating file references.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Types == "" {
		return fmt.Errorf("types is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	for _, p := range []string{s.Types, s.Folders, s.Content} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", p)
		}
	}

	names := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if names[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		names[c.Name] = true

		if c.Query == "" {
			return fmt.Errorf("cases[%d]: query is required", i)
		}
		if c.Syntax != "" && !slices.Contains(parser.ValidSyntaxes, parser.Syntax(c.Syntax)) {
			return fmt.Errorf("cases[%d]: unknown syntax %q", i, c.Syntax)
		}
		if c.Expect != nil && c.Expect.Error != "" && !slices.Contains(errorKinds, c.Expect.Error) {
			return fmt.Errorf("cases[%d].expect: unknown error kind %q: must be one of %v", i, c.Expect.Error, errorKinds)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a, names, s.Content != ""); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, cases map[string]bool, hasContent bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	needCase := func() error {
		if a.Case == "" {
			return fmt.Errorf("assertions[%d]: case is required for %s", index, a.Type)
		}
		if !cases[a.Case] {
			return fmt.Errorf("assertions[%d]: unknown case %q", index, a.Case)
		}
		return nil
	}

	switch a.Type {
	case AssertSameSQL:
		if len(a.Cases) < 2 {
			return fmt.Errorf("assertions[%d]: at least two cases are required for same_sql", index)
		}
		for _, name := range a.Cases {
			if !cases[name] {
				return fmt.Errorf("assertions[%d]: unknown case %q", index, name)
			}
		}
	case AssertWhereContains:
		if err := needCase(); err != nil {
			return err
		}
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for where_contains", index)
		}
	case AssertExpanded:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for expanded", index)
		}
		if a.Case != "" && !cases[a.Case] {
			return fmt.Errorf("assertions[%d]: unknown case %q", index, a.Case)
		}
	case AssertParamCount:
		if err := needCase(); err != nil {
			return err
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for param_count", index)
		}
	case AssertRows:
		if err := needCase(); err != nil {
			return err
		}
		if a.Rows == nil {
			return fmt.Errorf("assertions[%d]: rows is required for rows (use [] for none)", index)
		}
		if !hasContent {
			return fmt.Errorf("assertions[%d]: rows requires a content script", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

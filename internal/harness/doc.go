// Package harness runs compile conformance scenarios.
//
// A scenario names a CUE type configuration, an optional folder fixture
// and an optional SQL script that creates content tables. Each case
// compiles one query against a fresh in-memory folder index and checks
// the generated WHERE clause, parameters and errors. Assertions then look
// across cases: equivalent queries in both syntaxes, folder lookups and
// rows returned by executing the compiled statement.
//
// # Scenario Format
//
//	name: page_by_folder
//	description: "Pages below /sites/x whose title mentions news"
//	types: ../catalog
//	folders: ../folders.yaml
//	content: ../content.sql
//	cases:
//	  - name: sql
//	    syntax: sql
//	    query: "SELECT rx:title FROM rx:page WHERE jcr:path LIKE '/sites/x/%'"
//	    expect:
//	      where: "f.owner_id in (301,302)"
//	      params: []
//	assertions:
//	  - type: same_sql
//	    cases: [sql, xpath]
//	  - type: rows
//	    case: sql
//	    rows:
//	      - TITLE: Latest News
//
// Paths are relative to the scenario file. A case without a syntax has it
// detected from the query text.
//
// # Assertion Types
//
//   - same_sql: the listed cases compile to the same fingerprint
//   - where_contains: a case's WHERE clause contains text
//   - expanded: the folder index was asked to expand path
//   - param_count: a case binds exactly count parameters
//   - rows: executing a case returns exactly rows, each matched as a subset
//
// # Golden Files
//
// RunWithGolden compares the case outcomes against
// testdata/golden/{name}.golden in canonical JSON. Regenerate with:
//
//	go test ./internal/harness -update
package harness

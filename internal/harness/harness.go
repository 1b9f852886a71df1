package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"
	"slices"
	"sync"

	"github.com/roach88/jcrq/internal/compiler"
	"github.com/roach88/jcrq/internal/ir"
	"github.com/roach88/jcrq/internal/parser"
	"github.com/roach88/jcrq/internal/store"
	"github.com/roach88/jcrq/internal/typeconf"
)

// Harness is the scenario execution engine.
type Harness struct {
	store    *store.Store
	compiler *compiler.Compiler
	expander *recordingExpander
	logger   *slog.Logger
	execute  bool
}

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	logger *slog.Logger
}

// WithLogger logs compilations to l. Logs are discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) { c.logger = l }
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory folder index:
// 1. Load the type configuration
// 2. Index the folder fixture and run the content script
// 3. Compile every case, checking its expect clause
// 4. Evaluate assertions across the outcomes
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	catalog, err := typeconf.Load(scenario.Types)
	if err != nil {
		return nil, fmt.Errorf("failed to load types: %w", err)
	}

	st, err := store.Open(ctx, store.MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if scenario.Folders != "" {
		folders, err := store.LoadFolderFile(scenario.Folders)
		if err != nil {
			return nil, err
		}
		if err := st.ImportFolders(ctx, folders); err != nil {
			return nil, fmt.Errorf("failed to index folders: %w", err)
		}
	}

	if scenario.Content != "" {
		script, err := os.ReadFile(scenario.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to read content script: %w", err)
		}
		if _, err := st.DB().ExecContext(ctx, string(script)); err != nil {
			return nil, fmt.Errorf("failed to run content script: %w", err)
		}
	}

	rec := &recordingExpander{inner: st}
	h := &Harness{
		store:    st,
		compiler: compiler.New(catalog, compiler.WithFolderExpander(rec), compiler.WithLogger(cfg.logger)),
		expander: rec,
		logger:   cfg.logger,
		execute:  scenario.Content != "",
	}

	result := NewResult()
	for i, c := range scenario.Cases {
		if err := h.runCase(ctx, i, c, result); err != nil {
			return nil, err
		}
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, nil
}

// runCase compiles one case, records its outcome and checks its expect
// clause. Only an execution failure of a compiled statement is returned
// as an error; compile errors are outcomes.
func (h *Harness) runCase(ctx context.Context, i int, c Case, result *Result) error {
	h.expander.reset()

	syntax := parser.Syntax(c.Syntax)
	if syntax == "" {
		detected, err := parser.DetectSyntax(c.Query)
		if err == nil {
			syntax = detected
		}
	}

	out := Outcome{Case: c.Name, Syntax: string(syntax), Params: []any{}}
	var (
		compiled *compiler.Compiled
		err      error
	)
	if syntax == "" {
		_, _, err = parser.ParseAuto(c.Query)
	} else {
		compiled, err = h.compiler.Compile(ctx, syntax, c.Query)
	}
	out.Expanded = h.expander.take()

	if err != nil {
		out.Error = ErrorKind(err)
		out.Message = err.Error()
	} else {
		out.Where = compiled.Where
		if compiled.Params != nil {
			out.Params = compiled.Params
		}
		out.NoMatch = compiled.NoMatch
		out.SQL = compiled.SQL
		out.Fingerprint = compiled.Fingerprint

		if h.execute && out.SQL != "" {
			rows, err := h.store.Execute(ctx, out.SQL, compiled.Params)
			if err != nil {
				return fmt.Errorf("case %d (%s): %w", i, c.Name, err)
			}
			out.Rows = rows
		}
	}

	for _, msg := range checkExpect(c, out) {
		result.AddError(msg)
	}
	result.AddOutcome(out)

	h.logger.Info("case completed",
		"case", c.Name,
		"syntax", out.Syntax,
		"error", out.Error,
		"no_match", out.NoMatch,
	)
	return nil
}

// checkExpect compares an outcome to the case's expect clause.
func checkExpect(c Case, out Outcome) []string {
	exp := c.Expect
	if exp == nil {
		if out.Failed() {
			return []string{fmt.Sprintf("case %q: unexpected error: %s", c.Name, out.Message)}
		}
		return nil
	}

	if exp.Error != "" {
		if out.Error != exp.Error {
			return []string{fmt.Sprintf("case %q: expected %s error, got %s", c.Name, exp.Error, describe(out))}
		}
		return nil
	}
	if out.Failed() {
		return []string{fmt.Sprintf("case %q: unexpected error: %s", c.Name, out.Message)}
	}

	var errs []string
	if exp.Where != nil && *exp.Where != out.Where {
		errs = append(errs, fmt.Sprintf("case %q: where = %q, expected %q", c.Name, out.Where, *exp.Where))
	}
	if exp.Params != nil && !paramsEqual(exp.Params, out.Params) {
		errs = append(errs, fmt.Sprintf("case %q: params = %v, expected %v", c.Name, out.Params, exp.Params))
	}
	if exp.NoMatch != out.NoMatch {
		errs = append(errs, fmt.Sprintf("case %q: no_match = %t, expected %t", c.Name, out.NoMatch, exp.NoMatch))
	}
	return errs
}

func describe(out Outcome) string {
	if out.Failed() {
		return fmt.Sprintf("%s (%s)", out.Error, out.Message)
	}
	return "success"
}

// paramsEqual compares YAML-decoded values to bind parameters. Both are
// converted to IR values, so YAML ints match int64 parameters.
func paramsEqual(expected, actual []any) bool {
	if len(expected) != len(actual) {
		return false
	}
	for i := range expected {
		e, err := ir.FromAny(expected[i])
		if err != nil {
			return false
		}
		a, err := ir.FromAny(actual[i])
		if err != nil {
			return false
		}
		if !reflect.DeepEqual(e, a) {
			return false
		}
	}
	return true
}

// recordingExpander records the paths the compiler expands.
type recordingExpander struct {
	inner compiler.FolderExpander

	mu    sync.Mutex
	calls []string
}

func (r *recordingExpander) ExpandPath(ctx context.Context, path string) ([]int64, error) {
	r.mu.Lock()
	r.calls = append(r.calls, path)
	r.mu.Unlock()
	return r.inner.ExpandPath(ctx, path)
}

func (r *recordingExpander) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// take returns the recorded paths, never nil.
func (r *recordingExpander) take() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	calls := slices.Clone(r.calls)
	if calls == nil {
		calls = []string{}
	}
	return calls
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/jcrq/internal/compiler"
	"github.com/roach88/jcrq/internal/parser"
	"github.com/roach88/jcrq/internal/store"
	"github.com/roach88/jcrq/internal/typeconf"
)

// SyntaxAuto detects the query syntax from the query text.
const SyntaxAuto = "auto"

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Syntax  string // auto | sql | xpath
	Types   string // CUE type configuration file or directory
	Folders string // SQLite folder index or YAML folder fixture
	Map     string // YAML column rename map
	Execute bool   // run the statement against the folder index database
}

// CompileOutput is the compile command's result.
type CompileOutput struct {
	CompileID   string      `json:"compile_id"`
	Syntax      string      `json:"syntax"`
	SourceType  string      `json:"source_type"`
	Where       string      `json:"where"`
	Params      []any       `json:"params"`
	OrderBy     string      `json:"order_by,omitempty"`
	Columns     []string    `json:"columns,omitempty"`
	NoMatch     bool        `json:"no_match"`
	SQL         string      `json:"sql,omitempty"`
	Fingerprint string      `json:"fingerprint"`
	Rows        []store.Row `json:"rows,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <query>",
		Short: "Compile a query to SQL",
		Long: `Compile one SQL-like or XPath-like query against a type configuration.

Path predicates are expanded through the folder index given by --folders:
either a SQLite database built by "jcrq index" or a YAML folder fixture.
Use "-" as the query to read it from stdin.

Examples:
  jcrq compile --types ./types "SELECT * FROM rx:page WHERE rx:title LIKE '%news%'"
  jcrq compile --types ./types --folders folders.db "/jcr:root/sites//element(*, rx:page)"
  jcrq compile --types ./types --folders content.db --execute "SELECT rx:sys_title FROM nt:base"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Syntax, "syntax", SyntaxAuto, "query syntax (auto|sql|xpath)")
	cmd.Flags().StringVarP(&opts.Types, "types", "t", "", "CUE type configuration file or directory")
	cmd.Flags().StringVar(&opts.Folders, "folders", "", "folder index database or YAML folder fixture")
	cmd.Flags().StringVar(&opts.Map, "map", "", "YAML map renaming physical columns")
	cmd.Flags().BoolVar(&opts.Execute, "execute", false, "execute the statement against the --folders database")
	_ = cmd.MarkFlagRequired("types")

	return cmd
}

func runCompile(ctx context.Context, opts *CompileOptions, query string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if query == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeReadFailed, fmt.Sprintf("reading query: %v", err), nil)
		}
		query = strings.TrimSpace(string(data))
	}

	catalog, err := loadCatalog(opts.Types)
	if err != nil {
		return configFailure(formatter, err)
	}
	formatter.VerboseLog("Loaded %d content type(s) from %s", len(catalog.Types), opts.Types)

	syntax, err := resolveSyntax(opts.Syntax, query)
	if err != nil {
		code, message := compileErrorCode(err)
		return formatter.Fail(ExitCommandError, code, message, errorDetails(err))
	}

	copts := []compiler.Option{compiler.WithLogger(opts.Logger(cmd.ErrOrStderr()))}

	var st *store.Store
	if opts.Folders != "" {
		st, err = openFolders(ctx, opts.Folders)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		defer st.Close()
		copts = append(copts, compiler.WithFolderExpander(st))
	}
	if opts.Execute && st == nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "--execute requires --folders", nil)
	}

	if opts.Map != "" {
		mapper, err := loadMapper(opts.Map)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeReadFailed, err.Error(), nil)
		}
		copts = append(copts, compiler.WithPropertyMapper(mapper))
	}

	compiled, err := compiler.New(catalog, copts...).Compile(ctx, syntax, query)
	if err != nil {
		code, message := compileErrorCode(err)
		return formatter.Fail(ExitCommandError, code, message, errorDetails(err))
	}

	out := CompileOutput{
		CompileID:   compiled.ID,
		Syntax:      string(compiled.Syntax),
		SourceType:  compiled.Parsed.SourceType,
		Where:       compiled.Where,
		Params:      compiled.Params,
		OrderBy:     compiled.OrderByClause(),
		Columns:     compiled.Columns,
		NoMatch:     compiled.NoMatch,
		SQL:         compiled.SQL,
		Fingerprint: compiled.Fingerprint,
	}
	if out.Params == nil {
		out.Params = []any{}
	}

	if opts.Execute && compiled.SQL != "" {
		rows, err := st.Execute(ctx, compiled.SQL, compiled.Params)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeExecute, err.Error(), nil)
		}
		out.Rows = rows
	}

	return outputCompileSuccess(formatter, out, opts.Execute)
}

// loadCatalog loads and validates the type configuration.
func loadCatalog(path string) (*typeconf.Catalog, error) {
	if path == "" {
		return nil, fmt.Errorf("--types is required")
	}
	return typeconf.Load(path)
}

// configFailure reports a type configuration load error.
func configFailure(formatter *OutputFormatter, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, err.Error(), nil)
	}
	problems := typeconf.ConfigErrors(err)
	if len(problems) == 0 {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}
	details := make([]string, len(problems))
	for i, p := range problems {
		details[i] = p.Error()
	}
	return formatter.Fail(ExitCommandError, ErrCodeConfig,
		fmt.Sprintf("type configuration has %d problem(s): %s", len(problems), problems[0].Error()), details)
}

// resolveSyntax maps the --syntax flag to a parser syntax.
func resolveSyntax(flag, query string) (parser.Syntax, error) {
	if flag == "" || flag == SyntaxAuto {
		return parser.DetectSyntax(query)
	}
	syntax := parser.Syntax(flag)
	if !slices.Contains(parser.ValidSyntaxes, syntax) {
		return "", fmt.Errorf("invalid syntax %q: must be %s or one of %v", flag, SyntaxAuto, parser.ValidSyntaxes)
	}
	return syntax, nil
}

// openFolders opens a folder index database, or builds an in-memory one
// from a YAML fixture.
func openFolders(ctx context.Context, path string) (*store.Store, error) {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		folders, err := store.LoadFolderFile(path)
		if err != nil {
			return nil, err
		}
		st, err := store.Open(ctx, store.MemoryPath)
		if err != nil {
			return nil, err
		}
		if err := st.ImportFolders(ctx, folders); err != nil {
			st.Close()
			return nil, err
		}
		return st, nil
	default:
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("folder index: %w", err)
		}
		return store.Open(ctx, path)
	}
}

// loadMapper reads a YAML map of physical column renames.
func loadMapper(path string) (compiler.MapMapper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading column map: %w", err)
	}
	m := compiler.MapMapper{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing column map: %w", err)
	}
	return m, nil
}

// compileErrorCode extracts an error code and message from a compile error.
func compileErrorCode(err error) (string, string) {
	var syntaxErr *parser.SyntaxError
	switch {
	case errors.As(err, &syntaxErr):
		return ErrCodeSyntax, syntaxErr.Error()
	case compiler.IsUnresolvedProperty(err):
		return ErrCodeUnresolvedProperty, err.Error()
	case compiler.IsUnresolvedType(err):
		return ErrCodeUnresolvedType, err.Error()
	case compiler.IsUnsupported(err):
		return ErrCodeUnsupported, err.Error()
	case compiler.IsExpandError(err):
		return ErrCodeExpand, err.Error()
	default:
		return ErrCodeGeneric, err.Error()
	}
}

// errorDetails returns the source position of syntax errors.
func errorDetails(err error) any {
	var syntaxErr *parser.SyntaxError
	if errors.As(err, &syntaxErr) {
		return map[string]any{
			"line":   syntaxErr.Pos.Line,
			"column": syntaxErr.Pos.Column,
			"token":  syntaxErr.Token,
		}
	}
	return nil
}

// outputCompileSuccess outputs a compiled query.
func outputCompileSuccess(formatter *OutputFormatter, out CompileOutput, executed bool) error {
	if formatter.Format == "json" {
		return formatter.Success(out)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %s query over %s\n\n", out.Syntax, out.SourceType)

	if out.NoMatch {
		fmt.Fprintln(w, "No match: the predicate is unsatisfiable, nothing to execute")
	} else {
		fmt.Fprintf(w, "WHERE %s\n", out.Where)
		for i, p := range out.Params {
			fmt.Fprintf(w, "  :p%d = %#v\n", i, p)
		}
		if out.OrderBy != "" {
			fmt.Fprintf(w, "ORDER BY %s\n", out.OrderBy)
		}
		if out.SQL != "" {
			fmt.Fprintf(w, "\n%s\n", out.SQL)
		}
	}
	fmt.Fprintf(w, "\nFingerprint: %s\n", out.Fingerprint)

	if executed {
		fmt.Fprintf(w, "\n%d row(s)\n", len(out.Rows))
		for _, row := range out.Rows {
			fmt.Fprintf(w, "  %v\n", row)
		}
	}
	return nil
}

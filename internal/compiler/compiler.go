package compiler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/jcrq/internal/ir"
	"github.com/roach88/jcrq/internal/parser"
	"github.com/roach88/jcrq/internal/queryir"
	"github.com/roach88/jcrq/internal/querysql"
	"github.com/roach88/jcrq/internal/typeconf"
)

// Compiler runs the whole pipeline: parse, resolve, transform, generate.
//
// A Compiler holds no per-query state and may be shared between goroutines
// as long as its collaborators are safe for concurrent reads.
type Compiler struct {
	types    typeconf.Source
	expander FolderExpander
	mapper   PropertyMapper
	logger   *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithFolderExpander sets the folder expander used for path predicates.
func WithFolderExpander(e FolderExpander) Option {
	return func(c *Compiler) { c.expander = e }
}

// WithPropertyMapper sets the column mapper. The default is the identity.
func WithPropertyMapper(m PropertyMapper) Option {
	return func(c *Compiler) { c.mapper = m }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) { c.logger = l }
}

// New creates a Compiler over the given type configurations.
func New(types typeconf.Source, opts ...Option) *Compiler {
	c := &Compiler{
		types:  types,
		mapper: IdentityMapper{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Compiled is the outcome of compiling one query.
type Compiled struct {
	// ID correlates the log lines of one compilation.
	ID string

	Syntax parser.Syntax
	Text   string

	// Parsed is the front end output; Query is the transformed tree.
	Parsed queryir.Query
	Query  queryir.Query

	querysql.Result

	// SQL is the complete SELECT when the content type declares its
	// tables and the query can match.
	SQL string

	// Fingerprint identifies (where, params, order by).
	Fingerprint string
}

// Compile parses text in the given syntax and compiles it.
func (c *Compiler) Compile(ctx context.Context, syntax parser.Syntax, text string) (*Compiled, error) {
	id := newCompileID()
	log := c.logger.With("compile_id", id)

	q, err := parser.Parse(syntax, text)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	log.Debug("parsed", "syntax", syntax, "tree", q.String())

	out, err := c.compile(ctx, log, syntax, q)
	if err != nil {
		return nil, err
	}
	out.ID = id
	out.Text = text
	return out, nil
}

// CompileQuery compiles an already parsed query.
func (c *Compiler) CompileQuery(ctx context.Context, q queryir.Query) (*Compiled, error) {
	id := newCompileID()
	out, err := c.compile(ctx, c.logger.With("compile_id", id), "", q)
	if err != nil {
		return nil, err
	}
	out.ID = id
	return out, nil
}

func (c *Compiler) compile(ctx context.Context, log *slog.Logger, syntax parser.Syntax, q queryir.Query) (*Compiled, error) {
	if err := queryir.Validate(q, queryir.StageParsed).Err(); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	cfg, ok := c.types.Lookup(q.SourceType)
	if !ok {
		return nil, fmt.Errorf("resolve: %w", &UnresolvedTypeError{TypeName: q.SourceType})
	}

	resolved, err := Resolve(q, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	if err := queryir.Validate(resolved, queryir.StageResolved).Err(); err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	log.Debug("resolved", "tree", resolved.String())

	transformed, err := Transform(ctx, resolved, cfg, c.expander, c.mapper)
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	log.Debug("transformed", "tree", transformed.String())

	res, err := querysql.NewSQLCompiler(cfg.CaseInsensitiveDialect()).Generate(transformed)
	if err != nil {
		return nil, err
	}

	out := &Compiled{
		Syntax: syntax,
		Parsed: q,
		Query:  transformed,
		Result: res,
	}

	if layout, ok := cfg.(typeconf.TableLayout); ok && len(layout.Tables()) > 0 {
		stmt, _, err := res.Statement(layout.Tables())
		if err != nil {
			return nil, err
		}
		out.SQL = stmt
	}

	out.Fingerprint, err = ir.Fingerprint(out.Canonical())
	if err != nil {
		return nil, err
	}

	log.Info("query compiled",
		"syntax", syntax,
		"source_type", q.SourceType,
		"params", len(res.Params),
		"no_match", res.NoMatch,
	)
	return out, nil
}

// Canonical returns the fingerprinted form of the result.
func (c *Compiled) Canonical() ir.IRObject {
	params := make(ir.IRArray, 0, len(c.Params))
	for _, p := range c.Params {
		v, err := ir.FromAny(p)
		if err != nil {
			v = ir.IRString(fmt.Sprint(p))
		}
		params = append(params, v)
	}
	order := make(ir.IRArray, 0, len(c.OrderBy))
	for _, o := range c.OrderBy {
		order = append(order, ir.IRString(o.Column+" "+string(o.Direction)))
	}
	return ir.IRObject{
		"where":   ir.IRString(c.Where),
		"params":  params,
		"orderBy": order,
		"noMatch": ir.IRBool(c.NoMatch),
	}
}

func newCompileID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

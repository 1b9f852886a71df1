package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/jcrq/internal/ir"
	"github.com/roach88/jcrq/internal/queryir"
	"github.com/roach88/jcrq/internal/typeconf"
)

// TrueClause is the WHERE clause of a query that places no restriction.
const TrueClause = "1=1"

// derbyVarcharMax is the longest VARCHAR Derby can cast a CLOB to.
const derbyVarcharMax = 32672

// SQLCompiler renders transformed query trees as parameterized SQL.
//
// All user literals are bound as named parameters :p0, :p1, ... in
// left-to-right, depth-first order. Compiler-produced id lists are inlined.
type SQLCompiler struct {
	// Derby enables Derby rendering of case-insensitive comparisons:
	// CLOB columns are cast to VARCHAR and LIKE carries an explicit escape.
	Derby bool
}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler(derby bool) *SQLCompiler {
	return &SQLCompiler{Derby: derby}
}

// OrderTerm is one rendered ORDER BY entry.
type OrderTerm struct {
	Column    string
	Direction queryir.Direction
}

// Result is the generated SQL for one query.
type Result struct {
	// Where is the WHERE clause without the keyword. It is empty when no row
	// can match, and TrueClause when there is no restriction.
	Where string

	// Params are the bind values, Params[i] binding :pi.
	Params []any

	OrderBy []OrderTerm

	// Columns are the qualified selected columns; empty selects all.
	Columns []string

	// NoMatch is true when Where is empty because the predicate is
	// unsatisfiable. Callers skip execution.
	NoMatch bool
}

// OrderByClause renders the ORDER BY list without the keyword.
func (r Result) OrderByClause() string {
	parts := make([]string, len(r.OrderBy))
	for i, o := range r.OrderBy {
		parts[i] = o.Column + " " + string(o.Direction)
	}
	return strings.Join(parts, ", ")
}

// Generate renders a fully resolved and transformed query.
func (c *SQLCompiler) Generate(q queryir.Query) (Result, error) {
	if err := queryir.Validate(q, queryir.StageTransformed).Err(); err != nil {
		return Result{}, fmt.Errorf("generate: %w", err)
	}

	var res Result
	for _, col := range q.Columns {
		res.Columns = append(res.Columns, col.Qualified())
	}
	for _, o := range q.OrderBy {
		res.OrderBy = append(res.OrderBy, OrderTerm{Column: o.Property.Qualified(), Direction: o.Direction})
	}

	folded := Fold(q.Predicate)
	if b, ok := folded.(queryir.BooleanLiteral); ok {
		if !b.Value {
			res.NoMatch = true
			return res, nil
		}
		res.Where = TrueClause
		return res, nil
	}
	if folded == nil {
		res.Where = TrueClause
		return res, nil
	}

	w := &writer{derby: c.Derby}
	if err := w.predicate(folded); err != nil {
		return Result{}, err
	}
	res.Where = w.b.String()
	res.Params = w.params
	return res, nil
}

// Fold removes boolean constants from a tree:
//
//	false AND x = false    true AND x = x
//	false OR x = x         true OR x = true
//
// An id membership test against no ids is false. The result is either a
// single BooleanLiteral, nil, or a tree free of constants.
func Fold(n queryir.Node) queryir.Node {
	switch node := n.(type) {
	case queryir.Conjunction:
		left := Fold(node.Left)
		right := Fold(node.Right)
		if b, ok := left.(queryir.BooleanLiteral); ok {
			return absorb(b, node.Op, right)
		}
		if b, ok := right.(queryir.BooleanLiteral); ok {
			return absorb(b, node.Op, left)
		}
		return queryir.Conjunction{Left: left, Op: node.Op, Right: right}
	case queryir.Compare:
		if ids, ok := node.Value.(queryir.IDList); ok && node.Op == queryir.OpIn && len(ids.IDs) == 0 {
			return queryir.BooleanLiteral{Value: false}
		}
		return node
	default:
		return n
	}
}

func absorb(b queryir.BooleanLiteral, op queryir.BoolOp, other queryir.Node) queryir.Node {
	switch {
	case op == queryir.And && !b.Value, op == queryir.Or && b.Value:
		return b
	default:
		return other
	}
}

// writer accumulates SQL text and parameters in traversal order.
type writer struct {
	b      strings.Builder
	params []any
	derby  bool
}

func (w *writer) param(v ir.IRValue) (string, error) {
	p, err := ir.ToParam(v)
	if err != nil {
		return "", fmt.Errorf("convert value: %w", err)
	}
	name := ":p" + strconv.Itoa(len(w.params))
	w.params = append(w.params, p)
	return name, nil
}

func (w *writer) predicate(n queryir.Node) error {
	switch node := n.(type) {
	case queryir.Conjunction:
		w.b.WriteString("(")
		if err := w.predicate(node.Left); err != nil {
			return err
		}
		w.b.WriteString(" ")
		w.b.WriteString(string(node.Op))
		w.b.WriteString(" ")
		if err := w.predicate(node.Right); err != nil {
			return err
		}
		w.b.WriteString(")")
		return nil
	case queryir.Compare:
		return w.compare(node)
	case queryir.BooleanLiteral:
		return fmt.Errorf("boolean constant %t survived folding", node.Value)
	default:
		return fmt.Errorf("unsupported predicate type: %T", n)
	}
}

var comparisonSymbols = map[queryir.CompareOp]string{
	queryir.OpEq: "=",
	queryir.OpNe: "!=",
	queryir.OpLt: "<",
	queryir.OpLe: "<=",
	queryir.OpGt: ">",
	queryir.OpGe: ">=",
}

func (w *writer) compare(c queryir.Compare) error {
	col := w.column(c.Property)

	switch c.Op {
	case queryir.OpIsNull:
		fmt.Fprintf(&w.b, "%s is null", col)
		return nil
	case queryir.OpIsNotNull:
		fmt.Fprintf(&w.b, "%s is not null", col)
		return nil
	case queryir.OpIn:
		return w.in(col, c.Value)
	case queryir.OpLike, queryir.OpNotLike:
		return w.like(c)
	}

	sym, ok := comparisonSymbols[c.Op]
	if !ok {
		return fmt.Errorf("unsupported operator %q", c.Op)
	}
	lit, ok := c.Value.(queryir.Literal)
	if !ok {
		return fmt.Errorf("%s %s: expected literal operand, got %T", c.Property.Name, c.Op, c.Value)
	}
	p, err := w.param(lit.Value)
	if err != nil {
		return err
	}
	fmt.Fprintf(&w.b, "%s %s %s", col, sym, p)
	return nil
}

// like renders a case-insensitive pattern match. Patterns are bound
// verbatim; only the comparison folds case.
func (w *writer) like(c queryir.Compare) error {
	lit, ok := c.Value.(queryir.Literal)
	if !ok {
		return fmt.Errorf("%s %s: expected literal operand, got %T", c.Property.Name, c.Op, c.Value)
	}
	p, err := w.param(lit.Value)
	if err != nil {
		return err
	}

	kw := "like"
	if c.Op == queryir.OpNotLike {
		kw = "not like"
	}

	if !typeconf.IsTextType(c.Property.SQLType) {
		fmt.Fprintf(&w.b, "%s %s %s", w.column(c.Property), kw, p)
	} else {
		fmt.Fprintf(&w.b, "upper(%s) %s upper(%s)", w.column(c.Property), kw, p)
	}
	if w.derby {
		w.b.WriteString(` escape '\'`)
	}
	return nil
}

func (w *writer) in(col string, v queryir.Operand) error {
	switch list := v.(type) {
	case queryir.IDList:
		fmt.Fprintf(&w.b, "%s in %s", col, queryir.FormatIDs(list.IDs))
		return nil
	case queryir.LiteralList:
		names := make([]string, len(list.Values))
		for i, elem := range list.Values {
			p, err := w.param(elem)
			if err != nil {
				return err
			}
			names[i] = p
		}
		fmt.Fprintf(&w.b, "%s in (%s)", col, strings.Join(names, ", "))
		return nil
	default:
		return fmt.Errorf("in: unsupported operand %T", v)
	}
}

// column renders a column reference. Derby cannot compare CLOBs directly.
func (w *writer) column(r queryir.PropertyRef) string {
	if w.derby && typeconf.IsLOBType(r.SQLType) {
		return fmt.Sprintf("cast(%s as varchar(%d))", r.Qualified(), derbyVarcharMax)
	}
	return r.Qualified()
}

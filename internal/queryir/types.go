package queryir

import (
	"strings"

	"github.com/roach88/jcrq/internal/ir"
)

// Reserved property names with compiler-level meaning.
const (
	// PathProperty marks a hierarchical path predicate. Path expansion
	// replaces comparisons against it with folder membership tests.
	PathProperty = "jcr:path"

	// PrimaryTypeProperty compares against the content type of an item.
	// Type resolution rewrites it to the numeric content type id.
	PrimaryTypeProperty = "jcr:primaryType"

	// AllColumns is the selected-column wildcard.
	AllColumns = "*"
)

// Query is the parsed form of one content query.
//
// Passes replace Predicate (and resolve Columns/OrderBy) by building a new
// Query value; they never modify the one they were given.
type Query struct {
	Columns    []PropertyRef // selected properties; empty means all
	SourceType string        // content type name from FROM / element(*, T)
	Predicate  Node          // WHERE tree (nil = no predicate)
	OrderBy    []OrderSpec
}

// OrderSpec is one ORDER BY entry.
type OrderSpec struct {
	Property  PropertyRef
	Direction Direction
}

// Direction is a sort direction.
type Direction string

// Sort directions.
const (
	Ascending  Direction = "ASC"
	Descending Direction = "DESC"
)

// PropertyRef names a repository property.
//
// Before type resolution only Name is set. After resolution Alias, Column
// and SQLType describe the physical column the property is stored in.
type PropertyRef struct {
	Name    string // symbolic name, e.g. "rx:title", "jcr:path"
	Alias   string // table alias, e.g. "c0"
	Column  string // physical column name
	SQLType string // declared SQL type, e.g. "VARCHAR", "INTEGER", "CLOB"
}

// Prop creates a symbolic property reference.
func Prop(name string) PropertyRef {
	return PropertyRef{Name: name}
}

// Resolved reports whether the reference is bound to a physical column.
func (r PropertyRef) Resolved() bool {
	return r.Column != ""
}

// Qualified returns "alias.column", or just the column when no alias is set.
func (r PropertyRef) Qualified() string {
	if r.Alias == "" {
		return r.Column
	}
	return r.Alias + "." + r.Column
}

// Node represents a predicate in the WHERE tree.
//
// This is a sealed interface - only types in this package implement it.
//
// Node types:
//   - Conjunction: binary AND / OR
//   - Compare: property <op> operand
//   - BooleanLiteral: constant true / false
type Node interface {
	queryNode() // Marker method - seals interface to this package
}

// BoolOp is a boolean combinator.
type BoolOp string

// Boolean combinators.
const (
	And BoolOp = "AND"
	Or  BoolOp = "OR"
)

// Conjunction combines two predicates with AND or OR.
// Association and precedence are fixed by the parser; later passes keep
// the shape as is.
type Conjunction struct {
	Left  Node
	Op    BoolOp
	Right Node
}

func (Conjunction) queryNode() {}

// CompareOp is a comparison operator.
type CompareOp string

// Comparison operators.
const (
	OpEq        CompareOp = "eq"
	OpNe        CompareOp = "ne"
	OpLt        CompareOp = "lt"
	OpLe        CompareOp = "le"
	OpGt        CompareOp = "gt"
	OpGe        CompareOp = "ge"
	OpLike      CompareOp = "like"
	OpNotLike   CompareOp = "notlike"
	OpIn        CompareOp = "in"
	OpIsNull    CompareOp = "isnull"
	OpIsNotNull CompareOp = "isnotnull"
)

// Unary reports whether the operator takes no operand.
func (op CompareOp) Unary() bool {
	return op == OpIsNull || op == OpIsNotNull
}

// Compare is a single predicate leaf: Property <Op> Value.
//
// Value is nil for unary operators (OpIsNull, OpIsNotNull), a LiteralList or
// IDList for OpIn, and a Literal otherwise.
type Compare struct {
	Property PropertyRef
	Op       CompareOp
	Value    Operand
}

func (Compare) queryNode() {}

// BooleanLiteral is a constant predicate. Path expansion produces
// BooleanLiteral{false} when a path designates no folder.
type BooleanLiteral struct {
	Value bool
}

func (BooleanLiteral) queryNode() {}

// Operand is the right-hand side of a Compare.
//
// This is a sealed interface - only Literal, LiteralList and IDList
// implement it.
type Operand interface {
	operand()
}

// Literal is a single user-supplied value. Rendered as a bind parameter.
type Literal struct {
	Value ir.IRValue
}

func (Literal) operand() {}

// LiteralList is a user-supplied IN list. Rendered as one bind parameter
// per element.
type LiteralList struct {
	Values []ir.IRValue
}

func (LiteralList) operand() {}

// IDList is a compiler-produced list of numeric ids (folder ids, content
// type ids). Rendered inline since it never carries user input.
type IDList struct {
	IDs []int64
}

func (IDList) operand() {}

// Str is shorthand for Literal{ir.IRString(s)}.
func Str(s string) Literal {
	return Literal{Value: ir.IRString(s)}
}

// Int is shorthand for Literal{ir.IRInt(n)}.
func Int(n int64) Literal {
	return Literal{Value: ir.IRInt(n)}
}

// AndOf builds a Conjunction{l AND r}.
func AndOf(l, r Node) Conjunction {
	return Conjunction{Left: l, Op: And, Right: r}
}

// OrOf builds a Conjunction{l OR r}.
func OrOf(l, r Node) Conjunction {
	return Conjunction{Left: l, Op: Or, Right: r}
}

// Cmp builds a Compare against a symbolic property.
func Cmp(name string, op CompareOp, value Operand) Compare {
	return Compare{Property: Prop(name), Op: op, Value: value}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes the LIKE wildcards and the escape character so s
// matches only itself.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// IsPath reports whether the comparison is a path predicate.
func (c Compare) IsPath() bool {
	return c.Property.Name == PathProperty && !c.Property.Resolved()
}

package queryir

import (
	"fmt"
)

// Stage identifies how far through the pipeline a tree is expected to be.
type Stage int

const (
	// StageParsed: every PropertyRef is symbolic.
	StageParsed Stage = iota
	// StageResolved: every PropertyRef is resolved except jcr:path.
	StageResolved
	// StageTransformed: every PropertyRef is resolved; no path predicate remains.
	StageTransformed
)

func (s Stage) String() string {
	switch s {
	case StageParsed:
		return "parsed"
	case StageResolved:
		return "resolved"
	case StageTransformed:
		return "transformed"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// ValidationResult lists structural problems found in a query tree.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems describes each invariant violation found.
	Problems []string
}

// Err returns the problems as a single error, or nil when the tree is valid.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return fmt.Errorf("invalid query tree: %v", r.Problems)
}

// Validate checks the tree invariants expected at the given stage:
//  1. No nil children inside a Conjunction
//  2. Operand kinds match the operator (IN takes a list, unary takes none)
//  3. PropertyRef resolution state matches the stage
//
// Validate is a pure function with no side effects.
func Validate(q Query, stage Stage) ValidationResult {
	v := &validator{stage: stage}
	for _, c := range q.Columns {
		v.checkRef(c, "select")
	}
	for _, o := range q.OrderBy {
		v.checkRef(o.Property, "order by")
		if o.Direction != Ascending && o.Direction != Descending {
			v.addProblem("order by %s: invalid direction %q", o.Property.Name, o.Direction)
		}
	}
	if q.Predicate != nil {
		v.validateNode(q.Predicate)
	}
	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	stage    Stage
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateNode(n Node) {
	switch node := n.(type) {
	case nil:
		v.addProblem("nil predicate node")
	case Conjunction:
		if node.Op != And && node.Op != Or {
			v.addProblem("conjunction with invalid operator %q", node.Op)
		}
		v.validateNode(node.Left)
		v.validateNode(node.Right)
	case Compare:
		v.validateCompare(node)
	case BooleanLiteral:
		// Always valid
	default:
		v.addProblem("unknown node type %T", n)
	}
}

func (v *validator) validateCompare(c Compare) {
	if c.Property.Name == "" && !c.Property.Resolved() {
		v.addProblem("comparison without property")
	}

	switch {
	case c.Op.Unary():
		if c.Value != nil {
			v.addProblem("%s: %s takes no operand", c.Property.Name, c.Op)
		}
	case c.Op == OpIn:
		switch c.Value.(type) {
		case LiteralList, IDList:
		default:
			v.addProblem("%s: in requires a list operand, got %T", c.Property.Name, c.Value)
		}
	default:
		if _, ok := c.Value.(Literal); !ok {
			v.addProblem("%s: %s requires a literal operand, got %T", c.Property.Name, c.Op, c.Value)
		}
	}

	if c.IsPath() {
		if v.stage == StageTransformed {
			v.addProblem("path predicate %s survived path expansion", Format(c))
		}
		return
	}
	v.checkRef(c.Property, "where")
}

func (v *validator) checkRef(r PropertyRef, clause string) {
	switch v.stage {
	case StageParsed:
		if r.Resolved() {
			v.addProblem("%s: %s resolved before type resolution", clause, r.Name)
		}
	default:
		if !r.Resolved() && r.Name != AllColumns {
			v.addProblem("%s: unresolved property %s", clause, r.Name)
		}
	}
}

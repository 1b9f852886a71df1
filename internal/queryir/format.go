package queryir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/jcrq/internal/ir"
)

// Format renders a predicate tree in the compact debug form used by tests
// and the parse command, e.g.
//
//	qn-conjunction(qn-compare(jcr:path,like,'/sites/%'),AND,qn-bool(false))
//
// The output is for humans; it is not an input format.
func Format(n Node) string {
	var b strings.Builder
	writeNode(&b, n)
	return b.String()
}

func writeNode(b *strings.Builder, n Node) {
	switch node := n.(type) {
	case nil:
		b.WriteString("qn-none")
	case Conjunction:
		b.WriteString("qn-conjunction(")
		writeNode(b, node.Left)
		b.WriteString(",")
		b.WriteString(string(node.Op))
		b.WriteString(",")
		writeNode(b, node.Right)
		b.WriteString(")")
	case Compare:
		b.WriteString("qn-compare(")
		b.WriteString(formatRef(node.Property))
		b.WriteString(",")
		b.WriteString(string(node.Op))
		if node.Value != nil {
			b.WriteString(",")
			b.WriteString(FormatOperand(node.Value))
		}
		b.WriteString(")")
	case BooleanLiteral:
		fmt.Fprintf(b, "qn-bool(%t)", node.Value)
	default:
		fmt.Fprintf(b, "qn-unknown(%T)", n)
	}
}

func formatRef(r PropertyRef) string {
	if !r.Resolved() {
		return r.Name
	}
	return r.Qualified()
}

// FormatOperand renders an operand in debug form.
func FormatOperand(o Operand) string {
	switch op := o.(type) {
	case Literal:
		return ir.Format(op.Value)
	case LiteralList:
		return ir.Format(ir.IRArray(op.Values))
	case IDList:
		return FormatIDs(op.IDs)
	default:
		return fmt.Sprintf("<%T>", o)
	}
}

// FormatIDs renders ids as "(1,2,3)".
func FormatIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// String renders the whole query in debug form.
func (q Query) String() string {
	cols := make([]string, len(q.Columns))
	for i, c := range q.Columns {
		cols[i] = formatRef(c)
	}
	order := make([]string, len(q.OrderBy))
	for i, o := range q.OrderBy {
		order[i] = formatRef(o.Property) + " " + string(o.Direction)
	}
	return fmt.Sprintf("qn-query(select=[%s],from=%s,where=%s,order=[%s])",
		strings.Join(cols, ","), q.SourceType, Format(q.Predicate), strings.Join(order, ","))
}

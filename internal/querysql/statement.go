package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/jcrq/internal/typeconf"
)

// Statement renders a complete SELECT over tables, the first of which
// drives the join. It returns false when the result has no match and
// there is nothing to execute.
func (r Result) Statement(tables []typeconf.Table) (string, bool, error) {
	if r.NoMatch {
		return "", false, nil
	}
	if len(tables) == 0 {
		return "", false, fmt.Errorf("statement: no tables configured")
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	if len(r.Columns) == 0 {
		b.WriteString("*")
	} else {
		b.WriteString(strings.Join(r.Columns, ", "))
	}

	fmt.Fprintf(&b, " FROM %s %s", tables[0].Name, tables[0].Alias)
	for _, t := range tables[1:] {
		if t.Join == "" {
			return "", false, fmt.Errorf("statement: table %s (%s) has no join condition", t.Name, t.Alias)
		}
		fmt.Fprintf(&b, " JOIN %s %s ON %s", t.Name, t.Alias, t.Join)
	}

	b.WriteString(" WHERE ")
	b.WriteString(r.Where)

	if order := r.OrderByClause(); order != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(order)
	}
	return b.String(), true, nil
}

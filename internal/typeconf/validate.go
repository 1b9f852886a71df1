package typeconf

import (
	"fmt"
	"slices"

	"github.com/roach88/jcrq/internal/queryir"
)

// Validate checks the semantic rules of a catalog and returns every problem
// found:
//   - the dialect is known
//   - system columns name a column
//   - content type ids are positive and unique
//   - table aliases are unique within a statement
//   - property aliases name a joined table, when tables are declared
//   - reserved properties are not redefined
func Validate(c *Catalog) []*ConfigError {
	var problems []*ConfigError
	add := func(field, format string, args ...any) {
		problems = append(problems, &ConfigError{
			Field:   field,
			Message: fmt.Sprintf(format, args...),
			Pos:     c.positions[field],
		})
	}

	if !slices.Contains(ValidDialects, c.Dialect) {
		add("dialect", "unknown dialect %q, must be one of %v", c.Dialect, ValidDialects)
	}
	if c.System.ContentTypeID.Column == "" {
		add("system.contentTypeId", "column is required")
	}
	if c.System.FolderID.Column == "" {
		add("system.folderId", "column is required")
	}

	if dup := duplicateAlias(c.Tables); dup != "" {
		add("tables", "duplicate table alias %q", dup)
	}
	checkAliases(c.Properties, aliasSet(c.Tables), "properties", add)

	ids := make(map[int64]string)
	for _, name := range c.TypeNames() {
		ct := c.Types[name]
		field := "contentType." + name
		if ct.ID <= 0 {
			add(field, "content type id must be positive, got %d", ct.ID)
		}
		if other, ok := ids[ct.ID]; ok {
			add(field, "content type id %d already used by %s", ct.ID, other)
		} else {
			ids[ct.ID] = name
		}

		joined := aliasSet(c.Tables)
		for _, t := range ct.Tables {
			if joined[t.Alias] {
				add(field+".tables", "duplicate table alias %q", t.Alias)
				break
			}
			joined[t.Alias] = true
		}
		checkAliases(ct.Properties, joined, field+".properties", add)
	}

	return problems
}

func aliasSet(tables []Table) map[string]bool {
	set := make(map[string]bool, len(tables))
	for _, t := range tables {
		set[t.Alias] = true
	}
	return set
}

func duplicateAlias(tables []Table) string {
	seen := make(map[string]bool, len(tables))
	for _, t := range tables {
		if seen[t.Alias] {
			return t.Alias
		}
		seen[t.Alias] = true
	}
	return ""
}

func checkAliases(props map[string]Column, tables map[string]bool, field string, add func(field, format string, args ...any)) {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		col := props[name]
		f := field + "." + name
		switch {
		case name == queryir.PathProperty || name == queryir.PrimaryTypeProperty:
			add(f, "%s is reserved and cannot be mapped", name)
		case col.Column == "":
			add(f, "column is required")
		case len(tables) > 0 && col.Alias != "" && !tables[col.Alias]:
			add(f, "alias %q does not name a joined table", col.Alias)
		}
	}
}

package typeconf

import (
	"slices"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/jcrq/internal/queryir"
)

// TypeConfiguration is the metadata the compiler needs to resolve one
// query.
type TypeConfiguration interface {
	// Resolve maps a property name to its physical column.
	Resolve(property string) (Column, bool)

	// ContentTypeID maps a content type name to its numeric id.
	ContentTypeID(typeName string) (int64, bool)

	// CaseInsensitiveDialect reports whether case-insensitive comparisons
	// need the Derby rendering (CLOB casts, explicit LIKE escape).
	CaseInsensitiveDialect() bool
}

// Column is a physical column descriptor.
type Column struct {
	Alias   string
	Column  string
	SQLType string
}

// Qualified returns "alias.column".
func (c Column) Qualified() string {
	if c.Alias == "" {
		return c.Column
	}
	return c.Alias + "." + c.Column
}

// Ref binds a property name to this column.
func (c Column) Ref(name string) queryir.PropertyRef {
	return queryir.PropertyRef{Name: name, Alias: c.Alias, Column: c.Column, SQLType: c.SQLType}
}

// IsTextType reports whether a declared SQL type holds character data.
func IsTextType(sqlType string) bool {
	switch strings.ToUpper(sqlType) {
	case "VARCHAR", "CHAR", "CLOB", "TEXT", "LONG VARCHAR", "NVARCHAR", "NCHAR":
		return true
	}
	return false
}

// IsLOBType reports whether a declared SQL type is a large character object
// that Derby cannot compare without a cast.
func IsLOBType(sqlType string) bool {
	switch strings.ToUpper(sqlType) {
	case "CLOB", "LONG VARCHAR":
		return true
	}
	return false
}

// Dialect names the database behind the content schema.
type Dialect string

// Supported dialects.
const (
	DialectGeneric Dialect = "generic"
	DialectDerby   Dialect = "derby"
	DialectSQLite  Dialect = "sqlite"
)

// ValidDialects lists the accepted dialect names.
var ValidDialects = []Dialect{DialectGeneric, DialectDerby, DialectSQLite}

// Table is one table joined into a statement.
type Table struct {
	Alias string
	Name  string
	Join  string // join condition; empty for the driving table
}

// ContentType is the metadata of one content type.
type ContentType struct {
	Name       string
	ID         int64
	Tables     []Table
	Properties map[string]Column
}

// SystemColumns are the columns behind the reserved properties.
type SystemColumns struct {
	ContentTypeID Column // jcr:primaryType
	FolderID      Column // jcr:path
}

// Catalog is the content-type metadata of one repository.
type Catalog struct {
	Dialect Dialect
	System  SystemColumns

	// Tables are joined into every statement, first one driving.
	Tables []Table

	// Properties are shared by all content types.
	Properties map[string]Column

	Types map[string]*ContentType

	// source positions by field path, for validation messages
	positions map[string]token.Pos
}

// TypeNames returns the content type names in sorted order.
func (c *Catalog) TypeNames() []string {
	names := make([]string, 0, len(c.Types))
	for name := range c.Types {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ForType returns the view of a content type. nt:base is always known and
// sees only the shared properties.
func (c *Catalog) ForType(name string) (*View, bool) {
	if name == BaseType {
		return &View{catalog: c}, true
	}
	ct, ok := c.Types[name]
	if !ok {
		return nil, false
	}
	return &View{catalog: c, contentType: ct}, true
}

// BaseType is the content type every item has.
const BaseType = "nt:base"

// View is the TypeConfiguration of one content type.
type View struct {
	catalog     *Catalog
	contentType *ContentType // nil for nt:base
}

var _ TypeConfiguration = (*View)(nil)

// Name returns the content type name.
func (v *View) Name() string {
	if v.contentType == nil {
		return BaseType
	}
	return v.contentType.Name
}

// Resolve implements TypeConfiguration. Type-specific properties shadow
// shared ones.
func (v *View) Resolve(property string) (Column, bool) {
	switch property {
	case queryir.PathProperty:
		return v.catalog.System.FolderID, true
	case queryir.PrimaryTypeProperty:
		return v.catalog.System.ContentTypeID, true
	}
	if v.contentType != nil {
		if col, ok := v.contentType.Properties[property]; ok {
			return col, true
		}
	}
	col, ok := v.catalog.Properties[property]
	return col, ok
}

// ContentTypeID implements TypeConfiguration.
func (v *View) ContentTypeID(typeName string) (int64, bool) {
	ct, ok := v.catalog.Types[typeName]
	if !ok {
		return 0, false
	}
	return ct.ID, true
}

// CaseInsensitiveDialect implements TypeConfiguration.
func (v *View) CaseInsensitiveDialect() bool {
	return v.catalog.Dialect == DialectDerby
}

// Dialect returns the catalog dialect.
func (v *View) Dialect() Dialect {
	return v.catalog.Dialect
}

// Tables returns the tables a statement over this type joins: the shared
// tables followed by the type's own.
func (v *View) Tables() []Table {
	tables := slices.Clone(v.catalog.Tables)
	if v.contentType != nil {
		tables = append(tables, v.contentType.Tables...)
	}
	return tables
}

// Properties returns every property name visible through the view in
// sorted order, reserved properties excluded.
func (v *View) Properties() []string {
	seen := make(map[string]bool)
	for name := range v.catalog.Properties {
		seen[name] = true
	}
	if v.contentType != nil {
		for name := range v.contentType.Properties {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Source yields the configuration of a content type.
type Source interface {
	Lookup(typeName string) (TypeConfiguration, bool)
}

// TableLayout is implemented by configurations that know the tables a
// statement over the content type joins.
type TableLayout interface {
	Tables() []Table
}

var _ Source = (*Catalog)(nil)

// Lookup implements Source.
func (c *Catalog) Lookup(typeName string) (TypeConfiguration, bool) {
	v, ok := c.ForType(typeName)
	if !ok {
		return nil, false
	}
	return v, true
}

package typeconf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// ConfigError is a catalog problem with its CUE source position.
type ConfigError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *ConfigError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsConfigError returns true if err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// ConfigErrors returns every *ConfigError in err, which may be joined.
func ConfigErrors(err error) []*ConfigError {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []*ConfigError
		for _, e := range joined.Unwrap() {
			out = append(out, ConfigErrors(e)...)
		}
		return out
	}
	var ce *ConfigError
	if errors.As(err, &ce) {
		return []*ConfigError{ce}
	}
	return nil
}

// Load reads every CUE file in dir as one package and decodes the catalog.
// The result is validated; all problems are returned joined.
func Load(dir string) (*Catalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("type configuration: %w", err)
	}
	if !info.IsDir() {
		// a single file is loaded on its own
		data, err := os.ReadFile(dir)
		if err != nil {
			return nil, fmt.Errorf("type configuration: %w", err)
		}
		return LoadString(string(data), dir)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}

	value := ctx.BuildInstance(inst)
	return decodeAndValidate(value)
}

// LoadString compiles CUE source text. filename is used in positions.
func LoadString(src, filename string) (*Catalog, error) {
	ctx := cuecontext.New()
	value := ctx.CompileString(src, cue.Filename(filename))
	return decodeAndValidate(value)
}

func decodeAndValidate(v cue.Value) (*Catalog, error) {
	cat, err := Decode(v)
	if err != nil {
		return nil, err
	}
	if problems := Validate(cat); len(problems) > 0 {
		errs := make([]error, len(problems))
		for i, p := range problems {
			errs[i] = p
		}
		return nil, errors.Join(errs...)
	}
	return cat, nil
}

// Decode converts a CUE value into a Catalog without semantic checks.
func Decode(v cue.Value) (*Catalog, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	cat := &Catalog{
		Dialect:    DialectGeneric,
		Properties: make(map[string]Column),
		Types:      make(map[string]*ContentType),
		positions:  make(map[string]token.Pos),
	}

	if d := v.LookupPath(cue.ParsePath("dialect")); d.Exists() {
		s, err := d.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		cat.Dialect = Dialect(strings.ToLower(s))
		cat.positions["dialect"] = d.Pos()
	}

	sys := v.LookupPath(cue.ParsePath("system"))
	if !sys.Exists() {
		return nil, &ConfigError{Field: "system", Message: "system columns are required", Pos: v.Pos()}
	}
	var err error
	if cat.System.ContentTypeID, err = decodeRequiredColumn(sys, "contentTypeId", "system.contentTypeId"); err != nil {
		return nil, err
	}
	if cat.System.FolderID, err = decodeRequiredColumn(sys, "folderId", "system.folderId"); err != nil {
		return nil, err
	}

	if cat.Tables, err = decodeTables(v.LookupPath(cue.ParsePath("tables")), "tables"); err != nil {
		return nil, err
	}

	if err := decodeProperties(v.LookupPath(cue.ParsePath("properties")), "properties", cat.Properties, cat.positions); err != nil {
		return nil, err
	}

	typesVal := v.LookupPath(cue.ParsePath("contentType"))
	if typesVal.Exists() {
		iter, err := typesVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			ct, err := decodeContentType(iter.Label(), iter.Value(), cat.positions)
			if err != nil {
				return nil, err
			}
			cat.Types[ct.Name] = ct
		}
	}

	return cat, nil
}

func decodeContentType(name string, v cue.Value, positions map[string]token.Pos) (*ContentType, error) {
	field := "contentType." + name
	positions[field] = v.Pos()

	idVal := v.LookupPath(cue.ParsePath("id"))
	if !idVal.Exists() {
		return nil, &ConfigError{Field: field + ".id", Message: "content type id is required", Pos: v.Pos()}
	}
	id, err := idVal.Int64()
	if err != nil {
		return nil, formatCUEError(err)
	}

	ct := &ContentType{
		Name:       name,
		ID:         id,
		Properties: make(map[string]Column),
	}
	if ct.Tables, err = decodeTables(v.LookupPath(cue.ParsePath("tables")), field+".tables"); err != nil {
		return nil, err
	}
	if err := decodeProperties(v.LookupPath(cue.ParsePath("properties")), field+".properties", ct.Properties, positions); err != nil {
		return nil, err
	}
	return ct, nil
}

func decodeTables(v cue.Value, field string) ([]Table, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var tables []Table
	for iter.Next() {
		elem := iter.Value()
		alias, err := lookupString(elem, "alias", field, true)
		if err != nil {
			return nil, err
		}
		name, err := lookupString(elem, "table", field, true)
		if err != nil {
			return nil, err
		}
		join, err := lookupString(elem, "join", field, false)
		if err != nil {
			return nil, err
		}
		tables = append(tables, Table{Alias: alias, Name: name, Join: join})
	}
	return tables, nil
}

func decodeProperties(v cue.Value, field string, into map[string]Column, positions map[string]token.Pos) error {
	if !v.Exists() {
		return nil
	}
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Label()
		col, err := decodeColumn(iter.Value(), field+"."+name)
		if err != nil {
			return err
		}
		into[name] = col
		positions[field+"."+name] = iter.Value().Pos()
	}
	return nil
}

func decodeRequiredColumn(parent cue.Value, label, field string) (Column, error) {
	v := parent.LookupPath(cue.ParsePath(label))
	if !v.Exists() {
		return Column{}, &ConfigError{Field: field, Message: "column is required", Pos: parent.Pos()}
	}
	return decodeColumn(v, field)
}

// decodeColumn reads {alias, column, type}. A bare string is a column
// name without alias.
func decodeColumn(v cue.Value, field string) (Column, error) {
	if s, err := v.String(); err == nil {
		return Column{Column: s, SQLType: "VARCHAR"}, nil
	}
	alias, err := lookupString(v, "alias", field, false)
	if err != nil {
		return Column{}, err
	}
	column, err := lookupString(v, "column", field, true)
	if err != nil {
		return Column{}, err
	}
	sqlType, err := lookupString(v, "type", field, false)
	if err != nil {
		return Column{}, err
	}
	if sqlType == "" {
		sqlType = "VARCHAR"
	}
	return Column{Alias: alias, Column: column, SQLType: strings.ToUpper(sqlType)}, nil
}

func lookupString(v cue.Value, label, field string, required bool) (string, error) {
	f := v.LookupPath(cue.ParsePath(label))
	if !f.Exists() {
		if required {
			return "", &ConfigError{Field: field + "." + label, Message: "is required", Pos: v.Pos()}
		}
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", &ConfigError{Field: field + "." + label, Message: "must be a string", Pos: f.Pos()}
	}
	return s, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return &ConfigError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}

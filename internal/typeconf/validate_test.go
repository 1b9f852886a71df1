package typeconf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCatalog() *Catalog {
	return &Catalog{
		Dialect: DialectGeneric,
		System: SystemColumns{
			ContentTypeID: Column{Alias: "cs", Column: "m_contentTypeId", SQLType: "INTEGER"},
			FolderID:      Column{Alias: "f", Column: "owner_id", SQLType: "INTEGER"},
		},
		Tables: []Table{{Alias: "cs", Name: "CONTENTSTATUS"}, {Alias: "f", Name: "FOLDER_ITEMS", Join: "f.item_id = cs.CONTENTID"}},
		Properties: map[string]Column{
			"rx:sys_title": {Alias: "cs", Column: "TITLE", SQLType: "VARCHAR"},
		},
		Types: map[string]*ContentType{
			"rx:page": {
				Name:       "rx:page",
				ID:         311,
				Tables:     []Table{{Alias: "c0", Name: "CT_PAGE", Join: "c0.CONTENTID = cs.CONTENTID"}},
				Properties: map[string]Column{"rx:title": {Alias: "c0", Column: "TITLE", SQLType: "VARCHAR"}},
			},
		},
	}
}

func TestValidateValid(t *testing.T) {
	assert.Empty(t, Validate(validCatalog()))
}

func TestValidateProblems(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(c *Catalog)
		field  string
	}{
		{"unknown dialect", func(c *Catalog) { c.Dialect = "oracle" }, "dialect"},
		{"missing folder column", func(c *Catalog) { c.System.FolderID = Column{} }, "system.folderId"},
		{"duplicate shared alias", func(c *Catalog) { c.Tables = append(c.Tables, Table{Alias: "cs", Name: "X"}) }, "tables"},
		{"negative id", func(c *Catalog) { c.Types["rx:page"].ID = -1 }, "contentType.rx:page"},
		{"duplicate id", func(c *Catalog) {
			c.Types["rx:other"] = &ContentType{Name: "rx:other", ID: 311}
		}, "contentType.rx:page"},
		{"type alias shadows shared", func(c *Catalog) {
			c.Types["rx:page"].Tables = append(c.Types["rx:page"].Tables, Table{Alias: "f", Name: "X"})
		}, "contentType.rx:page.tables"},
		{"unknown alias", func(c *Catalog) {
			c.Types["rx:page"].Properties["rx:x"] = Column{Alias: "zz", Column: "X"}
		}, "contentType.rx:page.properties.rx:x"},
		{"shared property uses type alias", func(c *Catalog) {
			c.Properties["rx:y"] = Column{Alias: "c0", Column: "Y"}
		}, "properties.rx:y"},
		{"reserved property", func(c *Catalog) {
			c.Properties["jcr:path"] = Column{Alias: "cs", Column: "PATH"}
		}, "properties.jcr:path"},
		{"empty column", func(c *Catalog) {
			c.Properties["rx:z"] = Column{Alias: "cs"}
		}, "properties.rx:z"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := validCatalog()
			tc.mutate(c)

			problems := Validate(c)
			require.Len(t, problems, 1, "problems: %v", problems)
			assert.Equal(t, tc.field, problems[0].Field)
		})
	}
}

package testutil

import (
	"github.com/roach88/jcrq/internal/typeconf"
)

// Content type ids of the fixture catalog.
const (
	TypeTID     int64 = 42
	PageTypeID  int64 = 311
	ImageTypeID int64 = 312
)

// Catalog returns the fixture catalog. Every call returns a fresh copy.
//
// The shared properties A and B live in the c0 child table, the content
// type id in cs.m_contentTypeId and the folder id in f.owner_id, matching
// the aliases of the reference compilation
//
//	(f.owner_id in (301,302) AND ((cs.m_contentTypeId = :p0 AND c0.A != :p1) OR c0.B = :p2))
func Catalog() *typeconf.Catalog {
	return &typeconf.Catalog{
		Dialect: typeconf.DialectGeneric,
		System: typeconf.SystemColumns{
			ContentTypeID: typeconf.Column{Alias: "cs", Column: "m_contentTypeId", SQLType: "INTEGER"},
			FolderID:      typeconf.Column{Alias: "f", Column: "owner_id", SQLType: "INTEGER"},
		},
		Properties: map[string]typeconf.Column{
			"A":                {Alias: "c0", Column: "A", SQLType: "VARCHAR"},
			"B":                {Alias: "c0", Column: "B", SQLType: "VARCHAR"},
			"rx:sys_title":     {Alias: "cs", Column: "TITLE", SQLType: "VARCHAR"},
			"rx:sys_contentid": {Alias: "cs", Column: "CONTENTID", SQLType: "INTEGER"},
		},
		Types: map[string]*typeconf.ContentType{
			"T": {
				Name:       "T",
				ID:         TypeTID,
				Properties: map[string]typeconf.Column{},
			},
			"rx:page": {
				Name: "rx:page",
				ID:   PageTypeID,
				Properties: map[string]typeconf.Column{
					"rx:title":   {Alias: "c0", Column: "TITLE", SQLType: "VARCHAR"},
					"rx:body":    {Alias: "c0", Column: "BODY", SQLType: "CLOB"},
					"rx:pr_type": {Alias: "c0", Column: "PR_TYPE", SQLType: "VARCHAR"},
				},
			},
			"rx:image": {
				Name: "rx:image",
				ID:   ImageTypeID,
				Properties: map[string]typeconf.Column{
					"rx:width": {Alias: "c0", Column: "WIDTH", SQLType: "INTEGER"},
				},
			},
		},
	}
}

// DerbyCatalog returns the fixture catalog with the Derby dialect.
func DerbyCatalog() *typeconf.Catalog {
	c := Catalog()
	c.Dialect = typeconf.DialectDerby
	return c
}

// Folders is the folder table of the reference compilation.
func Folders() map[string][]int64 {
	return map[string][]int64{
		"/sites/x/%": {302, 301},
		"/sites/x":   {301},
		"/sites/%":   {300, 301, 302, 303},
	}
}

// Package query builds the PostgreSQL statements the document stores run,
// from a projection of logical field names onto table columns.
package query

import "strings"

// ProjectionMap binds logical field names (the JSON-facing names such as
// "UpdatedAt") to alias-qualified columns of one table.
type ProjectionMap struct {
	schema string
	table  string
	alias  string

	byField  map[string]string
	byLookup map[string]string
	ordered  []string
}

// NewProjectionMap starts a projection over schema.table using alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		schema:   schema,
		table:    table,
		alias:    alias,
		byField:  map[string]string{},
		byLookup: map[string]string{},
	}
}

// Project maps field to column and adds the column to the select list, in
// call order.
func (p *ProjectionMap) Project(column, field string) *ProjectionMap {
	qualified := p.alias + "." + column
	p.byField[field] = qualified
	p.byLookup[strings.ToLower(field)] = qualified
	p.byLookup[strings.ToLower(column)] = qualified
	p.ordered = append(p.ordered, qualified)
	return p
}

// Alias returns the table alias.
func (p *ProjectionMap) Alias() string {
	return p.alias
}

// Table returns "schema.table alias".
func (p *ProjectionMap) Table() string {
	return p.schema + "." + p.table + " " + p.alias
}

// From returns the FROM clause body.
func (p *ProjectionMap) From() string {
	return p.Table()
}

// Column returns the qualified column for a field the caller's code names.
// Unmapped names pass through unchanged, so never feed it client input; use
// Lookup for that.
func (p *ProjectionMap) Column(field string) string {
	if col, ok := p.byField[field]; ok {
		return col
	}
	return field
}

// Lookup resolves a client-supplied name to its column. It accepts the field
// name in any letter case ("UpdatedAt", "updatedAt") or the bare column name
// ("updated_at"), and reports false for anything else.
func (p *ProjectionMap) Lookup(name string) (string, bool) {
	col, ok := p.byLookup[strings.ToLower(strings.TrimSpace(name))]
	return col, ok
}

// Columns returns the select list.
func (p *ProjectionMap) Columns() string {
	return strings.Join(p.ordered, ", ")
}

// ColumnList returns the select list as a slice.
func (p *ProjectionMap) ColumnList() []string {
	return p.ordered
}

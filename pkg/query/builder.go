package query

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// params collects positional arguments while a statement is rendered and
// hands out their $n placeholders.
type params struct {
	args []any
}

func (p *params) bind(v any) string {
	p.args = append(p.args, v)
	return "$" + strconv.Itoa(len(p.args))
}

// condition renders one WHERE term, binding its arguments as it goes, so
// placeholder numbers follow render order in every statement built.
type condition func(p *params) string

// SortField is one ORDER BY term named by logical field.
type SortField struct {
	Field      string
	Descending bool
}

// Builder assembles SELECT statements over a ProjectionMap. Filters are
// ANDed; nil or empty filter values are skipped so optional query parameters
// can be passed straight through.
type Builder struct {
	projection *ProjectionMap
	conditions []condition
	sort       []SortField
	defaults   []SortField
	tiebreak   string
}

// NewBuilder creates a Builder that orders by defaultSort unless a usable
// client sort is set.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection: projection,
		defaults:   defaultSort,
	}
}

// ParseSortFields reads "name,-updatedAt" into sort fields; a leading "-"
// means descending. Empty entries are skipped and empty input yields nil.
func ParseSortFields(s string) []SortField {
	if s == "" {
		return nil
	}

	var fields []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		name, desc := strings.CutPrefix(part, "-")
		if name == "" {
			continue
		}
		fields = append(fields, SortField{Field: name, Descending: desc})
	}
	return fields
}

// Build returns the filtered, ordered SELECT.
func (b *Builder) Build() (string, []any) {
	var p params
	sql := "SELECT " + b.projection.Columns() + " FROM " + b.projection.From() + b.where(&p) + b.orderBy()
	return sql, p.args
}

// BuildCount returns SELECT COUNT(*) under the same filters.
func (b *Builder) BuildCount() (string, []any) {
	var p params
	sql := "SELECT COUNT(*) FROM " + b.projection.From() + b.where(&p)
	return sql, p.args
}

// BuildPage returns one page of the ordered SELECT. Pages are 1-based; page
// and size below one are raised to one.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	page = max(page, 1)
	pageSize = max(pageSize, 1)

	sql, args := b.Build()
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", sql, pageSize, (page-1)*pageSize), args
}

// BuildSingle selects the row whose idField equals id, ignoring any other
// conditions on the builder.
func (b *Builder) BuildSingle(idField string, id any) (string, []any) {
	var p params
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		b.projection.Columns(), b.projection.From(), b.projection.Column(idField), p.bind(id))
	return sql, p.args
}

// BuildSingleOrNull selects at most one row under the current filters and
// ordering.
func (b *Builder) BuildSingleOrNull() (string, []any) {
	sql, args := b.Build()
	return sql + " LIMIT 1", args
}

// OrderByFields sets a client-requested order. Fields the projection does not
// map are dropped; if none remain the default order applies.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.sort = fields
	return b
}

// Tiebreak appends field, ascending, to every ORDER BY that does not already
// include it, so rows with equal sort keys page deterministically.
func (b *Builder) Tiebreak(field string) *Builder {
	b.tiebreak = field
	return b
}

// WhereEquals matches field = value. Nil values, including typed nil
// pointers, are skipped.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	col := b.projection.Column(field)
	return b.add(func(p *params) string {
		return col + " = " + p.bind(value)
	})
}

// WhereIn matches field against any of values. An empty list is skipped.
func (b *Builder) WhereIn(field string, values []any) *Builder {
	if len(values) == 0 {
		return b
	}
	col := b.projection.Column(field)
	return b.add(func(p *params) string {
		holders := make([]string, len(values))
		for i, v := range values {
			holders[i] = p.bind(v)
		}
		return col + " IN (" + strings.Join(holders, ", ") + ")"
	})
}

// WhereContains matches field case-insensitively against value as a literal
// substring: LIKE wildcards in value are escaped.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	col := b.projection.Column(field)
	pattern := containsPattern(*value)
	return b.add(func(p *params) string {
		return col + " ILIKE " + p.bind(pattern)
	})
}

// WhereSearch matches when any of fields contains search, with the same
// literal matching as WhereContains.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" || len(fields) == 0 {
		return b
	}
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = b.projection.Column(f)
	}
	pattern := containsPattern(*search)
	return b.add(func(p *params) string {
		terms := make([]string, len(cols))
		for i, col := range cols {
			terms[i] = col + " ILIKE " + p.bind(pattern)
		}
		return "(" + strings.Join(terms, " OR ") + ")"
	})
}

// WhereJSONContains matches a jsonb field that contains doc (the @>
// operator), e.g. []map[string]string{{"email": e}} against an array of
// objects. A nil doc is skipped.
func (b *Builder) WhereJSONContains(field string, doc any) *Builder {
	if isNil(doc) {
		return b
	}
	data, err := json.Marshal(doc)
	if err != nil {
		panic(fmt.Errorf("query: jsonb filter on %s: %w", field, err))
	}
	col := b.projection.Column(field)
	return b.add(func(p *params) string {
		return col + " @> " + p.bind(string(data)) + "::jsonb"
	})
}

// WhereRange matches from <= field < to. Either bound may be nil to leave
// that side open.
func (b *Builder) WhereRange(field string, from, to any) *Builder {
	col := b.projection.Column(field)
	if !isNil(from) {
		b.add(func(p *params) string { return col + " >= " + p.bind(from) })
	}
	if !isNil(to) {
		b.add(func(p *params) string { return col + " < " + p.bind(to) })
	}
	return b
}

func (b *Builder) add(c condition) *Builder {
	b.conditions = append(b.conditions, c)
	return b
}

func (b *Builder) where(p *params) string {
	if len(b.conditions) == 0 {
		return ""
	}
	terms := make([]string, len(b.conditions))
	for i, c := range b.conditions {
		terms[i] = c(p)
	}
	return " WHERE " + strings.Join(terms, " AND ")
}

func (b *Builder) orderBy() string {
	terms, seen := b.resolve(b.sort)
	if len(terms) == 0 {
		terms, seen = b.resolve(b.defaults)
	}
	if b.tiebreak != "" {
		if col, ok := b.projection.Lookup(b.tiebreak); ok && !seen[col] {
			terms = append(terms, col+" ASC")
		}
	}
	if len(terms) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(terms, ", ")
}

// resolve turns sort fields into ORDER BY terms. Only mapped names reach the
// SQL; a repeated column keeps its first direction.
func (b *Builder) resolve(fields []SortField) ([]string, map[string]bool) {
	terms := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		col, ok := b.projection.Lookup(f.Field)
		if !ok || seen[col] {
			continue
		}
		seen[col] = true
		dir := " ASC"
		if f.Descending {
			dir = " DESC"
		}
		terms = append(terms, col+dir)
	}
	return terms, seen
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}

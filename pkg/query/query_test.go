package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rajinweb/contract-esign-sub000/pkg/query"
)

func versionProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "document_versions", "v").
		Project("document_id", "DocumentID").
		Project("version", "Version").
		Project("status", "Status")
}

func ptr(s string) *string { return &s }

const columns = "v.document_id, v.version, v.status"

func TestProjectionMap(t *testing.T) {
	p := versionProjection()

	assert.Equal(t, "v", p.Alias())
	assert.Equal(t, "public.document_versions v", p.Table())
	assert.Equal(t, p.Table(), p.From())
	assert.Equal(t, columns, p.Columns())
	assert.Equal(t, []string{"v.document_id", "v.version", "v.status"}, p.ColumnList())
	assert.Equal(t, "v.version", p.Column("Version"))
	assert.Equal(t, "unknown", p.Column("unknown"))

	for _, name := range []string{"Version", "version", " VERSION ", "document_id", "documentId"} {
		col, ok := p.Lookup(name)
		assert.True(t, ok, name)
		assert.Contains(t, []string{"v.version", "v.document_id"}, col, name)
	}
	_, ok := p.Lookup("v.version; DROP TABLE documents")
	assert.False(t, ok)
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		input string
		want  []query.SortField
	}{
		{"", nil},
		{"Version", []query.SortField{{Field: "Version"}}},
		{"-Version", []query.SortField{{Field: "Version", Descending: true}}},
		{" Status , -Version ", []query.SortField{{Field: "Status"}, {Field: "Version", Descending: true}}},
		{"Status,,Version", []query.SortField{{Field: "Status"}, {Field: "Version"}}},
		{"-,Version", []query.SortField{{Field: "Version"}}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, query.ParseSortFields(tt.input), tt.input)
	}
}

func TestBuilder(t *testing.T) {
	tests := []struct {
		name     string
		build    func() (string, []any)
		wantSQL  string
		wantArgs []any
	}{
		{
			name: "build without conditions",
			build: func() (string, []any) {
				return query.NewBuilder(versionProjection()).Build()
			},
			wantSQL: "SELECT " + columns + " FROM public.document_versions v",
		},
		{
			name: "count with conditions",
			build: func() (string, []any) {
				return query.NewBuilder(versionProjection()).WhereEquals("Status", "draft").BuildCount()
			},
			wantSQL:  "SELECT COUNT(*) FROM public.document_versions v WHERE v.status = $1",
			wantArgs: []any{"draft"},
		},
		{
			name: "page with default sort",
			build: func() (string, []any) {
				return query.NewBuilder(versionProjection(), query.SortField{Field: "Version", Descending: true}).BuildPage(2, 10)
			},
			wantSQL: "SELECT " + columns + " FROM public.document_versions v ORDER BY v.version DESC LIMIT 10 OFFSET 10",
		},
		{
			name: "single by id",
			build: func() (string, []any) {
				return query.NewBuilder(versionProjection()).BuildSingle("DocumentID", "abc")
			},
			wantSQL:  "SELECT " + columns + " FROM public.document_versions v WHERE v.document_id = $1",
			wantArgs: []any{"abc"},
		},
		{
			name: "single or null numbers parameters in order",
			build: func() (string, []any) {
				return query.NewBuilder(versionProjection()).
					WhereEquals("DocumentID", "abc").
					WhereEquals("Version", 2).
					BuildSingleOrNull()
			},
			wantSQL:  "SELECT " + columns + " FROM public.document_versions v WHERE v.document_id = $1 AND v.version = $2 LIMIT 1",
			wantArgs: []any{"abc", 2},
		},
		{
			name: "nil and empty values are skipped",
			build: func() (string, []any) {
				var status *string
				return query.NewBuilder(versionProjection()).
					WhereEquals("Status", status).
					WhereContains("Status", ptr("")).
					WhereSearch(nil, "Status").
					WhereIn("Version", nil).
					Build()
			},
			wantSQL: "SELECT " + columns + " FROM public.document_versions v",
		},
		{
			name: "search and in",
			build: func() (string, []any) {
				return query.NewBuilder(versionProjection()).
					WhereSearch(ptr("dra"), "Status", "DocumentID").
					WhereIn("Version", []any{1, 2}).
					Build()
			},
			wantSQL:  "SELECT " + columns + " FROM public.document_versions v WHERE (v.status ILIKE $1 OR v.document_id ILIKE $2) AND v.version IN ($3, $4)",
			wantArgs: []any{"%dra%", "%dra%", 1, 2},
		},
		{
			name: "explicit order overrides default",
			build: func() (string, []any) {
				return query.NewBuilder(versionProjection(), query.SortField{Field: "Version"}).
					OrderByFields([]query.SortField{{Field: "Status", Descending: true}, {Field: "Version"}}).
					Build()
			},
			wantSQL: "SELECT " + columns + " FROM public.document_versions v ORDER BY v.status DESC, v.version ASC",
		},
		{
			name: "unmapped sort fields never reach the statement",
			build: func() (string, []any) {
				return query.NewBuilder(versionProjection(), query.SortField{Field: "Version"}).
					OrderByFields(query.ParseSortFields("(SELECT 1),-pg_sleep(10)")).
					Build()
			},
			wantSQL: "SELECT " + columns + " FROM public.document_versions v ORDER BY v.version ASC",
		},
		{
			name: "client sort accepts column names and drops repeats",
			build: func() (string, []any) {
				return query.NewBuilder(versionProjection()).
					OrderByFields(query.ParseSortFields("-status,Status,bogus")).
					Build()
			},
			wantSQL: "SELECT " + columns + " FROM public.document_versions v ORDER BY v.status DESC",
		},
		{
			name: "tiebreak appended once",
			build: func() (string, []any) {
				return query.NewBuilder(versionProjection(), query.SortField{Field: "Status"}).
					Tiebreak("DocumentID").
					BuildPage(0, 0)
			},
			wantSQL: "SELECT " + columns + " FROM public.document_versions v ORDER BY v.status ASC, v.document_id ASC LIMIT 1 OFFSET 0",
		},
		{
			name: "tiebreak already sorted",
			build: func() (string, []any) {
				return query.NewBuilder(versionProjection()).
					OrderByFields([]query.SortField{{Field: "DocumentID", Descending: true}}).
					Tiebreak("DocumentID").
					Build()
			},
			wantSQL: "SELECT " + columns + " FROM public.document_versions v ORDER BY v.document_id DESC",
		},
		{
			name: "like wildcards are literal",
			build: func() (string, []any) {
				return query.NewBuilder(versionProjection()).
					WhereContains("Status", ptr(`50%_off\`)).
					Build()
			},
			wantSQL:  "SELECT " + columns + " FROM public.document_versions v WHERE v.status ILIKE $1",
			wantArgs: []any{`%50\%\_off\\%`},
		},
		{
			name: "jsonb containment and range",
			build: func() (string, []any) {
				return query.NewBuilder(versionProjection()).
					WhereEquals("DocumentID", "abc").
					WhereJSONContains("Status", []map[string]string{{"email": "a@b.c"}}).
					WhereRange("Version", 2, nil).
					WhereRange("Version", nil, 5).
					BuildCount()
			},
			wantSQL:  "SELECT COUNT(*) FROM public.document_versions v WHERE v.document_id = $1 AND v.status @> $2::jsonb AND v.version >= $3 AND v.version < $4",
			wantArgs: []any{"abc", `[{"email":"a@b.c"}]`, 2, 5},
		},
		{
			name: "nil jsonb and open range are skipped",
			build: func() (string, []any) {
				var doc []map[string]string
				return query.NewBuilder(versionProjection()).
					WhereJSONContains("Status", doc).
					WhereRange("Version", nil, nil).
					Build()
			},
			wantSQL: "SELECT " + columns + " FROM public.document_versions v",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := tt.build()
			assert.Equal(t, tt.wantSQL, sql)
			if tt.wantArgs == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

package pagination_test

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajinweb/contract-esign-sub000/pkg/pagination"
	"github.com/rajinweb/contract-esign-sub000/pkg/query"
)

func defaultConfig() pagination.Config {
	return pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}
}

func TestConfigFinalize(t *testing.T) {
	var cfg pagination.Config
	require.NoError(t, cfg.Finalize(nil))
	assert.Equal(t, defaultConfig(), cfg)

	t.Setenv("ESIGN_PAGE_SIZE", "50")
	t.Setenv("ESIGN_MAX_PAGE_SIZE", "200")

	env := &pagination.ConfigEnv{DefaultPageSize: "ESIGN_PAGE_SIZE", MaxPageSize: "ESIGN_MAX_PAGE_SIZE"}
	cfg = pagination.Config{}
	require.NoError(t, cfg.Finalize(env))
	assert.Equal(t, 50, cfg.DefaultPageSize)
	assert.Equal(t, 200, cfg.MaxPageSize)

	bad := pagination.Config{DefaultPageSize: 500, MaxPageSize: 100}
	assert.ErrorContains(t, bad.Finalize(nil), "cannot exceed")

	huge := pagination.Config{MaxPageSize: pagination.PageSizeCeiling + 1}
	assert.ErrorContains(t, huge.Finalize(nil), "max_page_size 1001 exceeds 1000")

	t.Setenv("ESIGN_PAGE_SIZE", "-3")
	cfg = pagination.Config{}
	assert.ErrorContains(t, cfg.Finalize(env), "default_page_size must be positive")
}

func TestConfigMerge(t *testing.T) {
	base := defaultConfig()
	base.Merge(&pagination.Config{MaxPageSize: 50})
	assert.Equal(t, 20, base.DefaultPageSize)
	assert.Equal(t, 50, base.MaxPageSize)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name         string
		in           pagination.PageRequest
		wantPage     int
		wantPageSize int
	}{
		{"zero values", pagination.PageRequest{}, 1, 20},
		{"negative page", pagination.PageRequest{Page: -3, PageSize: 10}, 1, 10},
		{"clamped size", pagination.PageRequest{Page: 2, PageSize: 1000}, 2, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.in
			req.Normalize(defaultConfig())
			assert.Equal(t, tt.wantPage, req.Page)
			assert.Equal(t, tt.wantPageSize, req.PageSize)
		})
	}

	req := pagination.PageRequest{Page: 3, PageSize: 25}
	assert.Equal(t, 50, req.Offset())
}

func TestPageRequestFromQuery(t *testing.T) {
	values := url.Values{
		"page":     {"2"},
		"pageSize": {"15"},
		"search":   {"lease"},
		"sort":     {"Name,-UpdatedAt"},
	}

	req := pagination.PageRequestFromQuery(values, defaultConfig())
	assert.Equal(t, 2, req.Page)
	assert.Equal(t, 15, req.PageSize)
	require.NotNil(t, req.Search)
	assert.Equal(t, "lease", *req.Search)
	assert.Equal(t, pagination.SortFields{{Field: "Name"}, {Field: "UpdatedAt", Descending: true}}, req.Sort)

	legacy := pagination.PageRequestFromQuery(url.Values{"page_size": {"30"}}, defaultConfig())
	assert.Equal(t, 1, legacy.Page)
	assert.Equal(t, 30, legacy.PageSize)
	assert.Nil(t, legacy.Search)
}

func TestSortFieldsUnmarshal(t *testing.T) {
	var fromString pagination.PageRequest
	require.NoError(t, json.Unmarshal([]byte(`{"page":1,"pageSize":5,"sort":"-Name"}`), &fromString))
	assert.Equal(t, 5, fromString.PageSize)
	assert.Equal(t, pagination.SortFields{{Field: "Name", Descending: true}}, fromString.Sort)

	var fromArray pagination.PageRequest
	require.NoError(t, json.Unmarshal([]byte(`{"sort":[{"Field":"Status","Descending":false}]}`), &fromArray))
	assert.Equal(t, pagination.SortFields{query.SortField{Field: "Status"}}, fromArray.Sort)

	var bad pagination.PageRequest
	assert.Error(t, json.Unmarshal([]byte(`{"sort":42}`), &bad))
}

func TestNewPageResult(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		pageSize  int
		wantPages int
	}{
		{"exact", 40, 20, 2},
		{"remainder", 41, 20, 3},
		{"empty", 0, 20, 1},
		{"zero size", 7, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := pagination.NewPageResult[string](nil, tt.total, 1, tt.pageSize)
			assert.Equal(t, tt.wantPages, res.TotalPages)
			assert.NotNil(t, res.Data)
		})
	}

	body, err := json.Marshal(pagination.NewPageResult([]int{1}, 1, 1, 10))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[1],"total":1,"page":1,"pageSize":10,"totalPages":1}`, string(body))
}

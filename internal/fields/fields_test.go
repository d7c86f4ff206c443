package fields_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajinweb/contract-esign-sub000/internal/fields"
)

func ptr(s string) *string { return &s }

func TestChecked(t *testing.T) {
	tests := []struct {
		value fields.Value
		want  bool
	}{
		{"true", true},
		{"checked", true},
		{"", false},
		{"false", false},
		{"TRUE", false},
		{"yes", false},
		{"1", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.value), func(t *testing.T) {
			f := fields.Field{Type: fields.Checkbox, Value: tt.value}
			assert.Equal(t, tt.want, f.Checked())
			assert.Equal(t, tt.want, f.Renderable())
		})
	}
}

func TestValueAcceptsJSONScalars(t *testing.T) {
	raw := `[
		{"id":"a","type":"checkbox","value":true,"pageNumber":1},
		{"id":"b","type":"text","value":"hello","pageNumber":1},
		{"id":"c","type":"text","value":12.5,"pageNumber":2},
		{"id":"d","type":"text","value":null,"pageNumber":1}
	]`

	list, err := fields.Parse(raw)
	require.NoError(t, err)
	require.Len(t, list, 4)

	assert.Equal(t, fields.Value("true"), list[0].Value)
	assert.True(t, list[0].Checked())
	assert.Equal(t, fields.Value("hello"), list[1].Value)
	assert.Equal(t, fields.Value("12.5"), list[2].Value)
	assert.Equal(t, fields.Value(""), list[3].Value)
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{`},
		{"missing id", `[{"type":"text","pageNumber":1}]`},
		{"page zero", `[{"id":"a","type":"text","pageNumber":0}]`},
		{"negative width", `[{"id":"a","type":"text","pageNumber":1,"width":-1}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fields.Parse(tt.raw)
			assert.ErrorIs(t, err, fields.ErrInvalid)
		})
	}

	list, err := fields.Parse("")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEqualIgnoresOrder(t *testing.T) {
	a := []fields.Field{
		{ID: "2", Type: fields.Text, Value: "b", PageNumber: 1},
		{ID: "1", Type: fields.Signature, PageNumber: 2, RecipientID: ptr("r1")},
	}
	b := []fields.Field{a[1], a[0]}

	assert.True(t, fields.Equal(a, b))

	b[0].X = 10
	assert.False(t, fields.Equal(a, b))

	assert.True(t, fields.Equal(nil, []fields.Field{}))
}

func TestCanonicalIsStable(t *testing.T) {
	list := []fields.Field{{ID: "b"}, {ID: "a"}}

	got, err := fields.Canonical(list)
	require.NoError(t, err)

	var decoded []fields.Field
	require.NoError(t, json.Unmarshal(got, &decoded))
	assert.Equal(t, "a", decoded[0].ID)
	assert.Equal(t, "b", list[0].ID, "input must not be reordered")
}

func TestReplayKeepsSignedValues(t *testing.T) {
	stored := []fields.Field{
		{ID: "sig", Type: fields.Signature, Value: "data:image/png;base64,AAA", RecipientID: ptr("alice")},
		{ID: "name", Type: fields.Text, Value: "Bob", RecipientID: ptr("bob")},
	}
	incoming := []fields.Field{
		{ID: "sig", Type: fields.Signature, RecipientID: ptr("carol")},
		{ID: "name", Type: fields.Text, RecipientID: ptr("bob")},
		{ID: "new", Type: fields.Date},
	}

	signed := func(id string) bool { return id == "alice" }

	out := fields.Replay(incoming, stored, signed)

	assert.Equal(t, fields.Value("data:image/png;base64,AAA"), out[0].Value)
	assert.Equal(t, "carol", *out[0].RecipientID)
	assert.Equal(t, fields.Value(""), out[1].Value, "unsigned recipient values are not replayed")
	assert.Equal(t, fields.Value(""), out[2].Value)
	assert.Equal(t, fields.Value(""), incoming[0].Value, "input must not be mutated")
}

func TestTally(t *testing.T) {
	list := []fields.Field{
		{ID: "1", Type: fields.Signature, Value: "data:image/png;base64,AAA"},
		{ID: "2", Type: fields.Signature, Value: "data:image/png;base64,BBB"},
		{ID: "3", Type: fields.Date, Value: "2026-01-02"},
		{ID: "4", Type: fields.Checkbox, Value: "false"},
		{ID: "5", Type: fields.Text},
	}

	assert.Equal(t, "2 signatures, 1 date", fields.Tally(list))
	assert.Equal(t, "no completed fields", fields.Tally(nil))
}

func TestTypeClassification(t *testing.T) {
	for _, typ := range []fields.Type{fields.Signature, fields.Initials, fields.Stamp, fields.Image, fields.RealtimePhoto} {
		assert.True(t, typ.IsImage(), typ)
		assert.True(t, typ.Known(), typ)
	}
	for _, typ := range []fields.Type{fields.Text, fields.Date, fields.Checkbox} {
		assert.False(t, typ.IsImage(), typ)
		assert.True(t, typ.Known(), typ)
	}
	assert.False(t, fields.Type("dropdown").Known())
}

package payload_test

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajinweb/contract-esign-sub000/pkg/payload"
)

var pdfHeader = []byte("%PDF-1.7\n")

func TestUnmarshalShapes(t *testing.T) {
	b64 := base64.StdEncoding.EncodeToString(pdfHeader)

	ints := make([]int, len(pdfHeader))
	for i, c := range pdfHeader {
		ints[i] = int(c)
	}
	intsJSON, err := json.Marshal(ints)
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
	}{
		{"native buffer", `"` + b64 + `"`},
		{"buffer property", `{"buffer":"` + b64 + `"}`},
		{"node buffer envelope", `{"type":"Buffer","data":` + string(intsJSON) + `}`},
		{"buffer property wrapping envelope", `{"buffer":{"type":"Buffer","data":` + string(intsJSON) + `}}`},
		{"byte array", string(intsJSON)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got payload.Bytes
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &got))
			assert.Equal(t, pdfHeader, []byte(got))
		})
	}
}

func TestUnmarshalUnrecognized(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"number", `42`},
		{"object without payload", `{"kind":"pdf"}`},
		{"byte out of range", `{"type":"Buffer","data":[1,300]}`},
		{"invalid base64", `"not base64!!"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got payload.Bytes
			err := json.Unmarshal([]byte(tt.raw), &got)
			assert.ErrorIs(t, err, payload.ErrUnrecognized)
		})
	}
}

func TestScan(t *testing.T) {
	t.Run("raw bytea", func(t *testing.T) {
		var b payload.Bytes
		require.NoError(t, b.Scan(pdfHeader))
		assert.Equal(t, pdfHeader, []byte(b))
	})

	t.Run("json envelope column", func(t *testing.T) {
		var b payload.Bytes
		require.NoError(t, b.Scan([]byte(`{"type":"Buffer","data":[37,80,68,70]}`)))
		assert.Equal(t, []byte("%PDF"), []byte(b))
	})

	t.Run("null", func(t *testing.T) {
		var b payload.Bytes
		require.NoError(t, b.Scan(nil))
		assert.Nil(t, b)
	})

	t.Run("unsupported type", func(t *testing.T) {
		var b payload.Bytes
		assert.ErrorIs(t, b.Scan(3.14), payload.ErrUnrecognized)
	})
}

func TestMarshalRoundTrip(t *testing.T) {
	data, err := json.Marshal(payload.Bytes(pdfHeader))
	require.NoError(t, err)

	var back payload.Bytes
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, pdfHeader, []byte(back))
}

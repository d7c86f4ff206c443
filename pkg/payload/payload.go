// Package payload normalizes binary PDF content read back from persistence.
//
// Stored payloads have been observed in three shapes: a native byte buffer,
// an object wrapping the buffer under "buffer", and the serialized
// {"type":"Buffer","data":[...]} envelope. All three decode to Bytes at the
// storage boundary so nothing downstream sees the difference.
package payload

import (
	"bytes"
	"database/sql/driver"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnrecognized indicates a payload whose shape cannot be normalized.
var ErrUnrecognized = errors.New("unrecognized binary payload shape")

// Bytes is the canonical in-memory form of a binary payload.
type Bytes []byte

type envelope struct {
	Type   string          `json:"type"`
	Data   []int           `json:"data"`
	Buffer json.RawMessage `json:"buffer"`
}

// Normalize converts any supported representation into Bytes.
func Normalize(v any) (Bytes, error) {
	switch src := v.(type) {
	case nil:
		return nil, nil
	case Bytes:
		return src, nil
	case []byte:
		if looksLikeJSON(src) {
			return decodeJSON(src)
		}
		return Bytes(bytes.Clone(src)), nil
	case string:
		return decodeJSON([]byte(src))
	case json.RawMessage:
		return decodeJSON(src)
	case map[string]any:
		raw, err := json.Marshal(src)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnrecognized, err)
		}
		return decodeJSON(raw)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnrecognized, v)
	}
}

// UnmarshalJSON accepts a base64 string, a byte array, a {"buffer": ...}
// wrapper or a {"type":"Buffer","data":[...]} envelope.
func (b *Bytes) UnmarshalJSON(data []byte) error {
	out, err := decodeJSON(data)
	if err != nil {
		return err
	}
	*b = out
	return nil
}

// MarshalJSON encodes the payload as a base64 string.
func (b Bytes) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}
	return json.Marshal([]byte(b))
}

// Scan implements sql.Scanner. bytea columns arrive as raw bytes; legacy rows
// migrated from document stores hold one of the JSON shapes.
func (b *Bytes) Scan(src any) error {
	out, err := Normalize(src)
	if err != nil {
		return err
	}
	*b = out
	return nil
}

// Value implements driver.Valuer.
func (b Bytes) Value() (driver.Value, error) {
	if b == nil {
		return nil, nil
	}
	return []byte(b), nil
}

func decodeJSON(data []byte) (Bytes, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnrecognized, err)
		}
		raw, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid base64: %v", ErrUnrecognized, err)
		}
		return Bytes(raw), nil
	case '[':
		var ints []int
		if err := json.Unmarshal(data, &ints); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnrecognized, err)
		}
		return fromInts(ints)
	case '{':
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnrecognized, err)
		}
		if env.Type == "Buffer" && env.Data != nil {
			return fromInts(env.Data)
		}
		if len(env.Buffer) > 0 {
			return decodeJSON(env.Buffer)
		}
		return nil, fmt.Errorf("%w: object without buffer or data", ErrUnrecognized)
	default:
		return nil, fmt.Errorf("%w: unexpected JSON token %q", ErrUnrecognized, data[0])
	}
}

func fromInts(ints []int) (Bytes, error) {
	out := make(Bytes, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("%w: byte %d out of range at %d", ErrUnrecognized, v, i)
		}
		out[i] = byte(v)
	}
	return out, nil
}

// looksLikeJSON reports whether raw column bytes hold a JSON envelope rather
// than binary content. PDF content starts with "%PDF".
func looksLikeJSON(b []byte) bool {
	t := bytes.TrimSpace(b)
	if len(t) < 2 {
		return false
	}
	return t[0] == '{' && t[len(t)-1] == '}'
}

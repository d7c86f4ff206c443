package fields

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrInvalid indicates a malformed field list.
var ErrInvalid = errors.New("invalid field list")

// Parse decodes a JSON field array and validates ids, pages and geometry.
func Parse(raw string) ([]Field, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return []Field{}, nil
	}

	var list []Field
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	for i, f := range list {
		if f.ID == "" {
			return nil, fmt.Errorf("%w: field %d has no id", ErrInvalid, i)
		}
		if f.PageNumber < 1 {
			return nil, fmt.Errorf("%w: field %s has page %d", ErrInvalid, f.ID, f.PageNumber)
		}
		if f.Width < 0 || f.Height < 0 {
			return nil, fmt.Errorf("%w: field %s has negative size", ErrInvalid, f.ID)
		}
	}

	return list, nil
}

// Sorted returns a copy of list ordered by id.
func Sorted(list []Field) []Field {
	out := slices.Clone(list)
	slices.SortStableFunc(out, func(a, b Field) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Canonical serializes list in id order so that two lists holding the same
// fields compare equal regardless of order.
func Canonical(list []Field) ([]byte, error) {
	if len(list) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(Sorted(list))
}

// Equal reports whether a and b hold the same fields.
func Equal(a, b []Field) bool {
	ca, err := Canonical(a)
	if err != nil {
		return false
	}
	cb, err := Canonical(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ca, cb)
}

// Replay carries signed values forward. An incoming field with an empty
// value keeps the stored value when the stored field belongs to a recipient
// that has already signed, even if the field has since been reassigned.
func Replay(incoming, stored []Field, signed func(recipientID string) bool) []Field {
	prior := make(map[string]Field, len(stored))
	for _, f := range stored {
		prior[f.ID] = f
	}

	out := slices.Clone(incoming)
	for i, f := range out {
		if f.Value != "" {
			continue
		}
		p, ok := prior[f.ID]
		if !ok || p.Value == "" || p.RecipientID == nil {
			continue
		}
		if signed(*p.RecipientID) {
			out[i].Value = p.Value
		}
	}
	return out
}

// Package fields defines placed form fields and the comparisons the save
// path relies on.
package fields

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Type identifies what a field renders.
type Type string

const (
	Text          Type = "text"
	Date          Type = "date"
	Checkbox      Type = "checkbox"
	Signature     Type = "signature"
	Initials      Type = "initials"
	Stamp         Type = "stamp"
	Image         Type = "image"
	RealtimePhoto Type = "realtime_photo"
)

// Known reports whether t is a supported field type.
func (t Type) Known() bool {
	switch t {
	case Text, Date, Checkbox, Signature, Initials, Stamp, Image, RealtimePhoto:
		return true
	}
	return false
}

// IsImage reports whether the field value is an image data URI.
func (t Type) IsImage() bool {
	switch t {
	case Signature, Initials, Stamp, Image, RealtimePhoto:
		return true
	}
	return false
}

// Viewport is the rendered page element size captured by the editor when
// the field was placed. Geometry is relative to it.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Zoom   float64 `json:"zoom,omitempty"`
}

// Field is a form element placed on a page. Geometry is in editor units with
// a top-left origin.
type Field struct {
	ID          string    `json:"id"`
	Type        Type      `json:"type"`
	Value       Value     `json:"value,omitempty"`
	PageNumber  int       `json:"pageNumber"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	Width       float64   `json:"width"`
	Height      float64   `json:"height"`
	RecipientID *string   `json:"recipientId,omitempty"`
	Required    bool      `json:"required"`
	Viewport    *Viewport `json:"viewport,omitempty"`
}

// Checked reports whether a checkbox value marks the box. Only the literal
// strings "true" and "checked" do.
func (f Field) Checked() bool {
	return f.Value == "true" || f.Value == "checked"
}

// Renderable reports whether the field draws anything.
func (f Field) Renderable() bool {
	if f.Type == Checkbox {
		return f.Checked()
	}
	return f.Value != ""
}

// Value is a field value. Editors send checkbox state as JSON booleans and
// numeric inputs as numbers; both are kept in their string form.
type Value string

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = ""
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*v = Value(data)
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Value(s)
	default:
		n, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("unsupported field value %s", data)
		}
		*v = Value(strconv.FormatFloat(n, 'f', -1, 64))
	}
	return nil
}

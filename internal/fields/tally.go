package fields

import (
	"fmt"
	"strings"
)

var tallyOrder = []struct {
	t              Type
	single, plural string
}{
	{Signature, "signature", "signatures"},
	{Initials, "initials", "initials"},
	{Date, "date", "dates"},
	{Text, "text field", "text fields"},
	{Checkbox, "checkbox", "checkboxes"},
	{Stamp, "stamp", "stamps"},
	{Image, "image", "images"},
	{RealtimePhoto, "photo", "photos"},
}

// Tally summarizes the completed fields by type, for example
// "2 signatures, 1 date".
func Tally(list []Field) string {
	counts := make(map[Type]int)
	for _, f := range list {
		if f.Renderable() {
			counts[f.Type]++
		}
	}

	var parts []string
	for _, entry := range tallyOrder {
		n := counts[entry.t]
		if n == 0 {
			continue
		}
		label := entry.plural
		if n == 1 {
			label = entry.single
		}
		parts = append(parts, fmt.Sprintf("%d %s", n, label))
	}

	if len(parts) == 0 {
		return "no completed fields"
	}
	return strings.Join(parts, ", ")
}

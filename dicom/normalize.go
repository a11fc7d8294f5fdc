package dicom

import (
	"strings"

	"github.com/caio-sobreiro/dicomjson/types"
)

// RepeatingGroupSuffix marks keywords whose values are repeating groups.
const RepeatingGroupSuffix = "Sequence"

// WrapSequences returns a copy of attrs in which every value stored under a
// keyword ending in "Sequence" carries repeating-group accessors, so that
// seq.Get("CodeValue") reads the first item. Nested maps and sequence items
// are rebuilt first. Null values pass through unchanged and attrs is never
// modified.
func WrapSequences(attrs types.Attributes) types.Attributes {
	if attrs == nil {
		return nil
	}
	out := make(types.Attributes, len(attrs))
	for key, value := range attrs {
		wrapped := wrapValue(value)
		if strings.HasSuffix(key, RepeatingGroupSuffix) && !wrapped.IsNull() {
			wrapped = wrapped.Repeating()
		}
		out[key] = wrapped
	}
	return out
}

func wrapValue(v types.Value) types.Value {
	var out types.Value
	switch v.Kind() {
	case types.KindNested:
		out = types.Nested(WrapSequences(v.Fields()))
	case types.KindSequence:
		items := v.Items()
		for i := range items {
			items[i] = wrapValue(items[i])
		}
		out = types.Sequence(items...)
	default:
		return v
	}
	if v.IsRepeating() {
		out = out.Repeating()
	}
	return out
}

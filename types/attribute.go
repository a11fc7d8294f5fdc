package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindScalar Kind = iota
	KindSequence
	KindNested
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindNested:
		return "nested"
	default:
		return "unknown"
	}
}

// Value is a naturalized DICOM attribute value.
//
// Scalars hold a string, float64, bool or nil. Sequences hold an ordered list
// of values (multi-valued elements as well as sequence items). Nested values
// hold a keyword keyed attribute map.
//
// A value marked repeating (see Repeating) additionally behaves like its first
// item: Get falls through to the first element.
type Value struct {
	kind      Kind
	scalar    any
	items     []Value
	fields    Attributes
	repeating bool
}

// Null is the absent value.
var Null = Value{}

// String returns a scalar string value.
func String(s string) Value {
	return Value{kind: KindScalar, scalar: s}
}

// Number returns a scalar numeric value.
func Number(f float64) Value {
	return Value{kind: KindScalar, scalar: f}
}

// Bool returns a scalar boolean value.
func Bool(b bool) Value {
	return Value{kind: KindScalar, scalar: b}
}

// Sequence returns an ordered sequence of values.
func Sequence(items ...Value) Value {
	return Value{kind: KindSequence, items: append([]Value(nil), items...)}
}

// Nested returns a nested attribute map value.
func Nested(fields Attributes) Value {
	return Value{kind: KindNested, fields: fields}
}

// FromAny converts a decoded JSON value (or plain Go value) into a Value.
// Unsupported types are stored as their fmt representation.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null
	case Value:
		return t
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case uint16:
		return Number(float64(t))
	case uint32:
		return Number(float64(t))
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return Number(f)
		}
		return String(t.String())
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = FromAny(item)
		}
		return Value{kind: KindSequence, items: items}
	case []string:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = String(item)
		}
		return Value{kind: KindSequence, items: items}
	case []float64:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = Number(item)
		}
		return Value{kind: KindSequence, items: items}
	case map[string]any:
		return Nested(AttributesFromMap(t))
	case Attributes:
		return Nested(t)
	default:
		return String(fmt.Sprintf("%v", t))
	}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the absent value.
func (v Value) IsNull() bool {
	return v.kind == KindScalar && v.scalar == nil
}

// IsRepeating reports whether v carries repeating-group accessors.
func (v Value) IsRepeating() bool { return v.repeating }

// Repeating returns a copy of v marked as a repeating group.
func (v Value) Repeating() Value {
	v.repeating = true
	return v
}

// Scalar returns the raw scalar, or nil for non-scalar values.
func (v Value) Scalar() any {
	if v.kind != KindScalar {
		return nil
	}
	return v.scalar
}

// Items returns a copy of the sequence elements.
func (v Value) Items() []Value {
	if v.kind != KindSequence {
		return nil
	}
	return append([]Value(nil), v.items...)
}

// Fields returns the nested attribute map, or nil.
func (v Value) Fields() Attributes {
	if v.kind != KindNested {
		return nil
	}
	return v.fields
}

// Len returns the number of elements addressable with At.
func (v Value) Len() int {
	switch v.kind {
	case KindSequence:
		return len(v.items)
	case KindNested:
		return 1
	default:
		if v.scalar == nil {
			return 0
		}
		return 1
	}
}

// At returns the i-th element. Nested and scalar values behave as a
// single-element list.
func (v Value) At(i int) (Value, bool) {
	if i < 0 || i >= v.Len() {
		return Null, false
	}
	if v.kind == KindSequence {
		return v.items[i], true
	}
	el := v
	el.repeating = false
	return el, true
}

// First returns the first element, the "value" convenience of a repeating group.
func (v Value) First() (Value, bool) {
	return v.At(0)
}

// Get returns the attribute named key. On a repeating sequence the lookup is
// made against the first item.
func (v Value) Get(key string) (Value, bool) {
	switch v.kind {
	case KindNested:
		val, ok := v.fields[key]
		return val, ok
	case KindSequence:
		if !v.repeating || len(v.items) == 0 {
			return Null, false
		}
		return v.items[0].Get(key)
	default:
		return Null, false
	}
}

// Text returns the value as a string. Numbers are formatted without
// trailing zeros; single-element sequences unwrap.
func (v Value) Text() (string, bool) {
	switch v.kind {
	case KindScalar:
		switch s := v.scalar.(type) {
		case string:
			return s, true
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64), true
		case bool:
			return strconv.FormatBool(s), true
		}
	case KindSequence:
		if len(v.items) == 1 {
			return v.items[0].Text()
		}
	case KindNested:
		if alpha, ok := v.fields["Alphabetic"]; ok {
			return alpha.Text()
		}
	}
	return "", false
}

// Float returns the value as a number, parsing numeric strings.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindScalar:
		switch s := v.scalar.(type) {
		case float64:
			return s, true
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			return f, err == nil
		}
	case KindSequence:
		if len(v.items) == 1 {
			return v.items[0].Float()
		}
	}
	return 0, false
}

// Equal reports deep equality of two values, ignoring the repeating mark.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindScalar:
		return v.scalar == o.scalar
	case KindSequence:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	default:
		return v.fields.Equal(o.fields)
	}
}

// Natural converts v back into plain Go values (map[string]any, []any, scalars).
func (v Value) Natural() any {
	switch v.kind {
	case KindSequence:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.Natural()
		}
		return out
	case KindNested:
		return v.fields.Natural()
	default:
		return v.scalar
	}
}

func (v Value) String() string {
	b, err := json.Marshal(v.Natural())
	if err != nil {
		return fmt.Sprintf("%v", v.Natural())
	}
	return string(b)
}

// MarshalJSON encodes the natural form of v.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Natural())
}

// UnmarshalJSON decodes any JSON value into v.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}

// Attributes is a keyword keyed map of naturalized attribute values.
type Attributes map[string]Value

// AttributesFromMap converts a decoded JSON object.
func AttributesFromMap(m map[string]any) Attributes {
	attrs := make(Attributes, len(m))
	for k, v := range m {
		attrs[k] = FromAny(v)
	}
	return attrs
}

// Get returns the value stored under key.
func (a Attributes) Get(key string) (Value, bool) {
	v, ok := a[key]
	return v, ok
}

// String returns the text form of key, or "" when absent.
func (a Attributes) String(key string) string {
	s, _ := a[key].Text()
	return s
}

// Int returns key as an integer, or 0 when absent or not numeric.
func (a Attributes) Int(key string) int {
	f, ok := a[key].Float()
	if !ok {
		return 0
	}
	return int(f)
}

// Clone returns a shallow copy of a.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Without returns a shallow copy of a with keys removed.
func (a Attributes) Without(keys ...string) Attributes {
	out := a.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Equal reports deep equality of two attribute maps.
func (a Attributes) Equal(o Attributes) bool {
	if len(a) != len(o) {
		return false
	}
	for k, v := range a {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Natural converts a into a plain map.
func (a Attributes) Natural() map[string]any {
	out := make(map[string]any, len(a))
	for k, v := range a {
		out[k] = v.Natural()
	}
	return out
}

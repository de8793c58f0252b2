// Package value implements the structured values stored in quickdb rows.
//
// A [Value] is a tagged variant: null, bool, number, string, array or object.
// Objects keep their members in insertion order so that snapshots encode
// deterministically and read back identically.
//
// Values are immutable. Every operation that changes a value ([Value.With],
// [Value.SetPath], [Value.DeletePath], [Value.Append], ...) returns a new
// Value and leaves the receiver untouched, which is what lets the store hand
// values to concurrent callers without copying them.
package value

import (
	"errors"
	"math"
	"slices"
	"unicode/utf8"
)

// ErrUnsupported is returned by [From] for Go values that have no JSON
// representation (functions, channels, NaN, ...).
var ErrUnsupported = errors.New("unsupported value")

// Kind identifies the variant held by a [Value].
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

// Member is a single key/value pair of an object.
type Member struct {
	Key   string
	Value Value
}

// Value is an immutable JSON-shaped value. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	arr  []Value
	obj  []Member
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array returns an array holding items. The slice is copied.
func Array(items ...Value) Value {
	return Value{kind: KindArray, arr: slices.Clone(items)}
}

// Object returns an object with the given members. A key that appears more
// than once keeps its first position and its last value.
func Object(members ...Member) Value {
	var b objectBuilder
	for _, m := range members {
		b.set(m.Key, m.Value)
	}

	return b.value()
}

// EmptyObject returns an object without members.
func EmptyObject() Value { return Value{kind: KindObject} }

// Kind reports the variant of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean held by v.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Number returns the number held by v.
func (v Value) Number() (float64, bool) { return v.n, v.kind == KindNumber }

// Text returns the string held by v.
func (v Value) Text() (string, bool) { return v.s, v.kind == KindString }

// Items returns a copy of the elements of an array.
func (v Value) Items() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}

	return slices.Clone(v.arr), true
}

// Members returns a copy of the members of an object, in order.
func (v Value) Members() ([]Member, bool) {
	if v.kind != KindObject {
		return nil, false
	}

	return slices.Clone(v.obj), true
}

// Len returns the number of elements of an array or members of an object,
// and 0 for every other kind.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.obj)
	default:
		return 0
	}
}

// ValidUTF8 reports whether every string and object key in v is valid
// UTF-8. Only such values encode to JSON without loss.
func (v Value) ValidUTF8() bool {
	switch v.kind {
	case KindString:
		return utf8.ValidString(v.s)
	case KindArray:
		for _, item := range v.arr {
			if !item.ValidUTF8() {
				return false
			}
		}
	case KindObject:
		for _, m := range v.obj {
			if !utf8.ValidString(m.Key) || !m.Value.ValidUTF8() {
				return false
			}
		}
	}

	return true
}

// Field returns the member named key of an object.
func (v Value) Field(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}

	for _, m := range v.obj {
		if m.Key == key {
			return m.Value, true
		}
	}

	return Value{}, false
}

// With returns a copy of the object v with key set to item. An existing key
// keeps its position. If v is not an object it is treated as an empty one.
func (v Value) With(key string, item Value) Value {
	if v.kind != KindObject {
		return Value{kind: KindObject, obj: []Member{{Key: key, Value: item}}}
	}

	for i, m := range v.obj {
		if m.Key == key {
			obj := slices.Clone(v.obj)
			obj[i].Value = item

			return Value{kind: KindObject, obj: obj}
		}
	}

	obj := make([]Member, len(v.obj), len(v.obj)+1)
	copy(obj, v.obj)

	return Value{kind: KindObject, obj: append(obj, Member{Key: key, Value: item})}
}

// Without returns a copy of the object v without key, and whether key was
// present. Non-objects are returned unchanged.
func (v Value) Without(key string) (Value, bool) {
	if v.kind != KindObject {
		return v, false
	}

	for i, m := range v.obj {
		if m.Key == key {
			obj := make([]Member, 0, len(v.obj)-1)
			obj = append(obj, v.obj[:i]...)
			obj = append(obj, v.obj[i+1:]...)

			return Value{kind: KindObject, obj: obj}, true
		}
	}

	return v, false
}

// Append returns a copy of the array v with items added at the end. If v is
// not an array it is treated as an empty one.
func (v Value) Append(items ...Value) Value {
	var base []Value
	if v.kind == KindArray {
		base = v.arr
	}

	arr := make([]Value, 0, len(base)+len(items))
	arr = append(arr, base...)
	arr = append(arr, items...)

	return Value{kind: KindArray, arr: arr}
}

// Filter returns a copy of the array v holding only the elements for which
// keep returns true. Non-arrays are returned unchanged.
func (v Value) Filter(keep func(item Value, index int) bool) Value {
	if v.kind != KindArray {
		return v
	}

	arr := make([]Value, 0, len(v.arr))
	for i, item := range v.arr {
		if keep(item, i) {
			arr = append(arr, item)
		}
	}

	return Value{kind: KindArray, arr: arr}
}

// Equal reports whether a and b are deeply equal. Object member order does
// not matter; array element order does.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}

	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindString:
		return a.s == b.s
	case KindArray:
		return slices.EqualFunc(a.arr, b.arr, Equal)
	case KindObject:
		if len(a.obj) != len(b.obj) {
			return false
		}

		for _, m := range a.obj {
			other, ok := b.Field(m.Key)
			if !ok || !Equal(m.Value, other) {
				return false
			}
		}

		return true
	default:
		return false
	}
}

// Any converts v to plain Go values: nil, bool, float64, string, []any and
// map[string]any. Object member order is lost.
func (v Value) Any() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Any()
		}

		return out
	case KindObject:
		out := make(map[string]any, len(v.obj))
		for _, m := range v.obj {
			out[m.Key] = m.Value.Any()
		}

		return out
	default:
		return nil
	}
}

// String returns the compact JSON encoding of v.
func (v Value) String() string {
	data, err := v.MarshalJSON()
	if err != nil {
		return "<" + err.Error() + ">"
	}

	return string(data)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// objectBuilder accumulates members, replacing duplicates in place.
type objectBuilder struct {
	members []Member
	index   map[string]int
}

func (b *objectBuilder) set(key string, item Value) {
	if b.index == nil {
		b.index = make(map[string]int)
	}

	if i, ok := b.index[key]; ok {
		b.members[i].Value = item

		return
	}

	b.index[key] = len(b.members)
	b.members = append(b.members, Member{Key: key, Value: item})
}

func (b *objectBuilder) value() Value {
	return Value{kind: KindObject, obj: b.members}
}

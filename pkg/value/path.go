package value

import (
	"errors"
	"fmt"
)

// ErrNotObject is returned by [Value.SetPathStrict] when writing the path
// would overwrite data that is not an object.
var ErrNotObject = errors.New("not an object")

// GetPath resolves path against v, descending one object member per
// segment. A missing member or a non-object intermediate yields false; it is
// never an error. An empty path returns v itself.
func (v Value) GetPath(path []string) (Value, bool) {
	cur := v

	for _, seg := range path {
		next, ok := cur.Field(seg)
		if !ok {
			return Value{}, false
		}

		cur = next
	}

	return cur, true
}

// SetPath returns a copy of v with item stored at path.
//
// Every level on the way that is not an object, including v itself, is
// replaced by an empty object first. Whatever it held before is discarded:
// SetPath(3, ["b"], 5) is {"b":5}. An empty path returns item.
func (v Value) SetPath(path []string, item Value) Value {
	if len(path) == 0 {
		return item
	}

	child, _ := v.Field(path[0])

	return v.With(path[0], child.SetPath(path[1:], item))
}

// SetPathStrict is like [Value.SetPath] but refuses to discard data: a level
// that holds a bool, number, string or array fails with [ErrNotObject].
// Null and missing levels are still created.
func (v Value) SetPathStrict(path []string, item Value) (Value, error) {
	if len(path) == 0 {
		return item, nil
	}

	if v.kind != KindObject && v.kind != KindNull {
		return Value{}, fmt.Errorf("%w: found %s", ErrNotObject, v.kind)
	}

	child, _ := v.Field(path[0])

	updated, err := child.SetPathStrict(path[1:], item)
	if err != nil {
		return Value{}, fmt.Errorf("%s: %w", path[0], err)
	}

	return v.With(path[0], updated), nil
}

// DeletePath returns a copy of v with the member at path removed, and
// whether anything was removed. Unreachable paths return v unchanged.
func (v Value) DeletePath(path []string) (Value, bool) {
	switch len(path) {
	case 0:
		return v, false
	case 1:
		return v.Without(path[0])
	}

	child, ok := v.Field(path[0])
	if !ok {
		return v, false
	}

	updated, removed := child.DeletePath(path[1:])
	if !removed {
		return v, false
	}

	return v.With(path[0], updated), true
}

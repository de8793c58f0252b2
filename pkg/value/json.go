package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
)

// MarshalJSON encodes v as compact JSON, keeping object member order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	err := v.encode(&buf)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// UnmarshalJSON decodes any JSON document into v, keeping object member order.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}

	*v = parsed

	return nil
}

// Parse decodes a single JSON document. Trailing data after the document is
// an error.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	v, err := decode(dec)
	if err != nil {
		return Value{}, err
	}

	_, err = dec.Token()
	if !errors.Is(err, io.EOF) {
		if err == nil {
			return Value{}, fmt.Errorf("invalid character after top-level value at offset %d", dec.InputOffset())
		}

		return Value{}, err
	}

	return v, nil
}

// Decode stores v into dst using encoding/json, so dst may be any type
// json.Unmarshal accepts.
func (v Value) Decode(dst any) error {
	data, err := v.MarshalJSON()
	if err != nil {
		return err
	}

	return json.Unmarshal(data, dst)
}

// From converts a Go value to a [Value].
//
// Supported directly: nil, Value, *Value, bool, all integer and float kinds,
// string, json.Number, json.RawMessage, []any, []Value, map[string]any and
// map[string]Value (members sorted by key). Anything else goes through
// json.Marshal, so structs with json tags work. Values without a JSON form
// return an error wrapping [ErrUnsupported]. That includes strings and
// object keys that are not valid UTF-8, and int, int64, uint or uint64
// values beyond ±2^53, which a float64 cannot hold exactly.
func From(in any) (Value, error) {
	v, err := from(in)
	if err != nil {
		return Value{}, err
	}

	if !v.ValidUTF8() {
		return Value{}, fmt.Errorf("%w: string is not valid UTF-8", ErrUnsupported)
	}

	return v, nil
}

func from(in any) (Value, error) {
	switch x := in.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case *Value:
		if x == nil {
			return Null(), nil
		}

		return *x, nil
	case bool:
		return Bool(x), nil
	case string:
		return String(x), nil
	case int:
		return fromInt(int64(x))
	case int8:
		return Number(float64(x)), nil
	case int16:
		return Number(float64(x)), nil
	case int32:
		return Number(float64(x)), nil
	case int64:
		return fromInt(x)
	case uint:
		return fromUint(uint64(x))
	case uint8:
		return Number(float64(x)), nil
	case uint16:
		return Number(float64(x)), nil
	case uint32:
		return Number(float64(x)), nil
	case uint64:
		return fromUint(x)
	case float32:
		return fromFloat(float64(x))
	case float64:
		return fromFloat(x)
	case json.Number:
		f, err := strconv.ParseFloat(string(x), 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: json.Number %q", ErrUnsupported, x)
		}

		return fromFloat(f)
	case json.RawMessage:
		v, err := Parse(x)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %w", ErrUnsupported, err)
		}

		return v, nil
	case []Value:
		return Array(x...), nil
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			v, err := from(item)
			if err != nil {
				return Value{}, err
			}

			items[i] = v
		}

		return Value{kind: KindArray, arr: items}, nil
	case map[string]Value:
		var b objectBuilder
		for _, key := range slices.Sorted(maps.Keys(x)) {
			b.set(key, x[key])
		}

		return b.value(), nil
	case map[string]any:
		var b objectBuilder
		for _, key := range slices.Sorted(maps.Keys(x)) {
			v, err := from(x[key])
			if err != nil {
				return Value{}, err
			}

			b.set(key, v)
		}

		return b.value(), nil
	default:
		data, err := json.Marshal(in)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %T: %w", ErrUnsupported, in, err)
		}

		return Parse(data)
	}
}

// MustFrom is like [From] but panics on error. Intended for literals in
// tests and examples.
func MustFrom(in any) Value {
	v, err := From(in)
	if err != nil {
		panic(err)
	}

	return v
}

// maxExactInt is the largest magnitude up to which every integer has an
// exact float64 representation.
const maxExactInt = 1 << 53

func fromInt(i int64) (Value, error) {
	if i > maxExactInt || i < -maxExactInt {
		return Value{}, fmt.Errorf("%w: integer %d exceeds ±2^53", ErrUnsupported, i)
	}

	return Number(float64(i)), nil
}

func fromUint(u uint64) (Value, error) {
	if u > maxExactInt {
		return Value{}, fmt.Errorf("%w: integer %d exceeds 2^53", ErrUnsupported, u)
	}

	return Number(float64(u)), nil
}

func fromFloat(f float64) (Value, error) {
	if !finite(f) {
		return Value{}, fmt.Errorf("%w: non-finite number %v", ErrUnsupported, f)
	}

	return Number(f), nil
}

func decode(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			return decodeArray(dec)
		case '{':
			return decodeObject(dec)
		}
	}

	return Value{}, fmt.Errorf("unexpected token %v at offset %d", tok, dec.InputOffset())
}

func decodeArray(dec *json.Decoder) (Value, error) {
	items := []Value{}

	for dec.More() {
		item, err := decode(dec)
		if err != nil {
			return Value{}, err
		}

		items = append(items, item)
	}

	// Closing ']'.
	_, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	return Value{kind: KindArray, arr: items}, nil
}

func decodeObject(dec *json.Decoder) (Value, error) {
	var b objectBuilder

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}

		key, ok := tok.(string)
		if !ok {
			return Value{}, fmt.Errorf("object key %v is not a string", tok)
		}

		item, err := decode(dec)
		if err != nil {
			return Value{}, err
		}

		b.set(key, item)
	}

	// Closing '}'.
	_, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	return b.value(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		data, err := json.Marshal(v.n)
		if err != nil {
			return err
		}

		buf.Write(data)
	case KindString:
		encodeString(buf, v.s)
	case KindArray:
		buf.WriteByte('[')

		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}

			if err := item.encode(buf); err != nil {
				return err
			}
		}

		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')

		for i, m := range v.obj {
			if i > 0 {
				buf.WriteByte(',')
			}

			encodeString(buf, m.Key)
			buf.WriteByte(':')

			if err := m.Value.encode(buf); err != nil {
				return err
			}
		}

		buf.WriteByte('}')
	default:
		return fmt.Errorf("encode: invalid kind %d", v.kind)
	}

	return nil
}

// encodeString writes s as a JSON string without HTML escaping, so stored
// text stays readable in snapshots.
func encodeString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)

	// Encode terminates with a newline.
	buf.Truncate(buf.Len() - 1)
}

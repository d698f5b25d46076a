package types

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind discriminates the variants of a Value.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindArray
	KindDict
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindArray:
		return "array"
	case KindDict:
		return "dict"
	}
	return "unknown"
}

// Value is an immutable tagged union. The zero value is the empty string.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
	a    []Value
	d    map[string]Value
}

// String creates a string Value.
func String(v string) Value { return Value{kind: KindString, s: v} }

// Int creates an int Value.
func Int(v int) Value { return Value{kind: KindInt, i: int64(v)} }

// Int64 creates an int Value from int64.
func Int64(v int64) Value { return Value{kind: KindInt, i: v} }

// Float creates a float Value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// Bool creates a bool Value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Array creates an array Value; the slice is copied.
func Array(values ...Value) Value {
	return Value{kind: KindArray, a: append([]Value(nil), values...)}
}

// Dict creates a dictionary Value; the map is copied.
func Dict(values map[string]Value) Value {
	d := make(map[string]Value, len(values))
	for k, v := range values {
		d[k] = v
	}
	return Value{kind: KindDict, d: d}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// Text returns (string, true) when the value is a string.
func (v Value) Text() (string, bool) { return v.s, v.kind == KindString }

// Int returns (int, true) when the value is an int.
func (v Value) Int() (int, bool) { return int(v.i), v.kind == KindInt }

// Float returns (float64, true) when the value is a float.
func (v Value) Float() (float64, bool) { return v.f, v.kind == KindFloat }

// Bool returns (bool, true) when the value is a bool.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Array returns (elements, true) when the value is an array. The returned
// slice is a copy.
func (v Value) Array() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return append([]Value(nil), v.a...), true
}

// Dict returns (entries, true) when the value is a dictionary. The returned
// map is a copy.
func (v Value) Dict() (map[string]Value, bool) {
	if v.kind != KindDict {
		return nil, false
	}
	ret := make(map[string]Value, len(v.d))
	for k, e := range v.d {
		ret[k] = e
	}
	return ret, true
}

// Native converts the value to its plain Go representation
// (string/int/float64/bool/[]interface{}/map[string]interface{}).
func (v Value) Native() interface{} {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return int(v.i)
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindArray:
		ret := make([]interface{}, len(v.a))
		for i, e := range v.a {
			ret[i] = e.Native()
		}
		return ret
	case KindDict:
		ret := make(map[string]interface{}, len(v.d))
		for k, e := range v.d {
			ret[k] = e.Native()
		}
		return ret
	}
	return nil
}

// ValueOf converts a plain Go value into a Value. Unsupported types fall
// back to their fmt representation as a string.
func ValueOf(v interface{}) Value {
	switch actual := v.(type) {
	case nil:
		return String("")
	case Value:
		return actual
	case string:
		return String(actual)
	case int:
		return Int(actual)
	case int32:
		return Int(int(actual))
	case int64:
		return Int64(actual)
	case float32:
		return Float(float64(actual))
	case float64:
		return Float(actual)
	case bool:
		return Bool(actual)
	case []Value:
		return Array(actual...)
	case []interface{}:
		elems := make([]Value, len(actual))
		for i, e := range actual {
			elems[i] = ValueOf(e)
		}
		return Value{kind: KindArray, a: elems}
	case []string:
		elems := make([]Value, len(actual))
		for i, e := range actual {
			elems[i] = String(e)
		}
		return Value{kind: KindArray, a: elems}
	case map[string]Value:
		return Dict(actual)
	case map[string]interface{}:
		d := make(map[string]Value, len(actual))
		for k, e := range actual {
			d[k] = ValueOf(e)
		}
		return Value{kind: KindDict, d: d}
	}
	return String(fmt.Sprintf("%v", v))
}

// Format renders the value as a human-readable string regardless of kind.
func (v Value) Format() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindArray, KindDict:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v.Native())
		}
		return string(data)
	}
	return ""
}

// Equal reports deep equality of two values, kind included.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == other.s
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindBool:
		return v.b == other.b
	case KindArray:
		if len(v.a) != len(other.a) {
			return false
		}
		for i := range v.a {
			if !v.a[i].Equal(other.a[i]) {
				return false
			}
		}
		return true
	case KindDict:
		if len(v.d) != len(other.d) {
			return false
		}
		for k, e := range v.d {
			o, ok := other.d[k]
			if !ok || !e.Equal(o) {
				return false
			}
		}
		return true
	}
	return false
}

// MarshalJSON encodes the value as its native JSON form.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Native())
}

// UnmarshalJSON decodes a JSON value; numbers without a fractional part
// decode as ints.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = fromJSON(raw)
	return nil
}

func fromJSON(raw interface{}) Value {
	switch actual := raw.(type) {
	case float64:
		if actual == float64(int64(actual)) {
			return Int64(int64(actual))
		}
		return Float(actual)
	case []interface{}:
		elems := make([]Value, len(actual))
		for i, e := range actual {
			elems[i] = fromJSON(e)
		}
		return Value{kind: KindArray, a: elems}
	case map[string]interface{}:
		d := make(map[string]Value, len(actual))
		for k, e := range actual {
			d[k] = fromJSON(e)
		}
		return Value{kind: KindDict, d: d}
	}
	return ValueOf(raw)
}

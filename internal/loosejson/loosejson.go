// Package loosejson reads values out of loosely-typed JSON payloads.
//
// Bibliographic sources return the same logical field in different shapes
// between records: a plain string, an array of strings, an object with a
// "value" or "name" member, or arrays of such objects. Value wraps one
// decoded JSON value and offers typed accessors so adapters never need a
// rigid schema per source.
package loosejson

import "strings"

// Value wraps a decoded JSON value (the result of unmarshaling into any).
type Value struct {
	raw any
}

// Wrap creates a Value from a decoded JSON value.
func Wrap(v any) Value { return Value{raw: v} }

// IsNil reports whether the underlying value is absent.
func (v Value) IsNil() bool { return v.raw == nil }

// Member returns the named object member, or a nil Value when the underlying
// value is not an object or lacks the member.
func (v Value) Member(name string) Value {
	if m, ok := v.raw.(map[string]any); ok {
		return Value{raw: m[name]}
	}
	return Value{}
}

// Index returns the i-th array element, or a nil Value when out of range or
// not an array.
func (v Value) Index(i int) Value {
	if a, ok := v.raw.([]any); ok && i >= 0 && i < len(a) {
		return Value{raw: a[i]}
	}
	return Value{}
}

// Len returns the array length, or 0 when the value is not an array.
func (v Value) Len() int {
	if a, ok := v.raw.([]any); ok {
		return len(a)
	}
	return 0
}

// AsString returns the value as a trimmed string when it is one, else "".
func (v Value) AsString() string {
	if s, ok := v.raw.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// FirstString returns the first plausible string reachable from the value:
// the value itself, the first string found in a (possibly nested) array, or
// a "value"/"name"/"title" member of an object. Returns "" when nothing
// string-like is found.
func (v Value) FirstString() string {
	switch t := v.raw.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		for _, el := range t {
			if s := (Value{raw: el}).FirstString(); s != "" {
				return s
			}
		}
	case map[string]any:
		for _, key := range []string{"value", "name", "title"} {
			if s := (Value{raw: t[key]}).FirstString(); s != "" {
				return s
			}
		}
	}
	return ""
}

// AsStringList flattens the value into a list of strings: a lone string
// becomes a one-element list, arrays are walked recursively, and objects
// contribute their first plausible string. Non-string leaves are skipped.
func (v Value) AsStringList() []string {
	var out []string
	v.appendStrings(&out)
	return out
}

func (v Value) appendStrings(out *[]string) {
	switch t := v.raw.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			*out = append(*out, s)
		}
	case []any:
		for _, el := range t {
			(Value{raw: el}).appendStrings(out)
		}
	case map[string]any:
		if s := v.FirstString(); s != "" {
			*out = append(*out, s)
		}
	}
}

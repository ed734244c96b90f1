// Package fieldval normalizes arbitrary field values from untyped records
// into typed, renderable shapes. Upstream records are partially populated
// and inconsistently shaped, so every function here coerces to a safe
// default instead of failing.
package fieldval

import (
	"reflect"
	"strconv"
	"strings"
)

// Numeric is the canonical shape extracted from any numeric-ish value.
type Numeric struct {
	Value      float64  `json:"value"`
	Unit       string   `json:"unit"`
	RDIPercent *float64 `json:"rdi_percent,omitempty"`
}

// ExtractNumeric coerces a value into a Numeric. It tries, in order:
// the value is already a number; the value is an object carrying an
// "amount" or "value" property (plus optional "unit" and "rdi_percent");
// the value is a numeric string. On total failure it returns the zero
// Numeric rather than an error — the renderer degrades to an empty bar
// instead of crashing.
func ExtractNumeric(v any) Numeric {
	if f, ok := toFloat(v); ok {
		return Numeric{Value: f}
	}

	if m, ok := asObject(v); ok {
		raw, found := m["amount"]
		if !found {
			raw, found = m["value"]
		}
		if found {
			n := Numeric{}
			if f, ok := toFloat(raw); ok {
				n.Value = f
			}
			if u, ok := m["unit"].(string); ok {
				n.Unit = u
			}
			if rdi, ok := toFloat(m["rdi_percent"]); ok {
				n.RDIPercent = &rdi
			}
			return n
		}
		return Numeric{}
	}

	if s, ok := v.(string); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return Numeric{Value: f}
		}
	}

	return Numeric{}
}

// Extractable reports whether ExtractNumeric would yield a non-zero value
// or a value object (even a zero-valued one) for v.
func Extractable(v any) bool {
	if _, ok := toFloat(v); ok {
		return true
	}
	if m, ok := asObject(v); ok {
		if _, found := m["amount"]; found {
			return true
		}
		if _, found := m["value"]; found {
			return true
		}
		return false
	}
	if s, ok := v.(string); ok {
		_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return err == nil
	}
	return false
}

// IsNestedGroup reports whether a value is a "folder of folders": a
// non-array object, non-empty, where more than half of the immediate
// children are themselves non-array objects. The same field key can carry
// either shape across entity kinds, so this stays a runtime heuristic
// rather than a schema declaration.
func IsNestedGroup(v any) bool {
	m, ok := asObject(v)
	if !ok || len(m) == 0 {
		return false
	}
	objects := 0
	for _, child := range m {
		if _, ok := asObject(child); ok {
			objects++
		}
	}
	return objects*2 > len(m)
}

// IsEmpty reports whether a value should render as nothing: nil, an empty
// or literal "null" string, or an empty collection.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	switch tv := v.(type) {
	case string:
		s := strings.TrimSpace(tv)
		return s == "" || s == "null"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Truthy coerces a value into a boolean for boolean-kind fields.
func Truthy(v any) bool {
	switch tv := v.(type) {
	case bool:
		return tv
	case string:
		s := strings.ToLower(strings.TrimSpace(tv))
		return s == "true" || s == "yes" || s == "1"
	}
	if f, ok := toFloat(v); ok {
		return f != 0
	}
	return false
}

// StringIDs extracts a list of identifier strings from a linked-entity-set
// value, tolerating a bare string, a []string, or a JSON-decoded []any.
func StringIDs(v any) []string {
	switch tv := v.(type) {
	case nil:
		return nil
	case string:
		if strings.TrimSpace(tv) == "" {
			return nil
		}
		return []string{tv}
	case []string:
		return tv
	case []any:
		var out []string
		for _, item := range tv {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			} else if m, ok := asObject(item); ok {
				if id, ok := m["id"].(string); ok && id != "" {
					out = append(out, id)
				}
			}
		}
		return out
	}
	return nil
}

// asObject returns v as a string-keyed map if it is a non-array object.
func asObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// toFloat converts any numeric Go type, or a numeric string, to a float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		// Object properties like {"amount": "12.5"} arrive as strings.
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

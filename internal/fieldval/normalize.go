package fieldval

import (
	"fmt"
	"sort"
)

// Kind tags the normalized form of a field value.
type Kind int

const (
	// Scalar is a plain displayable value (string, bool, bare number).
	Scalar Kind = iota
	// Number is a numeric amount with optional unit and RDI percentage.
	Number
	// Group is a string-keyed object of child values.
	Group
	// List is an ordered sequence of child values.
	List
	// Reference is a set of foreign entity identifiers.
	Reference
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case Number:
		return "number"
	case Group:
		return "group"
	case List:
		return "list"
	case Reference:
		return "reference"
	default:
		return "unknown"
	}
}

// Value is the tagged union produced by a single normalization pass at the
// record boundary. Downstream rendering code switches on Kind instead of
// re-testing raw shapes ad hoc.
type Value struct {
	Kind     Kind
	Scalar   any
	Number   Numeric
	Children map[string]Value
	Keys     []string // Children keys in stable (sorted) order
	Items    []Value
	IDs      []string
}

// Normalize classifies a raw field value into a Value.
func Normalize(v any) Value {
	if IsEmpty(v) {
		return Value{Kind: Scalar, Scalar: nil}
	}

	if m, ok := asObject(v); ok {
		if Extractable(m) {
			return Value{Kind: Number, Number: ExtractNumeric(m)}
		}
		children := make(map[string]Value, len(m))
		keys := make([]string, 0, len(m))
		for key, child := range m {
			children[key] = Normalize(child)
			keys = append(keys, key)
		}
		sort.Strings(keys)
		return Value{Kind: Group, Children: children, Keys: keys}
	}

	switch tv := v.(type) {
	case []any:
		items := make([]Value, 0, len(tv))
		for _, item := range tv {
			items = append(items, Normalize(item))
		}
		return Value{Kind: List, Items: items}
	case []string:
		items := make([]Value, 0, len(tv))
		for _, s := range tv {
			items = append(items, Value{Kind: Scalar, Scalar: s})
		}
		return Value{Kind: List, Items: items}
	case bool:
		return Value{Kind: Scalar, Scalar: tv}
	case string:
		return Value{Kind: Scalar, Scalar: tv}
	}

	if f, ok := toFloat(v); ok {
		return Value{Kind: Number, Number: Numeric{Value: f}}
	}
	return Value{Kind: Scalar, Scalar: v}
}

// Display renders a normalized value as a short human-readable string.
func (v Value) Display() string {
	switch v.Kind {
	case Number:
		if v.Number.Unit != "" {
			return fmt.Sprintf("%g %s", v.Number.Value, v.Number.Unit)
		}
		return fmt.Sprintf("%g", v.Number.Value)
	case Scalar:
		if v.Scalar == nil {
			return ""
		}
		return fmt.Sprintf("%v", v.Scalar)
	case Reference:
		return fmt.Sprintf("%d linked", len(v.IDs))
	case List:
		return fmt.Sprintf("%d items", len(v.Items))
	case Group:
		return fmt.Sprintf("%d entries", len(v.Children))
	}
	return ""
}

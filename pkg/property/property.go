package property

import (
	"fmt"
	"sort"
)

// Type is the tag the mapping service uses to identify a property value
type Type string

const (
	TypeString  Type = "String"
	TypeDouble  Type = "double"
	TypeLong    Type = "long"
	TypeInteger Type = "int"
	TypeBoolean Type = "boolean"
	TypeMap     Type = "map"
	TypeArray   Type = "array"
)

// Valid reports whether t is a tag the mapping service understands
func (t Type) Valid() bool {
	switch t {
	case TypeString, TypeDouble, TypeLong, TypeInteger, TypeBoolean, TypeMap, TypeArray:
		return true
	}
	return false
}

// Scalar reports whether t tags a single value rather than a container
func (t Type) Scalar() bool {
	return t.Valid() && t != TypeMap && t != TypeArray
}

// Value is a typed property value. The set of implementations is closed:
// String, Double, Long, Integer, Boolean, Map and Array.
type Value interface {
	Type() Type
	// contents returns the JSON-ready representation of the value without
	// its own type tag.
	contents() (any, error)
}

// String is a String property value
type String string

// Double is a double property value
type Double float64

// Long is a long property value
type Long int64

// Integer is an int property value
type Integer int32

// Boolean is a boolean property value
type Boolean bool

// Map is a named set of property values
type Map map[string]Value

// Array is a homogeneous list of property values. Every item must carry the
// Elem type.
type Array struct {
	Elem  Type
	Items []Value
}

func (String) Type() Type  { return TypeString }
func (Double) Type() Type  { return TypeDouble }
func (Long) Type() Type    { return TypeLong }
func (Integer) Type() Type { return TypeInteger }
func (Boolean) Type() Type { return TypeBoolean }
func (Map) Type() Type     { return TypeMap }
func (Array) Type() Type   { return TypeArray }

func (v String) contents() (any, error)  { return string(v), nil }
func (v Double) contents() (any, error)  { return float64(v), nil }
func (v Long) contents() (any, error)    { return int64(v), nil }
func (v Integer) contents() (any, error) { return int32(v), nil }
func (v Boolean) contents() (any, error) { return bool(v), nil }

func (m Map) contents() (any, error) {
	out := make(map[string]any, len(m))
	for name, v := range m {
		if v == nil {
			return nil, fmt.Errorf("entry %q: nil value", name)
		}
		env, err := envelope(v)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", name, err)
		}
		out[name] = env
	}
	return out, nil
}

func (a Array) contents() (any, error) {
	if !a.Elem.Valid() {
		return nil, fmt.Errorf("invalid array element type '%s'", a.Elem)
	}
	items := make([]any, 0, len(a.Items))
	for i, item := range a.Items {
		if item == nil {
			return nil, fmt.Errorf("item[%d]: nil value", i)
		}
		if item.Type() != a.Elem {
			return nil, fmt.Errorf("item[%d]: type '%s' does not match array element type '%s'", i, item.Type(), a.Elem)
		}
		c, err := item.contents()
		if err != nil {
			return nil, fmt.Errorf("item[%d]: %w", i, err)
		}
		items = append(items, c)
	}
	return []any{string(a.Elem), items}, nil
}

// envelope wraps a value in its [type, contents] pair
func envelope(v Value) ([]any, error) {
	c, err := v.contents()
	if err != nil {
		return nil, err
	}
	return []any{string(v.Type()), c}, nil
}

// Names returns the map entry names in sorted order
func (m Map) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

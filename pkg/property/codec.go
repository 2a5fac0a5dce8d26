package property

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrScalarProperty is returned when a scalar is used where the mapping
// service expects a map or array property
var ErrScalarProperty = errors.New("top-level property must be a map or an array")

// Kind returns the propertyType parameter for a top-level property value
func Kind(v Value) (Type, error) {
	if v == nil {
		return "", fmt.Errorf("nil property value")
	}
	switch v.Type() {
	case TypeMap, TypeArray:
		return v.Type(), nil
	}
	return "", fmt.Errorf("%w (got %s)", ErrScalarProperty, v.Type())
}

// Encode renders a top-level property value as the propertyValue parameter.
// A map is sent as an object of enveloped entries; an array is sent as its
// [elementType, [items]] pair.
func Encode(v Value) ([]byte, error) {
	if _, err := Kind(v); err != nil {
		return nil, err
	}
	c, err := v.contents()
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s property: %w", v.Type(), err)
	}
	return json.Marshal(c)
}

// ToRaw returns the envelope tree of a top-level property value, the inverse
// of FromRaw. It is what Encode marshals.
func ToRaw(v Value) (any, error) {
	if _, err := Kind(v); err != nil {
		return nil, err
	}
	return v.contents()
}

// Decode parses a propertyValue of the given kind back into a Value
func Decode(kind Type, data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s property: %w", kind, err)
	}
	return fromContents(kind, raw)
}

// DecodeMap parses an object of enveloped entries, the shape entity
// properties take in mapping service responses
func DecodeMap(data []byte) (Map, error) {
	v, err := Decode(TypeMap, data)
	if err != nil {
		return nil, err
	}
	return v.(Map), nil
}

// FromRaw builds a Value of the given kind from an already decoded tree,
// such as the output of a YAML or JSON decoder
func FromRaw(kind Type, raw any) (Value, error) {
	return fromContents(kind, raw)
}

// FromEnvelope builds a Value from a decoded [type, contents] pair
func FromEnvelope(raw any) (Value, error) {
	pair, ok := raw.([]any)
	if !ok || len(pair) != 2 {
		return nil, fmt.Errorf("expected [type, value] pair, got %T", raw)
	}
	tag, ok := pair[0].(string)
	if !ok {
		return nil, fmt.Errorf("expected string type tag, got %T", pair[0])
	}
	return fromContents(Type(tag), pair[1])
}

func fromContents(t Type, raw any) (Value, error) {
	switch t {
	case TypeString:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("String: expected string, got %T", raw)
		}
		return String(s), nil
	case TypeDouble:
		f, err := toFloat(raw)
		if err != nil {
			return nil, fmt.Errorf("double: %w", err)
		}
		return Double(f), nil
	case TypeLong:
		n, err := toInt(raw)
		if err != nil {
			return nil, fmt.Errorf("long: %w", err)
		}
		return Long(n), nil
	case TypeInteger:
		n, err := toInt(raw)
		if err != nil {
			return nil, fmt.Errorf("int: %w", err)
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, fmt.Errorf("int: %d out of range", n)
		}
		return Integer(n), nil
	case TypeBoolean:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("boolean: expected bool, got %T", raw)
		}
		return Boolean(b), nil
	case TypeMap:
		return mapFromRaw(raw)
	case TypeArray:
		return arrayFromRaw(raw)
	}
	return nil, fmt.Errorf("unknown property type '%s'", t)
}

func mapFromRaw(raw any) (Map, error) {
	entries, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("map: expected object, got %T", raw)
	}
	m := make(Map, len(entries))
	for name, entry := range entries {
		v, err := FromEnvelope(entry)
		if err != nil {
			return nil, fmt.Errorf("map entry %q: %w", name, err)
		}
		m[name] = v
	}
	return m, nil
}

func arrayFromRaw(raw any) (Array, error) {
	pair, ok := raw.([]any)
	if !ok || len(pair) != 2 {
		return Array{}, fmt.Errorf("array: expected [elementType, items] pair, got %T", raw)
	}
	tag, ok := pair[0].(string)
	if !ok || !Type(tag).Valid() {
		return Array{}, fmt.Errorf("array: invalid element type %v", pair[0])
	}
	list, ok := pair[1].([]any)
	if !ok {
		return Array{}, fmt.Errorf("array: expected item list, got %T", pair[1])
	}
	a := Array{Elem: Type(tag), Items: make([]Value, 0, len(list))}
	for i, item := range list {
		v, err := fromContents(a.Elem, item)
		if err != nil {
			return Array{}, fmt.Errorf("array item[%d]: %w", i, err)
		}
		a.Items = append(a.Items, v)
	}
	return a, nil
}

func toFloat(raw any) (float64, error) {
	switch n := raw.(type) {
	case json.Number:
		return n.Float64()
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	}
	return 0, fmt.Errorf("expected number, got %T", raw)
}

func toInt(raw any) (int64, error) {
	switch n := raw.(type) {
	case json.Number:
		return n.Int64()
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("%d out of range", n)
		}
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("expected integer, got %v", n)
		}
		return int64(n), nil
	}
	return 0, fmt.Errorf("expected integer, got %T", raw)
}

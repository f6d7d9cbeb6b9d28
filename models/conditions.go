package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
)

// ValueKind enumerates the JSON-like kinds a condition value can take.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindMap
)

// Value is a tagged union over the JSON scalar and container types. Grants and
// requests carry condition maps of these; equality is structural.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
	List []Value
	Map  map[string]Value
}

func StringValue(s string) Value  { return Value{Kind: KindString, Str: s} }
func NumberValue(n float64) Value { return Value{Kind: KindNumber, Num: n} }
func BoolValue(b bool) Value      { return Value{Kind: KindBool, Bool: b} }
func NullValue() Value            { return Value{Kind: KindNull} }
func ListValue(vs ...Value) Value { return Value{Kind: KindList, List: vs} }
func MapValue(m map[string]Value) Value {
	return Value{Kind: KindMap, Map: m}
}

// Equal reports structural equality. Lists compare element-wise in order; maps
// must agree on the exact key set.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindString:
		return v.Str == o.Str
	case KindNumber:
		return v.Num == o.Num
	case KindBool:
		return v.Bool == o.Bool
	case KindList:
		if len(v.List) != len(o.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(o.List[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.Map) != len(o.Map) {
			return false
		}
		for k, vv := range v.Map {
			ov, ok := o.Map[k]
			if !ok || !vv.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

// MarshalJSON renders the value as plain JSON.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return nil, fmt.Errorf("cannot marshal non-finite number")
		}
		return json.Marshal(v.Num)
	case KindBool:
		return json.Marshal(v.Bool)
	case KindList:
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	case KindMap:
		if v.Map == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.Map)
	}
	return nil, fmt.Errorf("unknown value kind %d", v.Kind)
}

// UnmarshalJSON parses arbitrary JSON into the tagged union.
func (v *Value) UnmarshalJSON(b []byte) error {
	var raw interface{}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := valueFromInterface(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func valueFromInterface(raw interface{}) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return NullValue(), nil
	case string:
		return StringValue(t), nil
	case bool:
		return BoolValue(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q: %w", t.String(), err)
		}
		return NumberValue(f), nil
	case []interface{}:
		list := make([]Value, 0, len(t))
		for _, e := range t {
			ev, err := valueFromInterface(e)
			if err != nil {
				return Value{}, err
			}
			list = append(list, ev)
		}
		return Value{Kind: KindList, List: list}, nil
	case map[string]interface{}:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			ev, err := valueFromInterface(e)
			if err != nil {
				return Value{}, err
			}
			m[k] = ev
		}
		return Value{Kind: KindMap, Map: m}, nil
	}
	return Value{}, fmt.Errorf("unsupported condition value type %T", raw)
}

// Conditions is a key/value condition map attached to grants and requests.
// A nil or empty map means "no conditions".
type Conditions map[string]Value

// Merge returns a copy of c overlaid with o; keys in o win. Either side may be nil.
func (c Conditions) Merge(o Conditions) Conditions {
	if len(c) == 0 && len(o) == 0 {
		return nil
	}
	out := make(Conditions, len(c)+len(o))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Value implements driver.Valuer so Conditions persists as a JSON column.
func (c Conditions) Value() (driver.Value, error) {
	if c == nil {
		return nil, nil
	}
	b, err := json.Marshal(map[string]Value(c))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for JSON columns; NULL yields a nil map.
func (c *Conditions) Scan(src interface{}) error {
	if src == nil {
		*c = nil
		return nil
	}
	var b []byte
	switch t := src.(type) {
	case []byte:
		b = t
	case string:
		b = []byte(t)
	default:
		return fmt.Errorf("cannot scan %T into Conditions", src)
	}
	if len(b) == 0 {
		*c = nil
		return nil
	}
	var m map[string]Value
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("decode conditions: %w", err)
	}
	*c = m
	return nil
}
